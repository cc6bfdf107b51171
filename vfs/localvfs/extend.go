// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"fmt"
	"os"
	"strings"

	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) Extend(name string, api vfs.Api) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, exists := fs.apis[name]; exists {
		return fmt.Errorf("localvfs: api %q already registered", name)
	}
	fs.apis[name] = api
	return nil
}

func (fs *FS) Unextend(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, exists := fs.apis[name]; !exists {
		return fmt.Errorf("localvfs: api %q not registered", name)
	}
	delete(fs.apis, name)
	return nil
}

func (fs *FS) Use(name string) (vfs.Api, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	api, exists := fs.apis[name]
	if !exists {
		return nil, fmt.Errorf("localvfs: api %q not registered", name)
	}
	return api, nil
}

func (fs *FS) Env() map[string]string {
	env := make(map[string]string)
	for _, entry := range os.Environ() {
		if k, v, ok := strings.Cut(entry, "="); ok {
			env[k] = v
		}
	}
	return env
}

func (fs *FS) On(event string, handler func(args ...any)) func() {
	fs.mu.Lock()
	if fs.listeners[event] == nil {
		fs.listeners[event] = make(map[int]func(args ...any))
	}
	id := fs.nextListenerID
	fs.nextListenerID++
	fs.listeners[event][id] = handler
	fs.mu.Unlock()

	return func() {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		delete(fs.listeners[event], id)
	}
}

func (fs *FS) Emit(event string, args ...any) {
	fs.mu.RLock()
	handlers := make([]func(args ...any), 0, len(fs.listeners[event]))
	for _, h := range fs.listeners[event] {
		handlers = append(handlers, h)
	}
	fs.mu.RUnlock()
	for _, h := range handlers {
		h(args...)
	}
}
