// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/relayfs/relayfs/vfs"
)

// watchPollInterval is how often localvfs's Watcher rescans a directory
// for changes. The teacher's own dependency set carries no filesystem
// notification library (fsnotify et al. never appear in go.mod), so a
// poll loop over os.ReadDir is the implementation this module can
// actually ground in its own dependencies (see DESIGN.md).
const watchPollInterval = time.Second

type watcher struct {
	path string
	fs   *FS

	mu        sync.Mutex
	changed   []func(event, filename string, stat *vfs.Stat, files []string)
	done      chan struct{}
	closeOnce sync.Once
}

func (fs *FS) Watch(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	if _, err := os.Stat(full); err != nil {
		return nil, wrapStatError(path, err)
	}

	w := &watcher{path: full, fs: fs, done: make(chan struct{})}
	go w.loop()
	return &vfs.Meta{Watcher: w}, nil
}

func (w *watcher) loop() {
	seen := w.snapshot()
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			current := w.snapshot()
			w.diff(seen, current)
			seen = current
		}
	}
}

func (w *watcher) snapshot() map[string]os.FileInfo {
	entries, err := os.ReadDir(w.path)
	if err != nil {
		return nil
	}
	snap := make(map[string]os.FileInfo, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err == nil {
			snap[e.Name()] = info
		}
	}
	return snap
}

func (w *watcher) diff(before, after map[string]os.FileInfo) {
	for name, info := range after {
		prior, existed := before[name]
		if !existed {
			w.fire("add", name, info)
			continue
		}
		if prior.ModTime() != info.ModTime() || prior.Size() != info.Size() {
			w.fire("change", name, info)
		}
	}
	for name := range before {
		if _, stillThere := after[name]; !stillThere {
			w.fire("unlink", name, nil)
		}
	}
}

func (w *watcher) fire(event, name string, info os.FileInfo) {
	var stat *vfs.Stat
	if info != nil {
		stat = statToMeta(name, info)
	}
	w.mu.Lock()
	handlers := append([]func(string, string, *vfs.Stat, []string){}, w.changed...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(event, name, stat, nil)
	}
}

func (w *watcher) OnChange(handler func(event, filename string, stat *vfs.Stat, files []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.changed = append(w.changed, handler)
}

func (w *watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	return nil
}
