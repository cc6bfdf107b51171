// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/relayfs/relayfs/vfs"
)

// pausable is localvfs's copy of the pause/resume gate procspawn's
// stream adapters use: a reader loop blocks on wake while paused, and
// Resume wakes it by closing (and replacing) the channel.
type pausable struct {
	mu     sync.Mutex
	paused bool
	wake   chan struct{}
}

func newPausable() pausable { return pausable{wake: make(chan struct{})} }

func (p *pausable) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.wake = make(chan struct{})
}

func (p *pausable) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return
	}
	p.paused = false
	close(p.wake)
}

func (p *pausable) gate() {
	p.mu.Lock()
	wake, paused := p.wake, p.paused
	p.mu.Unlock()
	if paused {
		<-wake
	}
}

// fileReadable streams an *os.File's content through vfs.Readable. It
// backs ReadFile.
type fileReadable struct {
	pausable

	file io.ReadCloser

	mu        sync.Mutex
	data      []func([]byte) bool
	end       []func()
	errored   []func(error)
	closed    []func()
	destroyed bool
}

func newFileReadable(file io.ReadCloser) *fileReadable {
	r := &fileReadable{file: file}
	r.pausable = newPausable()
	go r.loop()
	return r
}

func (r *fileReadable) loop() {
	buf := make([]byte, 64*1024)
	for {
		r.gate()
		n, err := r.file.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if !r.deliver(chunk) {
				r.Pause()
			}
		}
		if err != nil {
			r.mu.Lock()
			destroyed := r.destroyed
			r.mu.Unlock()
			if destroyed {
				return
			}
			if err == io.EOF {
				r.fire(&r.end)
			} else {
				r.fireErr(err)
			}
			r.file.Close()
			r.fire(&r.closed)
			return
		}
	}
}

func (r *fileReadable) deliver(chunk []byte) bool {
	r.mu.Lock()
	handlers := append([]func([]byte) bool{}, r.data...)
	r.mu.Unlock()
	ok := true
	for _, h := range handlers {
		if !h(chunk) {
			ok = false
		}
	}
	return ok
}

func (r *fileReadable) fire(list *[]func()) {
	r.mu.Lock()
	handlers := append([]func(){}, (*list)...)
	r.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (r *fileReadable) fireErr(err error) {
	r.mu.Lock()
	handlers := append([]func(error){}, r.errored...)
	r.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

func (r *fileReadable) OnData(h func(chunk []byte) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, h)
}
func (r *fileReadable) OnEnd(h func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.end = append(r.end, h)
}
func (r *fileReadable) OnError(h func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errored = append(r.errored, h)
}
func (r *fileReadable) OnClose(h func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, h)
}
func (r *fileReadable) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
	r.file.Close()
	r.fire(&r.closed)
}

// fileWritable backs MkFile/AppendFile when the caller wants to drive
// the write itself (no StreamInput supplied).
type fileWritable struct {
	mu     sync.Mutex
	file   *os.File
	closed []func()
}

func newFileWritable(file *os.File) *fileWritable {
	return &fileWritable{file: file}
}

func (w *fileWritable) Write(chunk []byte) bool {
	_, err := w.file.Write(chunk)
	return err == nil
}

func (w *fileWritable) End(chunk []byte) {
	if len(chunk) > 0 {
		w.file.Write(chunk)
	}
	w.file.Close()
	w.mu.Lock()
	handlers := append([]func(){}, w.closed...)
	w.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (w *fileWritable) OnClose(h func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = append(w.closed, h)
}

// dirObjectStream implements vfs.Readable + vfs.ObjectSource over a
// slice of already-collected *vfs.Stat entries, for ReadDir's
// Encoding=="null" object-stream mode (spec §4.6).
type dirObjectStream struct {
	entries []*vfs.Stat

	mu      sync.Mutex
	objFn   []func(any) bool
	end     []func()
	closed  []func()
	started bool
}

func newDirObjectStream(entries []*vfs.Stat) *dirObjectStream {
	return &dirObjectStream{entries: entries}
}

func (s *dirObjectStream) start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		for _, entry := range s.entries {
			s.mu.Lock()
			handlers := append([]func(any) bool{}, s.objFn...)
			s.mu.Unlock()
			for _, h := range handlers {
				h(entry)
			}
		}
		s.mu.Lock()
		end := append([]func(){}, s.end...)
		closed := append([]func(){}, s.closed...)
		s.mu.Unlock()
		for _, h := range end {
			h()
		}
		for _, h := range closed {
			h()
		}
	}()
}

func (s *dirObjectStream) OnObject(h func(entry any) bool) {
	s.mu.Lock()
	s.objFn = append(s.objFn, h)
	s.mu.Unlock()
	s.start()
}
func (s *dirObjectStream) OnData(h func(chunk []byte) bool) {}
func (s *dirObjectStream) OnEnd(h func()) {
	s.mu.Lock()
	s.end = append(s.end, h)
	s.mu.Unlock()
	s.start()
}
func (s *dirObjectStream) OnError(h func(err error)) {}
func (s *dirObjectStream) OnClose(h func()) {
	s.mu.Lock()
	s.closed = append(s.closed, h)
	s.mu.Unlock()
}
func (s *dirObjectStream) Pause()    {}
func (s *dirObjectStream) Resume()   {}
func (s *dirObjectStream) Destroy()  {}

// dirJSONStream implements vfs.Readable by delivering a single
// pre-encoded JSON body, for ReadDir's default (non-"null") encoding.
type dirJSONStream struct {
	body []byte

	mu   sync.Mutex
	data []func([]byte) bool
	end  []func()
}

func newDirJSONStream(entries []*vfs.Stat) (*dirJSONStream, error) {
	body, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return &dirJSONStream{body: body}, nil
}

func (s *dirJSONStream) OnData(h func(chunk []byte) bool) {
	s.mu.Lock()
	s.data = append(s.data, h)
	s.mu.Unlock()
	go func() {
		for _, h := range s.data {
			h(s.body)
		}
		for _, h := range s.end {
			h()
		}
	}()
}
func (s *dirJSONStream) OnEnd(h func()) {
	s.mu.Lock()
	s.end = append(s.end, h)
	s.mu.Unlock()
}
func (s *dirJSONStream) OnError(h func(err error)) {}
func (s *dirJSONStream) OnClose(h func())          {}
func (s *dirJSONStream) Pause()                    {}
func (s *dirJSONStream) Resume()                   {}
func (s *dirJSONStream) Destroy()                  {}
