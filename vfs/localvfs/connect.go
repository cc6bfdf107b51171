// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"net"
	"sync"

	"github.com/relayfs/relayfs/vfs"
)

// Connect dials the Unix socket at path and returns it as a
// bidirectional vfs.Stream. It is the VFS-layer half of spec §6.1's
// "arbitrary endpoint" contract — localvfs only knows about Unix
// sockets rooted under Root.
func (fs *FS) Connect(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	conn, err := net.Dial("unix", fs.resolve(path))
	if err != nil {
		return nil, wrapIOError(err)
	}
	return &vfs.Meta{Stream: newConnStream(conn)}, nil
}

// connStream adapts a net.Conn to the combined Readable+Writable
// surface a Connect result exposes. Pause and Resume are no-ops and
// the OnData handlers' return values are ignored: chunks are delivered
// as soon as they are read.
type connStream struct {
	conn net.Conn

	mu      sync.Mutex
	data    []func([]byte) bool
	end     []func()
	errored []func(error)
	closed  []func()
}

func newConnStream(conn net.Conn) *connStream {
	s := &connStream{conn: conn}
	go s.loop()
	return s
}

func (s *connStream) loop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.mu.Lock()
			handlers := append([]func([]byte) bool{}, s.data...)
			s.mu.Unlock()
			for _, h := range handlers {
				h(chunk)
			}
		}
		if err != nil {
			s.mu.Lock()
			ended, errored := append([]func(){}, s.end...), append([]func(error){}, s.errored...)
			closed := append([]func(){}, s.closed...)
			s.mu.Unlock()
			for _, h := range ended {
				h()
			}
			for _, h := range errored {
				h(err)
			}
			for _, h := range closed {
				h()
			}
			return
		}
	}
}

func (s *connStream) OnData(h func(chunk []byte) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, h)
}
func (s *connStream) OnEnd(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = append(s.end, h)
}
func (s *connStream) OnError(h func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errored = append(s.errored, h)
}
func (s *connStream) OnClose(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, h)
}
func (s *connStream) Pause()  {}
func (s *connStream) Resume() {}
func (s *connStream) Destroy() {
	s.conn.Close()
}

func (s *connStream) Write(chunk []byte) bool {
	_, err := s.conn.Write(chunk)
	return err == nil
}
func (s *connStream) End(chunk []byte) {
	if len(chunk) > 0 {
		s.conn.Write(chunk)
	}
	s.conn.Close()
}
