// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/relayfs/relayfs/vfs"
)

// fakeStream is a minimal vfs.Readable/Writable/Stream for tests.
type fakeStream struct {
	mu        sync.Mutex
	dataFn    func(chunk []byte) bool
	endFn     func()
	errFn     func(error)
	closeFns  []func()
	paused    bool
	resumed   int
	destroyed bool
	written   [][]byte
}

func (f *fakeStream) OnData(h func(chunk []byte) bool) { f.dataFn = h }
func (f *fakeStream) OnEnd(h func())                   { f.endFn = h }
func (f *fakeStream) OnError(h func(error))            { f.errFn = h }
func (f *fakeStream) OnClose(h func()) {
	f.mu.Lock()
	f.closeFns = append(f.closeFns, h)
	f.mu.Unlock()
}
func (f *fakeStream) Pause()  { f.paused = true }
func (f *fakeStream) Resume() { f.paused, f.resumed = false, f.resumed+1 }
func (f *fakeStream) Destroy() {
	f.destroyed = true
	f.mu.Lock()
	fns := append([]func(){}, f.closeFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
func (f *fakeStream) Write(chunk []byte) bool { f.written = append(f.written, chunk); return true }
func (f *fakeStream) End(chunk []byte)         {}

func (f *fakeStream) emitData(chunk []byte) bool { return f.dataFn(chunk) }
func (f *fakeStream) emitEnd()                   { f.endFn() }
func (f *fakeStream) emitClose() {
	f.mu.Lock()
	fns := append([]func(){}, f.closeFns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

var (
	_ vfs.Readable = (*fakeStream)(nil)
	_ vfs.Writable = (*fakeStream)(nil)
)

// fakePeer records every event delivered by the registry.
type fakePeer struct {
	mu       sync.Mutex
	accept   bool
	dataLog  []int
	endLog   []int
	closeLog []int
	errLog   []int
}

func newFakePeer() *fakePeer { return &fakePeer{accept: true} }

func (p *fakePeer) OnData(id int, chunk []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataLog = append(p.dataLog, id)
	return p.accept
}
func (p *fakePeer) OnEnd(id int, chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endLog = append(p.endLog, id)
}
func (p *fakePeer) OnClose(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLog = append(p.closeLog, id)
}
func (p *fakePeer) OnError(id int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errLog = append(p.errLog, id)
}
func (p *fakePeer) OnExit(pid, code int, signal string)        {}
func (p *fakePeer) OnProcessClose(pid, code int, signal string) {}
func (p *fakePeer) OnPtyKill(pid int)                           {}
func (p *fakePeer) OnChange(id int, event, filename string, stat *vfs.Stat, files []string) {}

func (p *fakePeer) closeCount(id int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.closeLog {
		if v == id {
			n++
		}
	}
	return n
}

func TestStoreStreamIdempotent(t *testing.T) {
	reg := New(newFakePeer(), nil)
	s := &fakeStream{}

	tok1 := reg.StoreStream(s)
	tok2 := reg.StoreStream(s)

	if tok1.ID != tok2.ID {
		t.Fatalf("storeStream not idempotent: got tokens %+v and %+v", tok1, tok2)
	}
}

func TestStreamUniqueIDs(t *testing.T) {
	reg := New(newFakePeer(), nil)
	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		tok := reg.StoreStream(&fakeStream{})
		if seen[tok.ID] {
			t.Fatalf("duplicate stream ID %d", tok.ID)
		}
		seen[tok.ID] = true
	}
}

func TestStreamBackpressure(t *testing.T) {
	peer := newFakePeer()
	peer.accept = false
	reg := New(peer, nil)
	s := &fakeStream{}
	reg.StoreStream(s)

	s.emitData([]byte("hello"))

	if !s.paused {
		t.Fatal("expected source to pause after peer rejected data")
	}
}

func TestStreamEndDeletesEntry(t *testing.T) {
	peer := newFakePeer()
	reg := New(peer, nil)
	s := &fakeStream{}
	tok := reg.StoreStream(s)

	s.emitEnd()

	if _, ok := reg.LookupStream(tok.ID); ok {
		t.Fatal("expected stream entry to be gone after OnEnd")
	}
	if len(peer.endLog) != 1 || peer.endLog[0] != tok.ID {
		t.Fatalf("expected one onEnd for id %d, got %v", tok.ID, peer.endLog)
	}
}

func TestStreamCloseIdempotentWithEnd(t *testing.T) {
	peer := newFakePeer()
	reg := New(peer, nil)
	s := &fakeStream{}
	tok := reg.StoreStream(s)

	s.emitEnd()
	s.emitClose()

	if _, ok := reg.LookupStream(tok.ID); ok {
		t.Fatal("expected stream entry to remain gone")
	}
	// onClose still fires even though the entry was already deleted by
	// onEnd — the peer always gets a close notification.
	if peer.closeCount(tok.ID) != 1 {
		t.Fatalf("expected exactly one onClose for id %d, got %d", tok.ID, peer.closeCount(tok.ID))
	}
}

func TestTeardownEmptiesRegistry(t *testing.T) {
	peer := newFakePeer()
	reg := New(peer, nil)

	reg.StoreStream(&fakeStream{})
	reg.StoreStream(&fakeStream{})

	reg.Teardown(errors.New("disconnect"))

	if !reg.Empty() {
		t.Fatalf("expected empty registry after teardown, got %+v", reg.Snapshot())
	}
}

func TestProxyStreamLifetimePolicy(t *testing.T) {
	reg := New(newFakePeer(), nil)
	remote := &fakeRemote{}
	proxy := NewProxyStream(reg, 7, true, true, remote)

	var endFired, closeFired bool
	proxy.OnEnd(func() { endFired = true })
	proxy.OnClose(func() { closeFired = true })

	proxy.DeliverEnd()
	if !endFired {
		t.Fatal("expected OnEnd handler to fire")
	}
	if _, ok := reg.proxies[7]; !ok {
		t.Fatal("expected proxy to remain registered after OnEnd per resolved lifetime policy")
	}

	proxy.DeliverClose()
	if !closeFired {
		t.Fatal("expected OnClose handler to fire")
	}
	if _, ok := reg.proxies[7]; ok {
		t.Fatal("expected proxy to be removed after OnClose")
	}
}

type fakeRemote struct {
	writes []string
}

func (r *fakeRemote) Write(id int, chunk []byte) bool { r.writes = append(r.writes, string(chunk)); return true }
func (r *fakeRemote) End(id int, chunk []byte)         {}
func (r *fakeRemote) Destroy(id int)                   {}
func (r *fakeRemote) Pause(id int)                     {}
func (r *fakeRemote) Resume(id int)                    {}
