// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"log/slog"
	"sync"

	"github.com/relayfs/relayfs/vfs"
)

// idSpace bounds every kind-scoped rolling ID allocator (spec §3
// Invariant 5): IDs cycle through 1..9999, skipping any still-occupied
// slot. Terminates in O(live count) because live resource counts per
// connection sit far below the ring size.
const idSpace = 10000

// PeerEvents is the sink a Registry pushes resource events through.
// The rpc package implements it on top of an rpcchannel.Channel,
// translating each call into the matching wire method from spec §6.3.
type PeerEvents interface {
	OnData(id int, chunk []byte) (accepted bool)
	OnEnd(id int, chunk []byte)
	OnClose(id int)
	OnError(id int, err error)
	OnExit(pid, code int, signal string)
	OnProcessClose(pid, code int, signal string)
	OnPtyKill(pid int)
	OnChange(id int, event, filename string, stat *vfs.Stat, files []string)
}

// RemoteStreamControl is implemented by the rpc package to let a
// ProxyStream forward local calls to the peer that owns the underlying
// stream (spec §4.2).
type RemoteStreamControl interface {
	Write(id int, chunk []byte) (accepted bool)
	End(id int, chunk []byte)
	Destroy(id int)
	Pause(id int)
	Resume(id int)
}

// Registry is the per-connection Handle Registry (spec §4.1).
type Registry struct {
	logger *slog.Logger
	peer   PeerEvents

	mu sync.Mutex

	streamCursor  int
	streams       map[int]*streamEntry
	streamReverse map[vfs.Stream]int

	processes      map[int]*processEntry
	processReverse map[vfs.Process]int

	ptyCursor  int
	ptys       map[int]*ptyEntry
	ptyReverse map[vfs.PTY]int

	watcherCursor  int
	watchers       map[int]*watcherEntry
	watcherReverse map[vfs.Watcher]int

	apis map[string]*apiEntry

	proxies map[int]*ProxyStream
}

type streamEntry struct {
	id     int
	stream vfs.Stream
	token  StreamToken
}

type processEntry struct {
	pid     int
	process vfs.Process
	token   ProcessToken
}

type ptyEntry struct {
	id    int
	pty   vfs.PTY
	token PtyToken
}

type watcherEntry struct {
	id      int
	watcher vfs.Watcher
	token   WatcherToken
}

type apiEntry struct {
	api   vfs.Api
	token ApiToken
}

// New constructs an empty Registry that reports resource events to
// peer. If logger is nil, slog.Default() is used.
func New(peer PeerEvents, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:         logger,
		peer:           peer,
		streams:        make(map[int]*streamEntry),
		streamReverse:  make(map[vfs.Stream]int),
		processes:      make(map[int]*processEntry),
		processReverse: make(map[vfs.Process]int),
		ptys:           make(map[int]*ptyEntry),
		ptyReverse:     make(map[vfs.PTY]int),
		watchers:       make(map[int]*watcherEntry),
		watcherReverse: make(map[vfs.Watcher]int),
		apis:           make(map[string]*apiEntry),
		proxies:        make(map[int]*ProxyStream),
	}
}

// allocStreamID returns the next free stream ID, skipping zero and
// any ID still occupied by a live local stream. Proxy IDs are not
// consulted: a proxy token's ID was minted by the peer's own stream
// cursor, not ours, and callers of allocStreamID only ever allocate
// for locally-owned streams.
func (r *Registry) allocStreamID() int {
	for {
		r.streamCursor = (r.streamCursor + 1) % idSpace
		if r.streamCursor == 0 {
			continue
		}
		if _, taken := r.streams[r.streamCursor]; !taken {
			return r.streamCursor
		}
	}
}

func (r *Registry) allocPtyID() int {
	for {
		r.ptyCursor = (r.ptyCursor + 1) % idSpace
		if r.ptyCursor == 0 {
			continue
		}
		if _, taken := r.ptys[r.ptyCursor]; !taken {
			return r.ptyCursor
		}
	}
}

func (r *Registry) allocWatcherID() int {
	for {
		r.watcherCursor = (r.watcherCursor + 1) % idSpace
		if r.watcherCursor == 0 {
			continue
		}
		if _, taken := r.watchers[r.watcherCursor]; !taken {
			return r.watcherCursor
		}
	}
}

// StoreStream mints (or returns the already-minted) token for s. Call
// idempotent for the same underlying stream (spec §4.1 "Idempotence").
func (r *Registry) StoreStream(s vfs.Stream) StreamToken {
	r.mu.Lock()
	if id, ok := r.streamReverse[s]; ok {
		token := r.streams[id].token
		r.mu.Unlock()
		return token
	}

	id := r.allocStreamID()
	readable, isReadable := s.(vfs.Readable)
	writable, isWritable := s.(vfs.Writable)
	token := StreamToken{ID: id, Readable: isReadable, Writable: isWritable}
	r.streams[id] = &streamEntry{id: id, stream: s, token: token}
	r.streamReverse[s] = id
	r.mu.Unlock()

	r.subscribeStream(id, s, readable, isReadable, writable, isWritable)
	return token
}

// subscribeStream wires the spec §4.1 stream subscriptions: data
// forwards to the peer and pauses the source on backpressure, end and
// close delete the registry entry (idempotently) and notify the peer,
// error notifies without deleting.
func (r *Registry) subscribeStream(id int, s vfs.Stream, readable vfs.Readable, isReadable bool, writable vfs.Writable, isWritable bool) {
	_ = writable
	_ = isWritable

	deleteEntry := func() (existed bool) {
		r.mu.Lock()
		_, existed = r.streams[id]
		delete(r.streams, id)
		delete(r.streamReverse, s)
		r.mu.Unlock()
		return existed
	}

	if isReadable {
		readable.OnData(func(chunk []byte) bool {
			accepted := r.peer.OnData(id, chunk)
			if !accepted {
				readable.Pause()
			}
			return accepted
		})
		readable.OnEnd(func() {
			if deleteEntry() {
				r.peer.OnEnd(id, nil)
			}
		})
		readable.OnError(func(err error) {
			r.peer.OnError(id, err)
		})
	}

	s.OnClose(func() {
		deleteEntry()
		r.peer.OnClose(id)
	})
}

// StoreProcess mints (or returns the already-minted) token for p,
// including tokens for whichever stdio streams it exposes.
func (r *Registry) StoreProcess(p vfs.Process) ProcessToken {
	r.mu.Lock()
	if pid, ok := r.processReverse[p]; ok {
		token := r.processes[pid].token
		r.mu.Unlock()
		return token
	}
	r.mu.Unlock()

	pid := p.PID()
	token := ProcessToken{PID: pid}
	var stdinID, stdoutID, stderrID int
	if stdin := p.Stdin(); stdin != nil {
		t := r.StoreStream(stdin)
		token.Stdin, stdinID = &t, t.ID
	}
	if stdout := p.Stdout(); stdout != nil {
		t := r.StoreStream(stdout)
		token.Stdout, stdoutID = &t, t.ID
	}
	if stderr := p.Stderr(); stderr != nil {
		t := r.StoreStream(stderr)
		token.Stderr, stderrID = &t, t.ID
	}

	r.mu.Lock()
	r.processes[pid] = &processEntry{pid: pid, process: p, token: token}
	r.processReverse[p] = pid
	r.mu.Unlock()

	p.OnExit(func(code int, signal string) {
		r.mu.Lock()
		delete(r.processes, pid)
		delete(r.processReverse, p)
		r.mu.Unlock()
		r.peer.OnExit(pid, code, signal)
	})
	p.OnClose(func(code int, signal string) {
		r.mu.Lock()
		delete(r.processes, pid)
		delete(r.processReverse, p)
		r.removeStreamLocked(stdinID)
		r.removeStreamLocked(stdoutID)
		r.removeStreamLocked(stderrID)
		r.mu.Unlock()
		r.peer.OnProcessClose(pid, code, signal)
	})

	return token
}

// removeStreamLocked drops a stream entry without sending any event —
// used when a process's stdio streams are torn down as a side effect
// of the process closing (spec §4.1's "close ... additionally delete
// its stdio stream entries"). Must be called with r.mu held.
func (r *Registry) removeStreamLocked(id int) {
	if id == 0 {
		return
	}
	if entry, ok := r.streams[id]; ok {
		delete(r.streamReverse, entry.stream)
	}
	delete(r.streams, id)
}

// StorePty mints (or returns the already-minted) token for a PTY
// handle, which carries both a process identity and a stream identity.
func (r *Registry) StorePty(p vfs.PTY) PtyToken {
	r.mu.Lock()
	if id, ok := r.ptyReverse[p]; ok {
		token := r.ptys[id].token
		r.mu.Unlock()
		return token
	}
	id := r.allocPtyID()
	token := PtyToken{PID: p.PID(), ID: id, Readable: true, Writable: true}
	r.ptys[id] = &ptyEntry{id: id, pty: p, token: token}
	r.ptyReverse[p] = id
	r.mu.Unlock()

	deleteEntry := func() (existed bool) {
		r.mu.Lock()
		_, existed = r.ptys[id]
		delete(r.ptys, id)
		delete(r.ptyReverse, p)
		r.mu.Unlock()
		return existed
	}

	p.OnData(func(chunk []byte) bool {
		accepted := r.peer.OnData(id, chunk)
		if !accepted {
			p.Pause()
		}
		return accepted
	})
	p.OnEnd(func() {
		if deleteEntry() {
			r.peer.OnEnd(id, nil)
		}
	})
	p.OnError(func(err error) {
		r.peer.OnError(id, err)
	})
	p.OnClose(func() {
		if deleteEntry() {
			r.peer.OnClose(id)
		}
	})
	p.OnKill(func() {
		r.peer.OnPtyKill(p.PID())
	})

	return token
}

// StoreWatcher mints (or returns the already-minted) token for w.
func (r *Registry) StoreWatcher(w vfs.Watcher) WatcherToken {
	r.mu.Lock()
	if id, ok := r.watcherReverse[w]; ok {
		token := r.watchers[id].token
		r.mu.Unlock()
		return token
	}
	id := r.allocWatcherID()
	token := WatcherToken{ID: id}
	r.watchers[id] = &watcherEntry{id: id, watcher: w, token: token}
	r.watcherReverse[w] = id
	r.mu.Unlock()

	w.OnChange(func(event, filename string, stat *vfs.Stat, files []string) {
		r.peer.OnChange(id, event, filename, stat, files)
	})

	return token
}

// StoreApi mints (or returns the already-minted) token for a.
func (r *Registry) StoreApi(a vfs.Api) ApiToken {
	name := a.Name()
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.apis[name]; ok {
		return entry.token
	}
	token := ApiToken{Name: name, Names: a.Names()}
	r.apis[name] = &apiEntry{api: a, token: token}
	return token
}

// LookupStream returns the live stream registered under id, if any.
func (r *Registry) LookupStream(id int) (vfs.Stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.streams[id]
	if !ok {
		return nil, false
	}
	return entry.stream, true
}

// LookupProcess returns the live process registered under pid, if any.
func (r *Registry) LookupProcess(pid int) (vfs.Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.processes[pid]
	if !ok {
		return nil, false
	}
	return entry.process, true
}

// LookupPty returns the live PTY registered under id, if any.
func (r *Registry) LookupPty(id int) (vfs.PTY, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.ptys[id]
	if !ok {
		return nil, false
	}
	return entry.pty, true
}

// LookupWatcher returns the live watcher registered under id, if any.
func (r *Registry) LookupWatcher(id int) (vfs.Watcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.watchers[id]
	if !ok {
		return nil, false
	}
	return entry.watcher, true
}

// LookupApi returns the registered Api named name, if any.
func (r *Registry) LookupApi(name string) (vfs.Api, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.apis[name]
	if !ok {
		return nil, false
	}
	return entry.api, true
}

// RemoveWatcher drops a watcher entry after the peer (or local code)
// has already closed the underlying subscription. Unlike streams and
// PTYs, Watcher carries no OnClose hook of its own (spec §3), so the
// RPC dispatcher's close(id) handler removes the entry explicitly.
func (r *Registry) RemoveWatcher(id int) {
	r.mu.Lock()
	if entry, ok := r.watchers[id]; ok {
		delete(r.watcherReverse, entry.watcher)
	}
	delete(r.watchers, id)
	r.mu.Unlock()
}

// LookupProxy returns the proxy stream registered under id, if any.
func (r *Registry) LookupProxy(id int) (*ProxyStream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proxies[id]
	return p, ok
}

// RegisterProxy records a ProxyStream under its token ID so
// Teardown can close it on disconnect. Called by the rpc package once
// it constructs a ProxyStream from a received token.
func (r *Registry) RegisterProxy(proxy *ProxyStream) {
	r.mu.Lock()
	r.proxies[proxy.id] = proxy
	r.mu.Unlock()
}

// RemoveProxy drops a proxy from the registry. Called by ProxyStream
// itself once its policy decides the proxy's lifetime has ended.
func (r *Registry) RemoveProxy(id int) {
	r.mu.Lock()
	delete(r.proxies, id)
	r.mu.Unlock()
}

// ResumeAllReadable resumes every local readable stream and PTY —
// the Flow Controller's response to the channel's drain signal
// (spec §4.4: "on the channel's drain signal, every registered local
// readable stream with a resume capability is resumed").
func (r *Registry) ResumeAllReadable() {
	r.mu.Lock()
	streams := make([]vfs.Stream, 0, len(r.streams))
	for _, entry := range r.streams {
		streams = append(streams, entry.stream)
	}
	ptys := make([]vfs.PTY, 0, len(r.ptys))
	for _, entry := range r.ptys {
		ptys = append(ptys, entry.pty)
	}
	r.mu.Unlock()

	for _, s := range streams {
		if readable, ok := s.(vfs.Readable); ok {
			readable.Resume()
		}
	}
	for _, p := range ptys {
		p.Resume()
	}
}

// DrainProxies fires the drain callback on every live proxy stream —
// the other half of spec §4.4's drain rule ("every proxy writable
// stream emits its own drain to unblock local writers").
func (r *Registry) DrainProxies() {
	r.mu.Lock()
	proxies := make([]*ProxyStream, 0, len(r.proxies))
	for _, p := range r.proxies {
		proxies = append(proxies, p)
	}
	r.mu.Unlock()

	for _, p := range proxies {
		p.DeliverDrain()
	}
}

// Snapshot reports the current live handle counts, for diagnostics
// and the invariant tests in §8 ("no leaks").
type Snapshot struct {
	Streams   int
	Processes int
	Ptys      int
	Watchers  int
	Apis      int
	Proxies   int
}

// Snapshot returns a point-in-time count of every live handle kind.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Streams:   len(r.streams),
		Processes: len(r.processes),
		Ptys:      len(r.ptys),
		Watchers:  len(r.watchers),
		Apis:      len(r.apis),
		Proxies:   len(r.proxies),
	}
}

// Empty reports whether every handle kind is unoccupied, the
// postcondition disconnect teardown must establish (spec §8 Invariant 1).
func (r *Registry) Empty() bool {
	s := r.Snapshot()
	return s.Streams == 0 && s.Processes == 0 && s.Ptys == 0 && s.Watchers == 0 && s.Proxies == 0
}

// Teardown runs the disconnect cleanup sequence from spec §4.1: kill
// every non-unreffed process (dropping its entry), then close every
// local stream, then every proxy stream, then every watcher. APIs are
// dropped silently. cause is synthesized as vfs.ErrDisconnect by the
// caller when the underlying transport gives no more specific error.
func (r *Registry) Teardown(cause error) {
	r.mu.Lock()
	processes := make([]*processEntry, 0, len(r.processes))
	for _, entry := range r.processes {
		processes = append(processes, entry)
	}
	streams := make([]*streamEntry, 0, len(r.streams))
	for _, entry := range r.streams {
		streams = append(streams, entry)
	}
	proxies := make([]*ProxyStream, 0, len(r.proxies))
	for _, p := range r.proxies {
		proxies = append(proxies, p)
	}
	watchers := make([]*watcherEntry, 0, len(r.watchers))
	for _, entry := range r.watchers {
		watchers = append(watchers, entry)
	}
	ptys := make([]*ptyEntry, 0, len(r.ptys))
	for _, entry := range r.ptys {
		ptys = append(ptys, entry)
	}
	r.apis = make(map[string]*apiEntry)
	r.mu.Unlock()

	for _, entry := range processes {
		if u, ok := entry.process.(unreffed); ok && u.Unrefed() {
			continue
		}
		if err := entry.process.Kill("SIGKILL"); err != nil {
			r.logger.Debug("teardown: kill failed", "pid", entry.pid, "error", err)
		}
		r.mu.Lock()
		delete(r.processes, entry.pid)
		delete(r.processReverse, entry.process)
		r.mu.Unlock()
	}

	// PTYs are process-like (they carry a PID) and are killed in the
	// same pass as plain processes, before any stream teardown.
	for _, entry := range ptys {
		entry.pty.Destroy()
		r.mu.Lock()
		delete(r.ptys, entry.id)
		delete(r.ptyReverse, entry.pty)
		r.mu.Unlock()
	}

	for _, entry := range streams {
		r.peer.OnError(entry.id, cause)
		if readable, ok := entry.stream.(vfs.Readable); ok {
			// Destroy synchronously fires the OnClose subscription
			// installed by subscribeStream, which deletes the entry
			// and notifies the peer exactly once (the existed check
			// below then finds the entry gone, suppressing a
			// duplicate notification).
			readable.Destroy()
		}
		r.mu.Lock()
		_, existed := r.streams[entry.id]
		delete(r.streams, entry.id)
		delete(r.streamReverse, entry.stream)
		r.mu.Unlock()
		if existed {
			r.peer.OnClose(entry.id)
		}
	}

	for _, proxy := range proxies {
		proxy.teardown()
		r.RemoveProxy(proxy.id)
	}

	for _, entry := range watchers {
		if err := entry.watcher.Close(); err != nil {
			r.logger.Debug("teardown: watcher close failed", "id", entry.id, "error", err)
		}
		r.mu.Lock()
		delete(r.watchers, entry.id)
		delete(r.watcherReverse, entry.watcher)
		r.mu.Unlock()
	}
}

// unreffed is implemented by vfs.Process implementations that track
// whether Unref was called, letting Teardown skip killing them.
type unreffed interface {
	Unrefed() bool
}
