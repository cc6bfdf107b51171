// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"slices"
	"sync"
)

// ProxyStream is a peer-side local stand-in for a stream the peer
// owns (spec §4.2). It presents the local consumer with something
// that looks like a live stream but forwards every operation across
// the RPC channel via a RemoteStreamControl.
//
// Lifetime policy (spec §9 Open Question, resolved in SPEC_FULL.md):
// a ProxyStream is removed from the registry on the first OnClose it
// receives from the peer. OnEnd is delivered to local listeners as a
// plain terminal-read event and never touches the registry entry —
// a proxy that's still writable (or that the peer keeps emitting
// OnError on) stays addressable until the peer also closes it.
type ProxyStream struct {
	id       int
	readable bool
	writable bool
	remote   RemoteStreamControl
	registry *Registry

	mu        sync.Mutex
	dataFns   []func(chunk []byte) bool
	endFns    []func()
	closeFns  []func()
	errorFns  []func(error)
	drainFns  []func()
	destroyed bool
}

// NewProxyStream constructs a ProxyStream from a received stream
// Token, registers it with reg, and returns it. The caller (the rpc
// package's dispatcher) owns wiring the registry's inbound onData/
// onEnd/onClose/onError dispatch to the returned proxy's Deliver*
// methods.
func NewProxyStream(reg *Registry, id int, readable, writable bool, remote RemoteStreamControl) *ProxyStream {
	p := &ProxyStream{
		id:       id,
		readable: readable,
		writable: writable,
		remote:   remote,
		registry: reg,
	}
	reg.RegisterProxy(p)
	return p
}

// ID returns the token ID this proxy stands in for.
func (p *ProxyStream) ID() int { return p.id }

// Readable reports whether the originating token declared this
// stream readable.
func (p *ProxyStream) Readable() bool { return p.readable }

// Writable reports whether the originating token declared this
// stream writable.
func (p *ProxyStream) Writable() bool { return p.writable }

// Write forwards a write to the remote stream. Only valid when the
// token reported Writable.
func (p *ProxyStream) Write(chunk []byte) bool {
	return p.remote.Write(p.id, chunk)
}

// End forwards an end-of-write signal to the remote stream.
func (p *ProxyStream) End(chunk []byte) {
	p.remote.End(p.id, chunk)
}

// Destroy forwards a destroy request to the remote stream. Only
// valid when the token reported Readable.
func (p *ProxyStream) Destroy() {
	p.remote.Destroy(p.id)
}

// Pause forwards a pause request to the remote stream.
func (p *ProxyStream) Pause() {
	p.remote.Pause(p.id)
}

// Resume forwards a resume request to the remote stream.
func (p *ProxyStream) Resume() {
	p.remote.Resume(p.id)
}

// OnData registers a local handler for peer-delivered data chunks.
func (p *ProxyStream) OnData(handler func(chunk []byte) bool) {
	p.mu.Lock()
	p.dataFns = append(p.dataFns, handler)
	p.mu.Unlock()
}

// OnEnd registers a local handler fired when the peer signals end.
// Per the resolved lifetime policy, this does not remove the proxy
// from the registry.
func (p *ProxyStream) OnEnd(handler func()) {
	p.mu.Lock()
	p.endFns = append(p.endFns, handler)
	p.mu.Unlock()
}

// OnClose registers a local handler fired when the peer signals
// close. After delivery, the proxy removes itself from the registry.
func (p *ProxyStream) OnClose(handler func()) {
	p.mu.Lock()
	p.closeFns = append(p.closeFns, handler)
	p.mu.Unlock()
}

// OnError registers a local handler fired when the peer reports a
// read error on the remote stream.
func (p *ProxyStream) OnError(handler func(error)) {
	p.mu.Lock()
	p.errorFns = append(p.errorFns, handler)
	p.mu.Unlock()
}

// OnDrain registers a local handler fired when the channel signals
// it can accept writes again, unblocking a writer that received
// false from Write (spec §4.4).
func (p *ProxyStream) OnDrain(handler func()) {
	p.mu.Lock()
	p.drainFns = append(p.drainFns, handler)
	p.mu.Unlock()
}

// DeliverData is called by the dispatcher when the peer sends
// onData(id, chunk) for this proxy's ID.
func (p *ProxyStream) DeliverData(chunk []byte) (accepted bool) {
	p.mu.Lock()
	fns := slices.Clone(p.dataFns)
	p.mu.Unlock()
	accepted = true
	for _, fn := range fns {
		if !fn(chunk) {
			accepted = false
		}
	}
	return accepted
}

// DeliverEnd is called by the dispatcher when the peer sends
// onEnd(id, chunk) for this proxy's ID.
func (p *ProxyStream) DeliverEnd() {
	p.mu.Lock()
	fns := slices.Clone(p.endFns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// DeliverClose is called by the dispatcher when the peer sends
// onClose(id) for this proxy's ID. Removes the proxy from the
// registry after notifying local listeners.
func (p *ProxyStream) DeliverClose() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	fns := slices.Clone(p.closeFns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	p.registry.RemoveProxy(p.id)
}

// DeliverError is called by the dispatcher when the peer sends
// onError(id, err) for this proxy's ID.
func (p *ProxyStream) DeliverError(err error) {
	p.mu.Lock()
	fns := slices.Clone(p.errorFns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// DeliverDrain is called by the Flow Controller when the channel
// emits its drain signal (spec §4.4: "every proxy writable stream
// emits its own drain to unblock local writers").
func (p *ProxyStream) DeliverDrain() {
	p.mu.Lock()
	fns := slices.Clone(p.drainFns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// teardown is invoked by Registry.Teardown on channel disconnect: it
// synthesizes a close for every still-live proxy without attempting
// any further remote calls (the channel is already gone).
func (p *ProxyStream) teardown() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	fns := slices.Clone(p.closeFns)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
