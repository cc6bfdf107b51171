// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the peer-to-peer connection that carries
// relayfs's RPC channel between an embedder and a bridge instance.
//
// The package defines two interfaces: [Listener] accepts inbound
// connections from peers (Serve, Address, Close), and [Dialer]
// establishes outbound connections to a remote peer (DialContext). A
// relayfs bridge uses a Listener to accept RPC channel connections; an
// embedder uses a Dialer to open one. The RPC dispatcher and HTTP
// gateway never interact with transport directly; they see the
// net/http request handed to them after the connection is accepted.
//
// spec.md §1 treats the framed transport beneath the RPC channel as an
// external collaborator, referenced only by contract: reliable,
// ordered, message-oriented, with a drain event. [TCPListener] and
// [TCPDialer] satisfy that contract with a plain TCP listener — direct
// reachability between peers, no NAT traversal or signaling plane. The
// message framing and drain semantics the contract actually cares
// about live one layer up, in rpcchannel's WebSocket upgrade over
// whatever net.Conn a Listener hands it.
//
// [HTTPTransport] wraps a Dialer as an http.RoundTripper, letting the
// HTTP gateway's client-facing handlers reuse the same Dialer the RPC
// channel uses to reach a peer.
package transport
