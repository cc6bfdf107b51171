// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpcchannel implements the concrete framed transport that
// spec.md §1 lists as an external collaborator ("the wire codec /
// framed transport beneath the RPC channel ... assumed: reliable,
// ordered, message-oriented, with a drain event").
//
// A Channel carries one CBOR-encoded Message per WebSocket frame over
// a net.Conn supplied by the transport package's Listener. Its
// bounded outbound queue is the concrete stand-in for "peer's onData
// return value is false" / "local write call returning not
// accepting": Send reports false once the queue is full, and the
// channel fires its Drain callbacks exactly once per crossing back
// below half capacity.
package rpcchannel
