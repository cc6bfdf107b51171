// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpcchannel

// Message is the single envelope type carried over a Channel. Every
// RPC method invocation, event push, and callback reply from spec
// §4.5/§6.3 rides in one Message.
//
// A Message is either a one-way call (Call == 0) — used for fire-and-
// forget events like onData/onEnd/onClose/onExit, or commands like
// write/kill that have no return value of their own — or a
// correlated call (Call != 0) that expects exactly one Reply message
// bearing the same Call ID back.
type Message struct {
	// Method names the RPC method being invoked (spec §4.5's table)
	// or, on a reply, is left empty.
	Method string `cbor:"m,omitempty"`

	// Args carries the method's positional arguments.
	Args []any `cbor:"a,omitempty"`

	// Call is the correlation ID for request/reply pairing. Zero means
	// this message carries no callback expectation.
	Call uint64 `cbor:"c,omitempty"`

	// Reply marks this Message as the response to an earlier Call.
	Reply bool `cbor:"y,omitempty"`

	// Err carries a serialized VFS/RPC error for a Reply message. nil
	// on success.
	Err *ErrorEnvelope `cbor:"e,omitempty"`
}

// ErrorEnvelope is the serializable projection of an error sent
// across the RPC channel (spec §4.3, §7).
type ErrorEnvelope struct {
	// Stack is "<pid>: "+stack, the source's convention for giving the
	// peer a process-attributed error string.
	Stack string `cbor:"stack"`

	// Code is the VFS error code, when the error was classified.
	Code string `cbor:"code,omitempty"`

	// Message is the human-readable error text.
	Message string `cbor:"message,omitempty"`

	// Stdout and Stderr carry captured process output for spawn/
	// execFile/tmux command failures.
	Stdout string `cbor:"stdout,omitempty"`
	Stderr string `cbor:"stderr,omitempty"`
}
