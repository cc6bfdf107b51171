// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides relayfs's standard CBOR encoding configuration.
//
// relayfs uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the HTTP gateway's directory
//     listings, PROPFIND bodies, and error envelopes, plus CLI output.
//   - CBOR for internal protocols: the RPC channel's framed messages
//     (method calls, events, callback results) and any on-disk state.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every relayfs package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes — load-bearing for the RPC channel, where a Meta value
// re-encoded after marshalling should not change shape.
//
// For buffer-oriented operations (single messages, tokens):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the RPC channel's framed connection):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or interact with CLI tooling.
//     Examples: rpcchannel frame envelopes, registry tokens.
//   - `json` tag: this type may be serialized as BOTH JSON and CBOR.
//     fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
//     tags are absent, so a single `json` tag controls field naming
//     and omitempty for both formats. Examples: the HTTP gateway's
//     directory-listing entries and PROPFIND bodies.
//
// Never use both `cbor` and `json` tags on the same field. The tag
// choice documents the contract — doubling up is noise that obscures
// whether a type participates in JSON serialization.
package codec
