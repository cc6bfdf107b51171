// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

// StreamToken is the serializable projection of a stream Handle (spec §3).
type StreamToken struct {
	ID       int  `cbor:"id"`
	Readable bool `cbor:"readable,omitempty"`
	Writable bool `cbor:"writable,omitempty"`
}

// ProcessToken is the serializable projection of a process Handle.
// Each stdio slot is nil when the process was spawned without it.
type ProcessToken struct {
	PID    int          `cbor:"pid"`
	Stdin  *StreamToken `cbor:"stdin,omitempty"`
	Stdout *StreamToken `cbor:"stdout,omitempty"`
	Stderr *StreamToken `cbor:"stderr,omitempty"`
}

// PtyToken merges a process and a stream identity into one token
// (spec §3: "a PTY handle is a process and a stream sharing one token").
type PtyToken struct {
	PID      int  `cbor:"pid"`
	ID       int  `cbor:"id"`
	Readable bool `cbor:"readable,omitempty"`
	Writable bool `cbor:"writable,omitempty"`
}

// WatcherToken is the serializable projection of a watcher Handle.
type WatcherToken struct {
	ID int `cbor:"id"`
}

// ApiToken is the serializable projection of an Api Handle.
type ApiToken struct {
	Name  string   `cbor:"name"`
	Names []string `cbor:"names"`
}
