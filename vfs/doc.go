// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs defines the contract relayfs consumes from the underlying
// virtual filesystem (spec §6.1): a set of path-addressed operations that
// may return scalar metadata, or a live resource (a byte stream, a child
// process, a PTY, a filesystem watcher, or a pluggable API) for the
// Handle Registry to mint a token around.
//
// The contract is modeled as synchronous Go calls returning (*Meta, error)
// rather than Node-style callback(err, meta) parameters: an operation that
// would stream results in the source instead returns immediately with a
// Meta whose Stream field is already live, and the caller subscribes to
// it. This mirrors how Go database/sql and net/http model "the call
// returns fast, the body streams after."
//
// [localvfs] provides a reference implementation backed by the local
// disk, os/exec, and a dedicated tmux server for PTYs — everything
// relayfs needs to exercise itself end to end without depending on a
// separate embedder-supplied VFS.
package vfs
