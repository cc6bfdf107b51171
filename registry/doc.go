// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the Handle Registry and Stream Proxy
// (spec §4.1, §4.2): the per-connection bookkeeping that lets streams,
// processes, PTYs, watchers, and pluggable APIs cross the RPC channel
// as small serializable tokens instead of live references.
//
// A Registry owns exactly one connection's worth of state. It is not
// safe for concurrent use by more than one goroutine at a time — spec
// §5 requires the RPC worker to serialize all activity on a connection,
// and the registry relies on that guarantee rather than enforcing its
// own locking discipline beyond what's needed to protect against the
// resource event handlers it installs, which fire from arbitrary
// goroutines owned by the underlying vfs.FS implementation.
package registry
