// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge provides a TCP-to-Unix socket forwarder for relayfs
// deployments that need a TCP front door.
//
// relayfsd itself listens on TCP. When a relayfs server is reachable only
// through a Unix socket and an embedder can only reach a TCP port (a
// sandboxed process with its own network namespace, or a client on another
// host reaching through a port-forward), this package listens on a TCP port
// bound to 127.0.0.1 and forwards every accepted connection to that Unix
// socket.
//
// This allows embedders to use standard HTTP client libraries with a
// localhost base URL:
//
//	RELAYFS_BASE_URL=http://127.0.0.1:8642/fs/
//
// [Bridge] is the single type. Start validates that the target Unix socket
// is reachable, binds the TCP listener, and begins accepting connections in
// a background goroutine. Each connection is forwarded with bidirectional
// copy and half-close support (TCP FIN propagates as Unix socket shutdown
// and vice versa). Stop gracefully shuts down the listener; Wait blocks
// until all forwarded connections have drained. Addr returns the bound
// address, which may use an ephemeral port if port 0 was requested.
package bridge
