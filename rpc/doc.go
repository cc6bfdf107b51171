// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpc implements the RPC Dispatcher, Callback Marshaller, and
// Flow Controller (spec §4.3, §4.4, §4.5) on top of an
// rpcchannel.Channel and a registry.Registry. One Dispatcher serves
// exactly one connection; its Run method is the connection's event
// loop and must not be called from more than one goroutine at a time,
// matching the single-threaded cooperative scheduling model (spec §5).
package rpc
