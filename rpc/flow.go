// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/rpcchannel"
)

// WireFlowController installs the Flow Controller (spec §4.4) on ch:
// when the channel's outbound queue drains back below half capacity,
// every local readable stream/PTY registered in reg is resumed, and
// every proxy stream fires its own drain to unblock local writers
// that had backed off on a false Write.
//
// The other half of backpressure — pausing a local source when the
// peer's onData delivery is rejected — is wired directly into
// registry.Registry.subscribeStream/StorePty, since it has no
// dependency on the channel beyond the PeerEvents.OnData return value
// peerBridge already supplies.
func WireFlowController(reg *registry.Registry, ch *rpcchannel.Channel) {
	ch.OnDrain(func() {
		reg.ResumeAllReadable()
		reg.DrainProxies()
	})
}
