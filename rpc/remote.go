// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/rpcchannel"
)

// remoteControl implements registry.RemoteStreamControl by sending
// the matching spec §4.5 per-stream command across the channel,
// letting a local registry.ProxyStream drive a stream the peer owns.
type remoteControl struct {
	ch *rpcchannel.Channel
}

var _ registry.RemoteStreamControl = (*remoteControl)(nil)

func (r *remoteControl) Write(id int, chunk []byte) bool {
	return r.ch.Send(rpcchannel.Message{Method: "write", Args: []any{id, chunk}})
}

func (r *remoteControl) End(id int, chunk []byte) {
	r.ch.Send(rpcchannel.Message{Method: "end", Args: []any{id, chunk}})
}

func (r *remoteControl) Destroy(id int) {
	r.ch.Send(rpcchannel.Message{Method: "destroy", Args: []any{id}})
}

func (r *remoteControl) Pause(id int) {
	r.ch.Send(rpcchannel.Message{Method: "pause", Args: []any{id}})
}

func (r *remoteControl) Resume(id int) {
	r.ch.Send(rpcchannel.Message{Method: "resume", Args: []any{id}})
}
