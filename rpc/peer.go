// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"encoding/json"

	"github.com/pierrec/lz4/v4"

	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/rpcchannel"
	"github.com/relayfs/relayfs/vfs"
)

// peerBridge implements registry.PeerEvents by pushing each resource
// event across an rpcchannel.Channel as a one-way (Call == 0) Message,
// using the peer-side event names from spec §6.3.
type peerBridge struct {
	ch *rpcchannel.Channel

	// watcherCompressionThreshold is the byte size above which
	// OnChange's files[] listing is lz4-compressed before being sent
	// (lib/config.RegistryConfig.WatcherPayloadCompressionThreshold).
	// Zero disables compression.
	watcherCompressionThreshold int
}

// compressedFiles is the wire shape OnChange sends instead of a plain
// files[] array once the listing crosses watcherCompressionThreshold:
// Lz4 is the lz4 block-compressed JSON encoding of the original
// string slice, and Size is its uncompressed length (lz4's block
// format needs it to size the decompression buffer).
type compressedFiles struct {
	Lz4  []byte `cbor:"lz4"`
	Size int    `cbor:"size"`
}

var _ registry.PeerEvents = (*peerBridge)(nil)

// OnData forwards a data chunk. Its bool return is the local
// backpressure signal the Flow Controller's other half relies on
// (spec §4.4): false means the channel's outbound queue is full, so
// the registry pauses the source stream.
func (b *peerBridge) OnData(id int, chunk []byte) bool {
	return b.ch.Send(rpcchannel.Message{Method: "onData", Args: []any{id, chunk}})
}

func (b *peerBridge) OnEnd(id int, chunk []byte) {
	b.ch.Send(rpcchannel.Message{Method: "onEnd", Args: []any{id, chunk}})
}

func (b *peerBridge) OnClose(id int) {
	b.ch.Send(rpcchannel.Message{Method: "onClose", Args: []any{id}})
}

func (b *peerBridge) OnError(id int, err error) {
	b.ch.Send(rpcchannel.Message{Method: "onError", Args: []any{id}, Err: BuildErrorEnvelope(id, err)})
}

func (b *peerBridge) OnExit(pid, code int, signal string) {
	b.ch.Send(rpcchannel.Message{Method: "onExit", Args: []any{pid, code, signal}})
}

func (b *peerBridge) OnProcessClose(pid, code int, signal string) {
	b.ch.Send(rpcchannel.Message{Method: "onProcessClose", Args: []any{pid, code, signal}})
}

func (b *peerBridge) OnPtyKill(pid int) {
	b.ch.Send(rpcchannel.Message{Method: "onPtyKill", Args: []any{pid}})
}

func (b *peerBridge) OnChange(id int, event, filename string, stat *vfs.Stat, files []string) {
	var payload any = files
	if compressed, ok := b.compressFiles(files); ok {
		payload = compressed
	}
	b.ch.Send(rpcchannel.Message{Method: "onChange", Args: []any{id, event, filename, stat, payload}})
}

// compressFiles lz4-compresses files' JSON encoding when it crosses
// watcherCompressionThreshold, following the teacher's compress.go
// lz4 block API (CompressBlockBound sizes the destination, a zero-
// length result from CompressBlock means the data was incompressible
// and the caller should fall back to the uncompressed form).
func (b *peerBridge) compressFiles(files []string) (compressedFiles, bool) {
	if b.watcherCompressionThreshold <= 0 || len(files) == 0 {
		return compressedFiles{}, false
	}

	encoded, err := json.Marshal(files)
	if err != nil || len(encoded) < b.watcherCompressionThreshold {
		return compressedFiles{}, false
	}

	dst := make([]byte, lz4.CompressBlockBound(len(encoded)))
	n, err := lz4.CompressBlock(encoded, dst, nil)
	if err != nil || n == 0 || n >= len(encoded) {
		return compressedFiles{}, false
	}

	return compressedFiles{Lz4: dst[:n], Size: len(encoded)}, true
}

// emitEvent sends the onEvent(name, value) notification a subscribe
// forwarder (spec §4.5's Events handlers) pushes for a VFS-level
// event the peer subscribed to.
func (b *peerBridge) emitEvent(name string, args []any) {
	b.ch.Send(rpcchannel.Message{Method: "onEvent", Args: append([]any{name}, args...)})
}
