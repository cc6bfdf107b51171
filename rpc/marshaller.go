// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"errors"
	"fmt"

	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/rpcchannel"
	"github.com/relayfs/relayfs/vfs"
)

// ProjectMeta implements the Callback Marshaller's step 2 (spec
// §4.3): it walks meta's resource-carrying fields, substitutes each
// for the matching store* token, and passes every scalar field
// through unchanged. A nil meta projects to nil.
func ProjectMeta(reg *registry.Registry, meta *vfs.Meta) map[string]any {
	if meta == nil {
		return nil
	}

	out := make(map[string]any)
	if meta.Stream != nil {
		out["stream"] = reg.StoreStream(meta.Stream)
	}
	if meta.Process != nil {
		out["process"] = reg.StoreProcess(meta.Process)
	}
	if meta.Pty != nil {
		out["pty"] = reg.StorePty(meta.Pty)
	}
	if meta.Watcher != nil {
		out["watcher"] = reg.StoreWatcher(meta.Watcher)
	}
	if meta.Api != nil {
		out["api"] = reg.StoreApi(meta.Api)
	}

	if meta.Etag != "" {
		out["etag"] = meta.Etag
	}
	if meta.NotModified {
		out["notModified"] = true
	}
	if meta.PartialContent != nil {
		out["partialContent"] = meta.PartialContent
	}
	if meta.RangeNotSatisfiable != nil {
		out["rangeNotSatisfiable"] = meta.RangeNotSatisfiable
	}
	if meta.Mime != "" {
		out["mime"] = meta.Mime
	}
	if meta.Size != 0 {
		out["size"] = meta.Size
	}
	if meta.MetadataSize != 0 {
		out["metadataSize"] = meta.MetadataSize
	}
	if meta.MetadataStringLength != 0 {
		out["metadataStringLength"] = meta.MetadataStringLength
	}
	if meta.Stat != nil {
		out["stat"] = meta.Stat
	}
	for k, v := range meta.Extra {
		out[k] = v
	}
	return out
}

// BuildErrorEnvelope implements the Callback Marshaller's step 1
// (spec §4.3): it renders err as the wire ErrorEnvelope, attributing
// the stack string to pid the way the source's "<pid>: "+stack
// convention does. A nil err yields a nil envelope.
func BuildErrorEnvelope(pid int, err error) *rpcchannel.ErrorEnvelope {
	if err == nil {
		return nil
	}

	env := &rpcchannel.ErrorEnvelope{
		Stack:   fmt.Sprintf("%d: %s", pid, err.Error()),
		Message: err.Error(),
	}

	var vfsErr *vfs.Error
	if errors.As(err, &vfsErr) {
		env.Code = string(vfsErr.Code)
		if vfsErr.Message != "" {
			env.Message = vfsErr.Message
		}
		env.Stdout = vfsErr.Stdout
		env.Stderr = vfsErr.Stderr
	}

	return env
}
