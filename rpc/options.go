// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"github.com/relayfs/relayfs/registry"
	"github.com/relayfs/relayfs/vfs"
)

// decodeOptions converts the wire-decoded options map for a routed
// VFS operation into vfs.Options, implementing spec §4.5(b): an
// options.stream that names a token is converted to a ProxyStream
// rather than passed through as raw data. Keys with no dedicated
// Options field pass through unchanged in Options.Raw.
func decodeOptions(raw map[string]any, reg *registry.Registry, remote registry.RemoteStreamControl) vfs.Options {
	opts := vfs.Options{Raw: make(map[string]any)}
	if raw == nil {
		return opts
	}

	for key, value := range raw {
		switch key {
		case "head":
			opts.Head, _ = toBool(value)
		case "etag":
			opts.Etag, _ = toString(value)
		case "range":
			opts.Range = decodeRange(value)
		case "metadata":
			if b, ok := toBool(value); ok {
				opts.Metadata = b
			} else if m, ok := value.(map[string]any); ok {
				opts.MetadataValue = m
			}
		case "metadataValue":
			if m, ok := value.(map[string]any); ok {
				opts.MetadataValue = m
			}
		case "encoding":
			opts.Encoding, _ = toString(value)
		case "parents":
			opts.Parents, _ = toBool(value)
		case "bufferWrite":
			opts.BufferWrite, _ = toBool(value)
		case "from":
			opts.From, _ = toString(value)
		case "target":
			opts.Target, _ = toString(value)
		case "mode":
			if m, ok := toInt(value); ok {
				opts.Mode = uint32(m)
			}
		case "ptyCols":
			opts.PTYCols, _ = toInt(value)
		case "ptyRows":
			opts.PTYRows, _ = toInt(value)
		case "command":
			opts.Command, _ = toString(value)
		case "args":
			opts.Args = toStringSlice(value)
		case "env":
			opts.Env = toStringMap(value)
		case "dir":
			opts.Dir, _ = toString(value)
		case "stream":
			if proxy := decodeStreamToken(value, reg, remote); proxy != nil {
				opts.Stream = proxy
			}
		default:
			opts.Raw[key] = value
		}
	}
	return opts
}

// decodeStreamToken converts a wire stream token (as produced by
// registry.StreamToken) into a live ProxyStream, registering it with
// reg. Returns nil if value isn't a recognizable token.
func decodeStreamToken(value any, reg *registry.Registry, remote registry.RemoteStreamControl) *registry.ProxyStream {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := toInt(m["id"])
	if !ok {
		return nil
	}
	if existing, ok := reg.LookupProxy(id); ok {
		return existing
	}
	readable, _ := toBool(m["readable"])
	writable, _ := toBool(m["writable"])
	return registry.NewProxyStream(reg, id, readable, writable, remote)
}

func decodeRange(value any) *vfs.RangeRequest {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	r := &vfs.RangeRequest{}
	if start, ok := toInt64(m["start"]); ok {
		r.Start = &start
	}
	if end, ok := toInt64(m["end"]); ok {
		r.End = &end
	}
	r.Etag, _ = toString(m["etag"])
	return r
}

func toBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func toInt(v any) (int, bool) {
	n, ok := toInt64(v)
	return int(n), ok
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, value := range m {
		if s, ok := value.(string); ok {
			out[k] = s
		}
	}
	return out
}
