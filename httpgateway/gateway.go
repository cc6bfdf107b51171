// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/relayfs/relayfs/lib/config"
	"github.com/relayfs/relayfs/vfs"
)

// defaultMaxStreamBytes is spec §4.6's 8 MiB oversized-stream
// threshold, used when config.GatewayConfig.MaxStreamBytes is zero.
const defaultMaxStreamBytes = 8 << 20

// Gateway is an http.Handler implementing the VFS's RESTful surface
// (spec §4.6) over a mount prefix. Requests that fall outside the
// mount prefix, and writes when the gateway is configured read-only,
// are forwarded to Next.
type Gateway struct {
	fs     vfs.FS
	config config.GatewayConfig
	next   http.Handler
	logger *slog.Logger

	mount          string
	maxStreamBytes int64
}

// New constructs a Gateway. next receives requests outside the mount
// prefix and, in read-only mode, any non-GET/HEAD request; it defaults
// to http.NotFoundHandler. logger defaults to slog.Default.
func New(fs vfs.FS, cfg config.GatewayConfig, next http.Handler, logger *slog.Logger) *Gateway {
	mount := cfg.MountPrefix
	if mount == "" {
		mount = "/fs/"
	}
	if !strings.HasSuffix(mount, "/") {
		mount += "/"
	}

	if next == nil {
		next = http.NotFoundHandler()
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxStreamBytes := cfg.MaxStreamBytes
	if maxStreamBytes == 0 {
		maxStreamBytes = defaultMaxStreamBytes
	}

	return &Gateway{
		fs:             fs,
		config:         cfg,
		next:           next,
		logger:         logger,
		mount:          mount,
		maxStreamBytes: maxStreamBytes,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, g.mount) {
		g.next.ServeHTTP(w, r)
		return
	}
	path := "/" + strings.TrimPrefix(r.URL.Path, g.mount)

	isRead := r.Method == http.MethodGet || r.Method == http.MethodHead
	if g.config.ReadOnly && !isRead {
		g.next.ServeHTTP(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		g.handleGet(w, r, path)
	case http.MethodPut:
		g.handlePut(w, r, path)
	case http.MethodDelete:
		g.handleDelete(w, r, path)
	case http.MethodPost:
		g.handlePost(w, r, path)
	case "PROPFIND":
		g.handlePropfind(w, r, path)
	default:
		http.Error(w, "not implemented", http.StatusNotImplemented)
	}
}
