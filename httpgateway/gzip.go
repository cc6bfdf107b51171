// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// acceptsGzip reports whether r's Accept-Encoding header lists gzip.
func acceptsGzip(r *http.Request) bool {
	for _, encoding := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(encoding) == "gzip" {
			return true
		}
	}
	return false
}

// gzipResponseWriter wraps an http.ResponseWriter so body writes pass
// through a gzip.Writer. WriteHeader is left untouched: maybeGzip
// sets Content-Encoding and drops Content-Length before returning the
// wrapper, since the compressed length isn't known up front.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz *gzip.Writer
}

func (gw *gzipResponseWriter) Write(p []byte) (int, error) {
	return gw.gz.Write(p)
}

// maybeGzip wraps w in a gzip encoder when enabled is true and the
// request's Accept-Encoding offers gzip (directory listings and
// oversized-stream error bodies per config.GatewayConfig.GzipDirectoryListing).
// The returned close func must run after the body is fully written;
// it is a no-op when no wrapping occurred.
func (g *Gateway) maybeGzip(w http.ResponseWriter, r *http.Request, enabled bool) (http.ResponseWriter, func()) {
	if !enabled || !g.config.GzipDirectoryListing || !acceptsGzip(r) {
		return w, func() {}
	}
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	return &gzipResponseWriter{ResponseWriter: w, gz: gz}, func() { gz.Close() }
}
