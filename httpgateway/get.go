// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/relayfs/relayfs/errnorm"
	"github.com/relayfs/relayfs/vfs"
)

func (g *Gateway) handleGet(w http.ResponseWriter, r *http.Request, path string) {
	head := r.Method == http.MethodHead

	opts := vfs.Options{Head: head}
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		opts.Etag = inm
	}
	if rng := parseRangeHeader(r.Header.Get("Range"), r.Header.Get("If-Range")); rng != nil {
		opts.Range = rng
	}
	if r.Header.Get("X-Request-Metadata") != "" {
		opts.Metadata = true
	}

	ctx := r.Context()

	var meta *vfs.Meta
	var err error
	directoryListing := false

	switch {
	case !strings.HasSuffix(path, "/"):
		meta, err = g.fs.ReadFile(ctx, path, opts)

	case g.config.AutoIndex != "":
		meta, err = g.fs.ReadFile(ctx, path+g.config.AutoIndex, opts)
		if err != nil {
			dirOpts := opts
			dirOpts.Encoding = "null"
			meta, err = g.fs.ReadDir(ctx, path, dirOpts)
			directoryListing = true
		}

	default:
		dirOpts := opts
		dirOpts.Encoding = "null"
		meta, err = g.fs.ReadDir(ctx, path, dirOpts)
		directoryListing = true
	}

	if err != nil {
		g.writeError(w, err)
		return
	}

	g.writeResult(w, r, path, meta, directoryListing, head)
}

func (g *Gateway) writeResult(w http.ResponseWriter, r *http.Request, path string, meta *vfs.Meta, directoryListing, head bool) {
	if meta.RangeNotSatisfiable != nil {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		fmt.Fprint(w, meta.RangeNotSatisfiable.Message)
		return
	}

	etag := meta.Etag
	if etag == "" && (meta.Stat != nil || meta.Size > 0) {
		etag = synthesizeEtag(path, meta.Size, meta.Stat)
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}

	if meta.NotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	status := http.StatusOK
	if meta.PartialContent != nil {
		pc := meta.PartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", pc.Start, pc.End, pc.Size))
		status = http.StatusPartialContent
	}

	if meta.Stream != nil || head {
		contentType := meta.Mime
		if directoryListing {
			contentType = "application/json"
		}
		if g.config.NoMime {
			w.Header().Set("X-VFS-Content-Type", contentType)
			contentType = "application/octet-stream"
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if meta.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
		}
	}

	if meta.Stream == nil {
		w.WriteHeader(status)
		return
	}

	readable, ok := meta.Stream.(vfs.Readable)
	if !ok {
		w.WriteHeader(status)
		return
	}

	if meta.Size > g.maxStreamBytes {
		readable.Destroy()
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Type", errnorm.ContentType)
		body, closeBody := g.maybeGzip(w, r, true)
		body.WriteHeader(513)
		fmt.Fprintf(body, "File size is bigger than allowed (8MB). Size is %d bytes\n", meta.Size)
		closeBody()
		return
	}

	if head {
		w.WriteHeader(status)
		return
	}

	body, closeBody := g.maybeGzip(w, r, directoryListing)
	body.WriteHeader(status)
	defer closeBody()

	if source, ok := meta.Stream.(vfs.ObjectSource); ok && directoryListing {
		if err := pumpObjects(r.Context(), body, readable, source); err != nil {
			g.logger.Debug("directory stream ended", "error", err)
		}
		return
	}

	if err := pumpBytes(r.Context(), body, readable); err != nil {
		g.logger.Debug("file stream ended", "error", err)
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	if errnorm.ShouldLog(err) {
		g.logger.Error("vfs operation failed", "error", err)
	}

	status := errnorm.Status(err)
	if g.config.ENOENTAsNotFound && vfs.IsNotFound(err) {
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", errnorm.ContentType)
	w.WriteHeader(status)
	fmt.Fprint(w, errnorm.Body(err))
}
