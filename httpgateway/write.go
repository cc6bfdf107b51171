// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpgateway

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/relayfs/relayfs/vfs"
)

// maxCommandBodyBytes bounds the JSON command body POST accepts (spec
// §4.6's rename/copy/link/metadata commands). Commands are small; this
// guards against a client streaming an unbounded body into memory.
const maxCommandBodyBytes = 1 << 20

// smallUploadThreshold is the PUT/MkFile content-length cutoff below
// which the gateway asks the VFS to buffer the write (spec §4.6).
const smallUploadThreshold = 10 << 20

// httpBody adapts an http.Request's body (or a multipart part) to
// vfs.ReaderWithLen, so MkFile/AppendFile can report a known length
// without the gateway buffering the body itself.
type httpBody struct {
	io.Reader
	length int64
}

func (b *httpBody) Len() int64 { return b.length }

func (g *Gateway) handlePut(w http.ResponseWriter, r *http.Request, path string) {
	ctx := r.Context()

	if strings.HasSuffix(path, "/") {
		if _, err := g.fs.MkDir(ctx, path, vfs.Options{Parents: true}); err != nil {
			g.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		return
	}

	opts := vfs.Options{
		Parents:     true,
		BufferWrite: r.ContentLength >= 0 && r.ContentLength < smallUploadThreshold,
		StreamInput: &httpBody{Reader: r.Body, length: r.ContentLength},
	}
	if _, err := g.fs.MkFile(ctx, path, opts); err != nil {
		g.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handleDelete(w http.ResponseWriter, r *http.Request, path string) {
	ctx := r.Context()

	var err error
	if strings.HasSuffix(path, "/") {
		_, err = g.fs.RmDir(ctx, path, vfs.Options{})
	} else {
		_, err = g.fs.RmFile(ctx, path, vfs.Options{})
	}
	if err != nil {
		g.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handlePost(w http.ResponseWriter, r *http.Request, path string) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasSuffix(path, "/") && strings.Contains(contentType, "multipart") {
		g.handleMultipartUpload(w, r, path, contentType)
		return
	}

	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBodyBytes+1))
	if err != nil {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "reading request body: "+err.Error()))
		return
	}
	if int64(len(body)) > maxCommandBodyBytes {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "command body too large"))
		return
	}

	var command map[string]any
	if err := json.Unmarshal(body, &command); err != nil {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "invalid JSON command: "+err.Error()))
		return
	}

	switch {
	case command["renameFrom"] != nil:
		from, _ := command["renameFrom"].(string)
		_, err = g.fs.Rename(ctx, path, vfs.Options{From: from})
	case command["copyFrom"] != nil:
		from, _ := command["copyFrom"].(string)
		_, err = g.fs.Copy(ctx, path, vfs.Options{From: from})
	case command["linkTo"] != nil:
		target, _ := command["linkTo"].(string)
		_, err = g.fs.Symlink(ctx, path, vfs.Options{Target: target})
	case command["metadata"] != nil:
		metadataValue, _ := command["metadata"].(map[string]any)
		_, err = g.fs.Metadata(ctx, path, vfs.Options{MetadataValue: metadataValue})
	default:
		g.writeError(w, &vfs.Error{NumericCode: http.StatusInternalServerError, Message: "Invalid command"})
		return
	}

	if err != nil {
		g.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handleMultipartUpload(w http.ResponseWriter, r *http.Request, path, contentType string) {
	if contentType == "" {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "missing Content-Type"))
		return
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "not a multipart request"))
		return
	}
	boundary := params["boundary"]
	if boundary == "" {
		g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "missing multipart boundary"))
		return
	}

	ctx := r.Context()
	base := strings.TrimSuffix(path, "/")
	reader := multipart.NewReader(r.Body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "reading multipart body: "+err.Error()))
			return
		}

		filename := part.FileName()
		if filename == "" {
			filename = part.FormName()
		}
		if filename == "" {
			part.Close()
			g.writeError(w, vfs.NewError(vfs.CodeBadRequest, "multipart part missing filename"))
			return
		}

		_, err = g.fs.MkFile(ctx, base+"/"+filename, vfs.Options{
			StreamInput: &httpBody{Reader: part, length: -1},
		})
		part.Close()
		if err != nil {
			g.writeError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusCreated)
}

func (g *Gateway) handlePropfind(w http.ResponseWriter, r *http.Request, path string) {
	meta, err := g.fs.Stat(r.Context(), path, vfs.Options{})
	if err != nil {
		g.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(meta.Stat); err != nil {
		g.logger.Warn("writing PROPFIND response", "error", err)
	}
}
