// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) ReadFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)

	info, err := os.Stat(full)
	if err != nil {
		return nil, wrapStatError(path, err)
	}
	if info.IsDir() {
		return nil, &vfs.Error{Code: vfs.CodeIsDirectory, Message: path + " is a directory"}
	}

	meta := &vfs.Meta{
		Size: info.Size(),
		Mime: mime.TypeByExtension(filepath.Ext(path)),
		Etag: synthesizeLocalEtag(path, info),
	}

	if opts.Etag != "" && opts.Etag == meta.Etag {
		meta.NotModified = true
		return meta, nil
	}

	if opts.Head {
		return meta, nil
	}

	file, err := os.Open(full)
	if err != nil {
		return nil, wrapStatError(path, err)
	}

	if opts.Range != nil {
		size := info.Size()
		start, end, ok := resolveRange(opts.Range, size)
		if !ok {
			file.Close()
			return &vfs.Meta{RangeNotSatisfiable: &vfs.RangeNotSatisfiable{
				Message: "Range Not Satisfiable",
			}}, nil
		}
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			file.Close()
			return nil, wrapIOError(err)
		}
		meta.PartialContent = &vfs.PartialContent{Start: start, End: end, Size: size}
		meta.Size = end - start + 1
		meta.Stream = newFileReadable(&limitedFile{File: file, remaining: meta.Size})
		return meta, nil
	}

	meta.Stream = newFileReadable(file)
	return meta, nil
}

// limitedFile truncates reads at remaining bytes, for satisfying a
// Range request without streaming past the requested window.
type limitedFile struct {
	*os.File
	remaining int64
}

func (f *limitedFile) Read(p []byte) (int, error) {
	if f.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > f.remaining {
		p = p[:f.remaining]
	}
	n, err := f.File.Read(p)
	f.remaining -= int64(n)
	return n, err
}

func resolveRange(r *vfs.RangeRequest, size int64) (start, end int64, ok bool) {
	switch {
	case r.Start == nil && r.End != nil:
		end = size - 1
		start = size - *r.End
		if start < 0 {
			start = 0
		}
	case r.Start != nil && r.End == nil:
		start = *r.Start
		end = size - 1
	case r.Start != nil && r.End != nil:
		start = *r.Start
		end = *r.End
	default:
		return 0, 0, false
	}
	if start < 0 || start >= size || end < start {
		return 0, 0, false
	}
	if end >= size {
		end = size - 1
	}
	return start, end, true
}

func (fs *FS) MkFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	if opts.Parents {
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, wrapIOError(err)
		}
	}
	return fs.writeFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts)
}

func (fs *FS) AppendFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	if opts.Parents {
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return nil, wrapIOError(err)
		}
	}
	return fs.writeFile(full, os.O_WRONLY|os.O_CREATE|os.O_APPEND, opts)
}

func (fs *FS) writeFile(full string, flag int, opts vfs.Options) (*vfs.Meta, error) {
	file, err := os.OpenFile(full, flag, 0644)
	if err != nil {
		return nil, wrapIOError(err)
	}

	if opts.StreamInput != nil {
		defer file.Close()
		var err error
		if opts.BufferWrite {
			data, readErr := io.ReadAll(opts.StreamInput)
			if readErr != nil {
				return nil, wrapIOError(readErr)
			}
			_, err = file.Write(data)
		} else {
			_, err = io.Copy(file, opts.StreamInput)
		}
		if err != nil {
			return nil, wrapIOError(err)
		}
		info, statErr := file.Stat()
		if statErr != nil {
			return nil, wrapIOError(statErr)
		}
		return &vfs.Meta{Size: info.Size()}, nil
	}

	return &vfs.Meta{Stream: newFileWritable(file)}, nil
}

func (fs *FS) RmFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	if err := os.Remove(full); err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{}, nil
}

func wrapStatError(path string, err error) error {
	if os.IsNotExist(err) {
		return &vfs.Error{Code: vfs.CodeNotFound, Message: path + " not found", Err: err}
	}
	if os.IsPermission(err) {
		return &vfs.Error{Code: vfs.CodeAccessDenied, Message: "permission denied: " + path, Err: err}
	}
	return wrapIOError(err)
}

// wrapIOError classifies a plain os/io error that didn't come from a
// path lookup (wrapStatError handles those) as an internal VFS error
// carrying a numeric 500, the Error Normalizer's catch-all (spec §7).
func wrapIOError(err error) error {
	if err == nil {
		return nil
	}
	return &vfs.Error{NumericCode: 500, Err: err}
}
