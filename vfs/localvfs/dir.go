// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) ReadDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, wrapStatError(path, err)
	}

	entries := make([]*vfs.Stat, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, statToMeta(filepath.Join(path, de.Name()), info))
	}

	meta := &vfs.Meta{Mime: "application/json"}

	if opts.Encoding == "null" {
		stream := newDirObjectStream(entries)
		meta.Stream = stream
		return meta, nil
	}

	stream, err := newDirJSONStream(entries)
	if err != nil {
		return nil, wrapIOError(err)
	}
	meta.Stream = stream
	return meta, nil
}

func (fs *FS) MkDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	var err error
	if opts.Parents {
		err = os.MkdirAll(full, 0755)
	} else {
		err = os.Mkdir(full, 0755)
	}
	if err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{}, nil
}

func (fs *FS) MkDirP(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	opts.Parents = true
	return fs.MkDir(ctx, path, opts)
}

func (fs *FS) RmDir(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	if err := os.RemoveAll(full); err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{}, nil
}
