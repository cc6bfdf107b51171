// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) Resolve(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{Extra: map[string]any{"resolved": resolved}}, nil
}

func (fs *FS) Stat(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)
	info, err := os.Lstat(full)
	if err != nil {
		return nil, wrapStatError(path, err)
	}
	stat := statToMeta(path, info)
	if sidecar, err := fs.readMetadataSidecar(full); err == nil {
		stat.Metadata = sidecar
	}
	return &vfs.Meta{Stat: stat, Size: stat.Size, Mime: stat.Mime}, nil
}

// metadataPath returns the sidecar file path localvfs stores out-of-band
// metadata in, next to the target file. ReadDir does not filter it, so
// the sidecar appears in directory listings like any other file.
func metadataPath(full string) string {
	return full + ".relayfs-metadata.json"
}

func (fs *FS) readMetadataSidecar(full string) (map[string]any, error) {
	data, err := os.ReadFile(metadataPath(full))
	if err != nil {
		return nil, err
	}
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return value, nil
}

func (fs *FS) Metadata(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	full := fs.resolve(path)

	if opts.MetadataValue == nil {
		value, err := fs.readMetadataSidecar(full)
		if err != nil {
			if os.IsNotExist(err) {
				return &vfs.Meta{Stat: &vfs.Stat{Metadata: map[string]any{}}}, nil
			}
			return nil, wrapIOError(err)
		}
		return &vfs.Meta{Stat: &vfs.Stat{Metadata: value}}, nil
	}

	data, err := json.Marshal(opts.MetadataValue)
	if err != nil {
		return nil, vfs.NewError(vfs.CodeBadRequest, "invalid metadata: "+err.Error())
	}
	if err := os.WriteFile(metadataPath(full), data, 0644); err != nil {
		return nil, wrapIOError(err)
	}
	return &vfs.Meta{MetadataSize: int64(len(data)), MetadataStringLength: int64(len(opts.MetadataValue))}, nil
}
