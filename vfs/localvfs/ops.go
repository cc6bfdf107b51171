// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"io"
	"os"

	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) Rename(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if opts.From == "" {
		return nil, vfs.NewError(vfs.CodeBadRequest, "rename requires From")
	}
	if err := os.Rename(fs.resolve(opts.From), fs.resolve(path)); err != nil {
		return nil, wrapStatError(opts.From, err)
	}
	return &vfs.Meta{}, nil
}

func (fs *FS) Copy(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if opts.From == "" {
		return nil, vfs.NewError(vfs.CodeBadRequest, "copy requires From")
	}

	src, err := os.Open(fs.resolve(opts.From))
	if err != nil {
		return nil, wrapStatError(opts.From, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(fs.resolve(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, wrapStatError(path, err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		return nil, wrapIOError(err)
	}
	return &vfs.Meta{Size: n}, nil
}

func (fs *FS) Chmod(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if err := os.Chmod(fs.resolve(path), os.FileMode(opts.Mode)); err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{}, nil
}

func (fs *FS) Symlink(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	if opts.Target == "" {
		return nil, vfs.NewError(vfs.CodeBadRequest, "symlink requires Target")
	}
	if err := os.Symlink(opts.Target, fs.resolve(path)); err != nil {
		return nil, wrapStatError(path, err)
	}
	return &vfs.Meta{}, nil
}
