// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"

	"github.com/relayfs/relayfs/vfs"
)

// routedOp adapts a vfs.FS method with the common fn(ctx, path,
// options) (*Meta, error) shape into a uniform signature the
// dispatcher can look up by wire method name (spec §4.5's "routed VFS
// operations").
type routedOp func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error)

// routedOperations is the fixed table of VFS contract methods (spec
// §6.1) reachable by name over the RPC channel. killtree and use have
// incompatible signatures and are dispatched by their own handlers
// instead (see dispatcher.go). extend and unextend are not reachable
// over the RPC channel at all: they take a live Api implementation,
// which cannot be sent across the wire.
var routedOperations = map[string]routedOp{
	"resolve":    func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Resolve(ctx, path, opts) },
	"stat":       func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Stat(ctx, path, opts) },
	"metadata":   func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Metadata(ctx, path, opts) },
	"readfile":   func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.ReadFile(ctx, path, opts) },
	"readdir":    func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.ReadDir(ctx, path, opts) },
	"mkfile":     func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.MkFile(ctx, path, opts) },
	"mkdir":      func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.MkDir(ctx, path, opts) },
	"mkdirP":     func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.MkDirP(ctx, path, opts) },
	"appendfile": func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.AppendFile(ctx, path, opts) },
	"rmfile":     func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.RmFile(ctx, path, opts) },
	"rmdir":      func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.RmDir(ctx, path, opts) },
	"rename":     func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Rename(ctx, path, opts) },
	"copy":       func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Copy(ctx, path, opts) },
	"chmod":      func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Chmod(ctx, path, opts) },
	"symlink":    func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Symlink(ctx, path, opts) },
	"watch":      func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Watch(ctx, path, opts) },
	"connect":    func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Connect(ctx, path, opts) },
	"spawn":      func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Spawn(ctx, path, opts) },
	"pty":        func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.PTY(ctx, path, opts) },
	"tmux":       func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.Tmux(ctx, path, opts) },
	"execFile":   func(ctx context.Context, fs vfs.FS, path string, opts vfs.Options) (*vfs.Meta, error) { return fs.ExecFile(ctx, path, opts) },
}

// argAt returns args[i], or nil if out of range.
func argAt(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}
