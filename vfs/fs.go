// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "context"

// FS is the virtual filesystem contract relayfs consumes (spec §6.1).
// Path sanitization, authentication, and quota enforcement are the
// implementation's responsibility — relayfs treats path purely as an
// opaque string it forwards unexamined except for the nil/empty check
// in the RPC dispatcher's EINVALIDPATH fast-fail.
type FS interface {
	// Resolve normalizes path without touching the filesystem (symlink
	// resolution, case normalization, or similar, depending on the
	// implementation).
	Resolve(ctx context.Context, path string, opts Options) (*Meta, error)

	// Stat returns a Meta with Stat populated.
	Stat(ctx context.Context, path string, opts Options) (*Meta, error)

	// Metadata reads (opts.MetadataValue nil) or writes (non-nil)
	// side-channel metadata associated with path.
	Metadata(ctx context.Context, path string, opts Options) (*Meta, error)

	// ReadFile returns a Meta with Stream set to the file's content,
	// unless opts.Head is set, in which case only scalar fields
	// (Mime, Size, Etag, ...) are populated.
	ReadFile(ctx context.Context, path string, opts Options) (*Meta, error)

	// ReadDir returns a Meta with Stream set to a directory listing.
	// When opts.Encoding == "null" the stream additionally implements
	// ObjectSource.
	ReadDir(ctx context.Context, path string, opts Options) (*Meta, error)

	// MkFile creates or truncates a file at path, writing from
	// opts.StreamInput or opts.Stream. opts.Parents creates missing
	// intermediate directories first.
	MkFile(ctx context.Context, path string, opts Options) (*Meta, error)

	// MkDir creates a directory. opts.Parents enables mkdir -p.
	MkDir(ctx context.Context, path string, opts Options) (*Meta, error)

	// MkDirP is the explicit mkdir -p entry point some VFS
	// implementations expose separately from MkDir+Parents.
	MkDirP(ctx context.Context, path string, opts Options) (*Meta, error)

	// AppendFile appends opts.StreamInput/opts.Stream to the file at
	// path, creating it if absent.
	AppendFile(ctx context.Context, path string, opts Options) (*Meta, error)

	RmFile(ctx context.Context, path string, opts Options) (*Meta, error)
	RmDir(ctx context.Context, path string, opts Options) (*Meta, error)

	// Rename moves opts.From to path.
	Rename(ctx context.Context, path string, opts Options) (*Meta, error)

	// Copy copies opts.From to path.
	Copy(ctx context.Context, path string, opts Options) (*Meta, error)

	// Chmod changes path's permission bits to opts.Mode.
	Chmod(ctx context.Context, path string, opts Options) (*Meta, error)

	// Symlink creates a symlink at path pointing at opts.Target.
	Symlink(ctx context.Context, path string, opts Options) (*Meta, error)

	// Watch returns a Meta with Watcher set to a live change
	// subscription rooted at path.
	Watch(ctx context.Context, path string, opts Options) (*Meta, error)

	// Connect returns a Meta with Stream set to a bidirectional
	// connection to whatever path addresses (a Unix socket, a named
	// pipe, an implementation-defined virtual endpoint).
	Connect(ctx context.Context, path string, opts Options) (*Meta, error)

	// Spawn returns a Meta with Process set to a newly started child
	// process running opts.Command/opts.Args.
	Spawn(ctx context.Context, path string, opts Options) (*Meta, error)

	// KillTree terminates pid and its process tree.
	KillTree(ctx context.Context, pid int, opts Options) error

	// PTY returns a Meta with Pty set to a newly created
	// pseudo-terminal running opts.Command/opts.Args (or a shell by
	// default).
	PTY(ctx context.Context, path string, opts Options) (*Meta, error)

	// Tmux returns a Meta with Pty set to a pseudo-terminal attached
	// to a tmux session identified by path, creating it if absent.
	Tmux(ctx context.Context, path string, opts Options) (*Meta, error)

	// ExecFile runs opts.Command/opts.Args to completion and returns
	// its buffered output via Meta.Extra (keys "stdout", "stderr",
	// "exitCode"), rather than a live Process.
	ExecFile(ctx context.Context, path string, opts Options) (*Meta, error)

	// Extend registers a pluggable Api under name, making it
	// reachable from Use and from the RPC "call" method.
	Extend(name string, api Api) error

	// Unextend removes a previously registered Api.
	Unextend(name string) error

	// Use looks up a previously registered Api by name.
	Use(name string) (Api, error)

	// Env returns the VFS's environment-variable view, exposed to
	// embedders that need it for command construction.
	Env() map[string]string

	// On subscribes handler to a named VFS-level event (used by the
	// RPC dispatcher's subscribe method). The returned func removes
	// the subscription; the dispatcher keeps it to implement
	// unsubscribe, since Go func values carry no usable identity to
	// match against.
	On(event string, handler func(args ...any)) (unsubscribe func())

	// Emit fires event to every subscriber.
	Emit(event string, args ...any)
}
