// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"context"
	"strings"

	"github.com/relayfs/relayfs/procspawn"
	"github.com/relayfs/relayfs/vfs"
)

func (fs *FS) Spawn(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	command, args := commandFromOptions(path, opts)

	proc, err := procspawn.Spawn(ctx, procspawn.SpawnOptions{
		Command:    command,
		Args:       args,
		Env:        opts.Env,
		Dir:        opts.Dir,
		WantStdin:  true,
		WantStdout: true,
		WantStderr: true,
	})
	if err != nil {
		return nil, spawnError(err)
	}
	return &vfs.Meta{Process: proc}, nil
}

func (fs *FS) KillTree(ctx context.Context, pid int, opts vfs.Options) error {
	signal := "SIGTERM"
	if len(opts.Args) > 0 {
		signal = opts.Args[0]
	}
	return procspawn.KillTree(pid, signal)
}

func (fs *FS) ExecFile(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	command, args := commandFromOptions(path, opts)

	result, err := procspawn.Run(ctx, procspawn.SpawnOptions{
		Command: command,
		Args:    args,
		Env:     opts.Env,
		Dir:     opts.Dir,
	})
	if err != nil {
		return nil, spawnError(err)
	}

	return &vfs.Meta{Extra: map[string]any{
		"stdout":   result.Stdout,
		"stderr":   result.Stderr,
		"exitCode": result.ExitCode,
	}}, nil
}

func (fs *FS) PTY(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	command, args := commandFromOptions(path, opts)
	pty, err := fs.ptys.Spawn(command, args, opts.PTYCols, opts.PTYRows)
	if err != nil {
		return nil, spawnError(err)
	}
	return &vfs.Meta{Pty: pty}, nil
}

func (fs *FS) Tmux(ctx context.Context, path string, opts vfs.Options) (*vfs.Meta, error) {
	command, args := commandFromOptions("", opts)
	pty, err := fs.ptys.Attach(strings.TrimPrefix(path, "/"), command, args, opts.PTYCols, opts.PTYRows)
	if err != nil {
		return nil, spawnError(err)
	}
	return &vfs.Meta{Pty: pty}, nil
}

// commandFromOptions resolves the program to run for Spawn/PTY/Tmux/
// ExecFile: opts.Command takes priority, falling back to path itself
// when the caller addressed a specific executable by path (spec §6.1's
// "opts.Command/opts.Args" convention leaves path's role to the VFS).
func commandFromOptions(path string, opts vfs.Options) (string, []string) {
	if opts.Command != "" {
		return opts.Command, opts.Args
	}
	return path, opts.Args
}

func spawnError(err error) error {
	return &vfs.Error{NumericCode: 500, Message: err.Error(), Err: err}
}
