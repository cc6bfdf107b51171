// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localvfs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/relayfs/relayfs/procspawn"
	"github.com/relayfs/relayfs/vfs"
)

// FS implements vfs.FS over the local disk, rooted at Root. It is the
// concrete VFS relayfs's own binaries (cmd/relayfsd, cmd/relayfs-bridge)
// embed so the RPC channel and HTTP gateway have something real to
// serve, the way antgroup-hugescm's vfs.VFS wraps os for a single
// rooted tree.
type FS struct {
	root string
	ptys *procspawn.PtyManager

	mu             sync.RWMutex
	apis           map[string]vfs.Api
	listeners      map[string]map[int]func(args ...any)
	nextListenerID int
}

// Options configures a new FS.
type Options struct {
	// Root is the directory every path is resolved against.
	Root string

	// TmuxSocket is the Unix socket path for the dedicated tmux server
	// backing PTY and Tmux. Defaults to a path under RunDir.
	TmuxSocket string

	// RunDir holds the FIFOs used to relay tmux pane output. Defaults
	// to Root.
	RunDir string
}

// New constructs an FS rooted at opts.Root, creating it if absent.
func New(opts Options) (*FS, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}

	runDir := opts.RunDir
	if runDir == "" {
		runDir = root
	}
	socket := opts.TmuxSocket
	if socket == "" {
		socket = filepath.Join(runDir, "relayfs-tmux.sock")
	}

	return &FS{
		root:      root,
		ptys:      procspawn.NewPtyManager(socket, runDir),
		apis:      make(map[string]vfs.Api),
		listeners: make(map[string]map[int]func(args ...any)),
	}, nil
}

// resolve joins path onto Root. Path sanitization beyond this is the
// embedder's responsibility (spec §6.1's Non-goal): FS does not guard
// against ".." escaping Root.
func (fs *FS) resolve(path string) string {
	return filepath.Join(fs.root, filepath.FromSlash(path))
}

func statToMeta(path string, info os.FileInfo) *vfs.Stat {
	return &vfs.Stat{
		Name:        filepath.Base(path),
		Path:        path,
		Size:        info.Size(),
		IsDirectory: info.IsDir(),
		IsSymlink:   info.Mode()&os.ModeSymlink != 0,
		Mode:        uint32(info.Mode().Perm()),
		ModTime:     info.ModTime(),
	}
}
