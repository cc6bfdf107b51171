// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package localvfs implements [vfs.FS] over the local disk, os/exec, and
// a dedicated tmux server for PTYs. It exists so relayfs has a concrete
// VFS to exercise end to end — spec.md treats the VFS implementation as
// an external collaborator, but the rest of this module needs something
// real to compile and test against.
//
// Path handling is intentionally naive: every path is joined onto Root
// with filepath.Join and not otherwise validated, matching spec.md's
// explicit delegation of path sanitization to the VFS layer (a Non-goal
// of relayfs itself). A production deployment embedding localvfs should
// wrap it with its own containment checks.
package localvfs
