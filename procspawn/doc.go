// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procspawn provides the process and terminal primitives that
// back [vfs.FS]'s Spawn, ExecFile, PTY, Tmux, and KillTree operations:
// a thin os/exec wrapper for plain child processes, and a tmux-backed
// pseudo-terminal for PTY/Tmux, following the same "one dedicated
// server, no ambient config" model bureau's lib/tmux package uses for
// sandboxed session management.
package procspawn
