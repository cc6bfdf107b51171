// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procspawn

import "syscall"

// KillTree signals pid's entire process group. Spawn always sets
// Setpgid, so a process's own PID is also its process group ID — a
// single negative-PID signal reaches it and every descendant that
// hasn't called setpgid itself.
func KillTree(pid int, signal string) error {
	sig, err := parseSignal(signal)
	if err != nil {
		return err
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		// The group leader may already be gone while children
		// linger briefly; fall back to signaling the PID directly.
		return syscall.Kill(pid, sig)
	}
	return nil
}
