// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package procspawn

import "syscall"

func mkfifoSyscall(path string, mode uint32) error {
	return syscall.Mkfifo(path, mode)
}
