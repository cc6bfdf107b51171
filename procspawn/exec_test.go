// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procspawn

import (
	"context"
	"strings"
	"testing"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	result, err := Run(context.Background(), SpawnOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo out; echo err 1>&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Fatalf("stdout = %q, want %q", result.Stdout, "out")
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Fatalf("stderr = %q, want %q", result.Stderr, "err")
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestRunMissingBinaryReturnsError(t *testing.T) {
	_, err := Run(context.Background(), SpawnOptions{Command: "/no/such/binary-relayfs"})
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}
