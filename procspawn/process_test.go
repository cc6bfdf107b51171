// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procspawn

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relayfs/relayfs/lib/testutil"
)

func TestSpawnCapturesStdout(t *testing.T) {
	p, err := Spawn(context.Background(), SpawnOptions{
		Command:    "/bin/echo",
		Args:       []string{"hello", "relayfs"},
		WantStdout: true,
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var mu sync.Mutex
	var got []byte
	done := make(chan struct{})
	p.Stdout().OnData(func(chunk []byte) bool {
		mu.Lock()
		got = append(got, chunk...)
		mu.Unlock()
		return true
	})
	p.Stdout().OnEnd(func() { close(done) })

	testutil.RequireClosed(t, done, 5*time.Second, "waiting for stdout EOF")

	mu.Lock()
	defer mu.Unlock()
	if strings.TrimSpace(string(got)) != "hello relayfs" {
		t.Fatalf("stdout = %q, want %q", got, "hello relayfs")
	}
}

func TestSpawnExitCode(t *testing.T) {
	p, err := Spawn(context.Background(), SpawnOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "exit 7"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	exitCh := make(chan int, 1)
	p.OnExit(func(code int, signal string) { exitCh <- code })

	code := testutil.RequireReceive(t, exitCh, 5*time.Second, "waiting for exit")
	if code != 7 {
		t.Fatalf("exit code = %d, want 7", code)
	}
}

func TestSpawnStdinRoundTrip(t *testing.T) {
	p, err := Spawn(context.Background(), SpawnOptions{
		Command:    "/bin/cat",
		WantStdin:  true,
		WantStdout: true,
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var mu sync.Mutex
	var got []byte
	done := make(chan struct{})
	p.Stdout().OnData(func(chunk []byte) bool {
		mu.Lock()
		got = append(got, chunk...)
		mu.Unlock()
		return true
	})
	p.Stdout().OnEnd(func() { close(done) })

	p.Stdin().End([]byte("round trip\n"))

	testutil.RequireClosed(t, done, 5*time.Second, "waiting for cat to echo input back")

	mu.Lock()
	defer mu.Unlock()
	if string(got) != "round trip\n" {
		t.Fatalf("stdout = %q, want %q", got, "round trip\n")
	}
}

func TestKillTreeTerminatesProcessGroup(t *testing.T) {
	p, err := Spawn(context.Background(), SpawnOptions{
		Command: "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	exitCh := make(chan string, 1)
	p.OnExit(func(code int, signal string) { exitCh <- signal })

	if err := KillTree(p.PID(), "SIGTERM"); err != nil {
		t.Fatalf("KillTree: %v", err)
	}

	signal := testutil.RequireReceive(t, exitCh, 5*time.Second, "waiting for killed process to exit")
	if signal != "terminated" {
		t.Fatalf("exit signal = %q, want %q", signal, "terminated")
	}
}
