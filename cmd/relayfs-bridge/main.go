// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/relayfs/relayfs/bridge"
	"github.com/relayfs/relayfs/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	// Parse flags manually to handle -- separator, same as relayfsd's
	// sibling binaries: pflag stops at the first non-flag argument,
	// which would swallow the exec command's own flags.
	listenAddr := "127.0.0.1:8642"
	socketPath := "/run/relayfs/vfs.sock"
	verbose := false
	var execCommand []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			execCommand = args[i+1:]
			i = len(args)
		case arg == "--listen" || arg == "-l":
			if i+1 >= len(args) {
				return fmt.Errorf("--listen requires an argument")
			}
			i++
			listenAddr = args[i]
		case arg == "--socket" || arg == "-s":
			if i+1 >= len(args) {
				return fmt.Errorf("--socket requires an argument")
			}
			i++
			socketPath = args[i]
		case arg == "--verbose" || arg == "-v":
			verbose = true
		case arg == "--help" || arg == "-h":
			printUsage()
			return nil
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	b := &bridge.Bridge{
		ListenAddr: listenAddr,
		SocketPath: socketPath,
		Logger:     logger,
	}

	if len(execCommand) > 0 {
		return runExecMode(b, execCommand)
	}

	return runStandalone(b)
}

func printUsage() {
	fmt.Print(`relayfs-bridge - Bridge TCP to relayfsd's Unix socket

USAGE
    relayfs-bridge [flags]
    relayfs-bridge [flags] -- <command> [args...]

FLAGS
    -l, --listen <addr>    TCP address to listen on (default: 127.0.0.1:8642)
    -s, --socket <path>    Unix socket to forward to (default: /run/relayfs/vfs.sock)
    -v, --verbose          Enable per-connection debug logging
    -h, --help             Show this help

EXAMPLES
    # Run as standalone bridge
    relayfs-bridge --listen 127.0.0.1:8642 --socket /run/relayfs/vfs.sock

    # Run bridge and then exec a command that only speaks TCP
    relayfs-bridge -- some-client --connect 127.0.0.1:8642

In exec mode, the bridge runs in the background and the command is exec'd.
The command inherits the bridge's environment, so TCP-only clients can
reach relayfsd's RPC/HTTP front door even when it only exposes a Unix
socket.
`)
}

// runExecMode starts the bridge, runs a subprocess, then stops the bridge
// when the subprocess exits.
func runExecMode(b *bridge.Bridge, command []string) error {
	ctx := context.Background()

	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	cmdPath, err := exec.LookPath(command[0])
	if err != nil {
		return fmt.Errorf("command not found: %s", command[0])
	}

	cmd := exec.Command(cmdPath, command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if cmd.Process != nil {
				cmd.Process.Signal(sig)
			}
		}
	}()

	err = cmd.Run()
	signal.Stop(sigChan)

	// Propagate exit code. Stop the bridge explicitly before os.Exit
	// because os.Exit does not run deferred functions.
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			b.Stop()
			os.Exit(exitErr.ExitCode())
		}
		return err
	}

	return nil
}

// runStandalone runs the bridge until interrupted by SIGINT or SIGTERM.
func runStandalone(b *bridge.Bridge) error {
	ctx := context.Background()

	if err := b.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	b.Stop()
	return nil
}
