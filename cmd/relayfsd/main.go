// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Relayfsd is relayfs's VFS bridge daemon: it serves a [vfs.FS] over
// the RPC channel (spec §4) and the HTTP Gateway (spec §4.6) on one
// TCP listener.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/relayfs/relayfs/httpgateway"
	"github.com/relayfs/relayfs/lib/config"
	"github.com/relayfs/relayfs/lib/process"
	"github.com/relayfs/relayfs/rpc"
	"github.com/relayfs/relayfs/rpcchannel"
	"github.com/relayfs/relayfs/transport"
	"github.com/relayfs/relayfs/vfs/localvfs"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "path to relayfs.yaml (overrides RELAYFS_CONFIG)")
	flag.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fs, err := localvfs.New(localvfs.Options{
		Root:   cfg.Paths.Root,
		RunDir: cfg.Paths.Sockets,
	})
	if err != nil {
		return fmt.Errorf("constructing local VFS: %w", err)
	}

	listener, err := newListener(cfg)
	if err != nil {
		return fmt.Errorf("constructing transport listener: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	rpcchannel.Mount(mux, cfg.Transport.OutboundQueueSize, logger, func(ch *rpcchannel.Channel) {
		dispatcher := rpc.NewDispatcher(fs, ch, logger)
		dispatcher.SetWatcherCompressionThreshold(cfg.Registry.WatcherPayloadCompressionThreshold)
		go func() {
			if err := ch.Run(ctx); err != nil {
				logger.Debug("rpc channel closed", "error", err)
			}
		}()
		dispatcher.Run(ctx)
	})

	handler := httpgateway.New(fs, cfg.Gateway, mux, logger)

	logger.Info("relayfsd listening", "address", listener.Address(), "mode", cfg.Transport.Mode)
	return listener.Serve(ctx, handler)
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func newListener(cfg *config.Config) (transport.Listener, error) {
	switch cfg.Transport.Mode {
	case "", "tcp":
		return transport.NewTCPListener(cfg.Transport.ListenAddr)
	default:
		return nil, fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
	}
}
