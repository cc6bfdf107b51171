// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for relayfs components.
//
// Configuration is loaded from a single file specified by:
//   - RELAYFS_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a relayfs bridge instance.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Gateway configures the HTTP gateway (§4.6 of the VFS bridge spec).
	Gateway GatewayConfig `yaml:"gateway"`

	// Transport configures the RPC channel's underlying connection.
	Transport TransportConfig `yaml:"transport"`

	// Registry configures Handle Registry limits.
	Registry RegistryConfig `yaml:"registry"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Gateway   *GatewayConfig   `yaml:"gateway,omitempty"`
	Transport *TransportConfig `yaml:"transport,omitempty"`
	Registry  *RegistryConfig  `yaml:"registry,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for relayfs runtime state.
	Root string `yaml:"root"`

	// Bin is where relayfs binaries are installed (relayfsd, relayfs-bridge).
	// This provides hermetic binary paths independent of user PATH.
	Bin string `yaml:"bin"`

	// Sockets is where Unix domain sockets (RPC/HTTP front doors, tmux
	// server sockets for PTY handles) are created.
	Sockets string `yaml:"sockets"`

	// State is where runtime state (registry snapshots for diagnostics) is stored.
	State string `yaml:"state"`
}

// GatewayConfig configures the HTTP gateway's mount options (§6.4).
type GatewayConfig struct {
	// MountPrefix is the URL path prefix the VFS is exposed under.
	// Normalized to end in "/". Default: "/fs/"
	MountPrefix string `yaml:"mount_prefix"`

	// ReadOnly forwards any non-GET/HEAD method to the next handler
	// instead of dispatching it to the VFS.
	ReadOnly bool `yaml:"read_only"`

	// AutoIndex is the filename tried for trailing-slash GETs before
	// falling back to a directory listing (e.g. "index.html"). Empty
	// disables the fallback, going straight to readdir.
	AutoIndex string `yaml:"auto_index"`

	// NoMime swaps the Content-Type for application/octet-stream and
	// reports the VFS-reported mime type via X-VFS-Content-Type instead.
	NoMime bool `yaml:"no_mime"`

	// MaxStreamBytes is the §4.6/§6.2 oversized-stream threshold (HTTP 513).
	// Default: 8388608 (8 MiB).
	MaxStreamBytes int64 `yaml:"max_stream_bytes"`

	// ENOENTAsNotFound resolves the spec.md §7/§9 Open Question: when
	// false (default, matches spec.md), ENOENT maps to HTTP 200 with a
	// text/x-error body so clients inspect Content-Type. When true,
	// ENOENT maps to the more conventional HTTP 404.
	ENOENTAsNotFound bool `yaml:"enoent_as_not_found"`

	// GzipDirectoryListing gzips directory-listing JSON and oversized
	// stream error bodies when the client sends Accept-Encoding: gzip.
	GzipDirectoryListing bool `yaml:"gzip_directory_listing"`
}

// TransportConfig configures the RPC channel's underlying connection.
type TransportConfig struct {
	// Mode selects the transport. "tcp" is the only supported value;
	// the field exists so a future transport can be added without
	// breaking the config file shape. Default: "tcp"
	Mode string `yaml:"mode"`

	// ListenAddr is the TCP address the RPC/HTTP front door listens on.
	// Default: "127.0.0.1:7890"
	ListenAddr string `yaml:"listen_addr"`

	// SocketPath is a Unix socket path for deployments that put a
	// bridge (see the bridge package) in front of a Unix socket.
	// relayfsd itself listens only on ListenAddr and does not read it.
	SocketPath string `yaml:"socket_path"`

	// OutboundQueueSize bounds the RPC channel's outbound message queue
	// before Send reports "not accepting" (§4.4/§5 backpressure).
	// Default: 256.
	OutboundQueueSize int `yaml:"outbound_queue_size"`
}

// RegistryConfig configures Handle Registry limits.
type RegistryConfig struct {
	// WatcherPayloadCompressionThreshold is the byte size above which
	// an onChange event's files[] listing is lz4-compressed before
	// being handed to the RPC channel. Zero disables compression.
	// Default: 65536.
	WatcherPayloadCompressionThreshold int `yaml:"watcher_payload_compression_threshold"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "relayfs")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:    defaultRoot,
			Bin:     filepath.Join(defaultRoot, "bin"),
			Sockets: filepath.Join(defaultRoot, "sockets"),
			State:   filepath.Join(defaultRoot, "state"),
		},
		Gateway: GatewayConfig{
			MountPrefix:    "/fs/",
			AutoIndex:      "",
			MaxStreamBytes: 8 << 20,
		},
		Transport: TransportConfig{
			Mode:              "tcp",
			ListenAddr:        "127.0.0.1:7890",
			SocketPath:        "/run/relayfs/bridge.sock",
			OutboundQueueSize: 256,
		},
		Registry: RegistryConfig{
			WatcherPayloadCompressionThreshold: 64 << 10,
		},
	}
}

// Load loads configuration from the RELAYFS_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if RELAYFS_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("RELAYFS_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("RELAYFS_CONFIG environment variable not set; " +
			"set it to the path of your relayfs.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: stricter gateway behavior.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Gateway: &GatewayConfig{
					ReadOnly: true,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Bin != "" {
			c.Paths.Bin = overrides.Paths.Bin
		}
		if overrides.Paths.Sockets != "" {
			c.Paths.Sockets = overrides.Paths.Sockets
		}
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
	}

	if overrides.Gateway != nil {
		if overrides.Gateway.MountPrefix != "" {
			c.Gateway.MountPrefix = overrides.Gateway.MountPrefix
		}
		// ReadOnly and NoMime are bools, so they are always applied from overrides.
		c.Gateway.ReadOnly = overrides.Gateway.ReadOnly
		c.Gateway.NoMime = overrides.Gateway.NoMime
		if overrides.Gateway.AutoIndex != "" {
			c.Gateway.AutoIndex = overrides.Gateway.AutoIndex
		}
		if overrides.Gateway.MaxStreamBytes != 0 {
			c.Gateway.MaxStreamBytes = overrides.Gateway.MaxStreamBytes
		}
	}

	if overrides.Transport != nil {
		if overrides.Transport.Mode != "" {
			c.Transport.Mode = overrides.Transport.Mode
		}
		if overrides.Transport.ListenAddr != "" {
			c.Transport.ListenAddr = overrides.Transport.ListenAddr
		}
		if overrides.Transport.SocketPath != "" {
			c.Transport.SocketPath = overrides.Transport.SocketPath
		}
		if overrides.Transport.OutboundQueueSize != 0 {
			c.Transport.OutboundQueueSize = overrides.Transport.OutboundQueueSize
		}
	}

	if overrides.Registry != nil && overrides.Registry.WatcherPayloadCompressionThreshold != 0 {
		c.Registry.WatcherPayloadCompressionThreshold = overrides.Registry.WatcherPayloadCompressionThreshold
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"RELAYFS_ROOT": c.Paths.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["RELAYFS_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Bin = expandVars(c.Paths.Bin, vars)
	c.Paths.Sockets = expandVars(c.Paths.Sockets, vars)
	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Transport.SocketPath = expandVars(c.Transport.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Gateway.MaxStreamBytes <= 0 {
		errs = append(errs, fmt.Errorf("gateway.max_stream_bytes must be positive"))
	}

	modes := []string{"tcp"}
	if !contains(modes, c.Transport.Mode) {
		errs = append(errs, fmt.Errorf("transport.mode must be one of: %v", modes))
	}

	if c.Transport.OutboundQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("transport.outbound_queue_size must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Bin,
		c.Paths.Sockets,
		c.Paths.State,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
