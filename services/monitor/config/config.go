// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the watchdog daemon's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Sentinel errors for configuration validation.
var (
	ErrMissingServerRoot = errors.New("server_root is required")
	ErrBadListenAddr     = errors.New("listen_addr must be host:port")
)

// Config is the daemon's file-backed configuration. Everything an
// operator changes at runtime lives in the settings store instead; this
// file only carries deployment facts.
type Config struct {
	// ListenAddr is the admin API bind address. Defaults to ":8095".
	ListenAddr string `yaml:"listen_addr"`

	// DataDir holds the settings database and the backup blobs.
	// Defaults to "/var/lib/oowatch".
	DataDir string `yaml:"data_dir"`

	// PHPPath is the PHP interpreter for the health probe. Defaults to
	// "php".
	PHPPath string `yaml:"php_path"`

	// ServerRoot is the monitored installation's root directory; the
	// probe runs "<ServerRoot>/occ". Required.
	ServerRoot string `yaml:"server_root"`

	// OutFilePath seeds the flat-file backup target when the operator
	// has not set one. Empty selects appdata mode.
	OutFilePath string `yaml:"out_file_path"`

	// LogDir receives the daemon's JSON log files. Empty disables file
	// logging.
	LogDir string `yaml:"log_dir"`

	// LogLevel is debug, info, warn, or error. Defaults to "info".
	LogLevel string `yaml:"log_level"`
}

// Load reads, defaults, and validates the configuration at path.
//
// A missing file is not an error: defaults apply, and validation still
// runs (so ServerRoot must come from somewhere, e.g. a generated file).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8095"
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/oowatch"
	}
	if c.PHPPath == "" {
		c.PHPPath = "php"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if c.ServerRoot == "" {
		return ErrMissingServerRoot
	}
	if _, _, ok := splitHostPort(c.ListenAddr); !ok {
		return fmt.Errorf("%w: got %q", ErrBadListenAddr, c.ListenAddr)
	}
	return nil
}

// SettingsPath is the on-disk location of the settings database.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings")
}

// BackupPath is the on-disk location of the backup blobs.
func (c *Config) BackupPath() string {
	return filepath.Join(c.DataDir, "backup")
}

// splitHostPort is a permissive host:port split; the host may be empty.
func splitHostPort(addr string) (host, port string, ok bool) {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i], addr[i+1:], addr[i+1:] != ""
		}
	}
	return "", "", false
}
