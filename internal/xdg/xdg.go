// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg provides XDG Base Directory paths for nodegraft.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "nodegraft"

// ConfigDir returns the XDG config directory for nodegraft.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DataDir returns the XDG data directory for nodegraft.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// TemplatesDir returns the default templates directory.
func TemplatesDir() string {
	return filepath.Join(DataDir(), "templates")
}

// Existing returns path when it exists, or "".
func Existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
