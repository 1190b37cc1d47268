// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads CLI configuration from an optional YAML file, with
// command-line flags taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/holomush/nodegraft/internal/logging"
)

// Config holds settings shared by every subcommand.
type Config struct {
	LogFormat    string `koanf:"log_format"`
	LogLevel     string `koanf:"log_level"`
	TemplatesDir string `koanf:"templates_dir"`
	Source       string `koanf:"source"`
}

// Default values.
const (
	DefaultLogFormat = logging.FormatText
	DefaultLogLevel  = "info"
	DefaultSource    = "cli"
)

var defaults = map[string]any{
	"log_format": DefaultLogFormat,
	"log_level":  DefaultLogLevel,
	"source":     DefaultSource,
}

// Load builds a Config from defaults, then the YAML file at path when path
// is non-empty, then the flags in fs that were set explicitly. Flag names
// map to keys with dashes replaced by underscores.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; !known && key != "templates_dir" {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatText {
		return fmt.Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Source == "" {
		return fmt.Errorf("source is required")
	}
	if c.TemplatesDir != "" {
		info, err := os.Stat(c.TemplatesDir)
		if err != nil {
			return fmt.Errorf("templates_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("templates_dir %q is not a directory", c.TemplatesDir)
		}
	}
	return nil
}
