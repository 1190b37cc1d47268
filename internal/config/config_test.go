// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/nodegraft/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodegraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-format", config.DefaultLogFormat, "")
	fs.String("log-level", config.DefaultLogLevel, "")
	fs.String("templates-dir", "", "")
	fs.String("source", config.DefaultSource, "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultSource, cfg.Source)
	assert.Empty(t, cfg.TemplatesDir)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, "log_format: json\nsource: quest\ntemplates_dir: "+dir+"\n")

	cfg, err := config.Load(path, flags())
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "quest", cfg.Source)
	assert.Equal(t, dir, cfg.TemplatesDir)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel, "unset flags do not override")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "log_format: json\nsource: quest\n")
	fs := flags()
	require.NoError(t, fs.Parse([]string{"--source", "outfit", "--log-level", "debug", "--verbose"}))

	cfg, err := config.Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "outfit", cfg.Source)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	file := writeFile(t, "")
	tests := []struct {
		name     string
		cfg      config.Config
		errorMsg string
	}{
		{"valid", config.Config{LogFormat: "text", LogLevel: "info", Source: "cli"}, ""},
		{"bad format", config.Config{LogFormat: "xml", LogLevel: "info", Source: "cli"}, "log_format"},
		{"bad level", config.Config{LogFormat: "json", LogLevel: "loud", Source: "cli"}, "log_level"},
		{"no source", config.Config{LogFormat: "json", LogLevel: "info"}, "source"},
		{"templates not a dir", config.Config{LogFormat: "json", LogLevel: "info", Source: "cli", TemplatesDir: file}, "not a directory"},
		{"templates missing", config.Config{LogFormat: "json", LogLevel: "info", Source: "cli", TemplatesDir: file + ".d"}, "templates_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}
