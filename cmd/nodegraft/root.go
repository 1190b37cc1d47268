// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/nodegraft/internal/config"
	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/logging"
	"github.com/holomush/nodegraft/internal/scene"
	"github.com/holomush/nodegraft/internal/xdg"
)

// app carries state shared by subcommands once the root has loaded config.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the nodegraft CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "nodegraft",
		Short: "nodegraft - durable structural edits for rebuilt scene trees",
		Long: `nodegraft records structural edits made to a scene tree and
re-applies them every time the tree is rebuilt from its template.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file path")
	flags.String("log-format", config.DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("templates-dir", "", "directory of template YAML documents")
	flags.String("source", config.DefaultSource, "source tag recorded on new attachments")

	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newResolveCmd(a))
	cmd.AddCommand(newValidateCmd(a))
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		path = xdg.Existing(xdg.ConfigFile())
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Options{
		Service: "nodegraft",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}

// library loads the configured templates directory, or the XDG default
// when none is configured, into a new library.
func (a *app) library(pool *intern.Pool) (*scene.Library, error) {
	lib := scene.NewLibrary(pool)
	dir := a.cfg.TemplatesDir
	if dir == "" {
		dir = xdg.Existing(xdg.TemplatesDir())
	}
	if dir == "" {
		return lib, nil
	}
	n, err := lib.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	a.logger.Debug("templates loaded", "dir", dir, "count", n)
	return lib, nil
}
