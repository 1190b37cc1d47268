// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/holomush/nodegraft/internal/scene"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scene.yaml>...",
		Short: "Validate scene and template documents",
		Long: `Validates each document against the scene JSON Schema and the
document rules (supported version, named nodes, leaves without children).
Exits with code 0 when every document is valid.

Useful in CI pipelines to catch template errors early:
  nodegraft validate templates/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(a, cmd.OutOrStdout(), args)
		},
	}
}

func validateFile(path string) error {
	//nolint:gosec // path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := scene.ValidateSchema(data); err != nil {
		return fmt.Errorf("%s", scene.FormatSchemaError(err))
	}
	_, err = scene.ParseDocument(data)
	return err
}

func runValidate(a *app, out io.Writer, paths []string) error {
	invalid := 0
	for _, path := range paths {
		if err := validateFile(path); err != nil {
			invalid++
			a.logger.Error("document validation failed", "path", path, "error", err)
			fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", path)
	}

	if invalid > 0 {
		return fmt.Errorf("validation failed: %d of %d documents invalid", invalid, len(paths))
	}
	a.logger.Info("all documents valid", "count", len(paths))
	return nil
}
