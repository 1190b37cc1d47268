// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/holomush/nodegraft/internal/scene"
)

func newSchemaCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the scene document JSON Schema",
		Long: `Prints the JSON Schema for scene and template documents, or
writes it to the file given with --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := scene.GenerateSchema()
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			return os.WriteFile(outPath, data, 0o600)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "write the schema to this file")
	return cmd
}
