// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the scene document JSON Schema to
// schemas/scene.schema.json.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/holomush/nodegraft/internal/scene"
)

func main() {
	outPath := filepath.Join("schemas", "scene.schema.json")
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}
	if err := generate(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s\n", outPath)
}

func generate(outPath string) error {
	schema, err := scene.GenerateSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
