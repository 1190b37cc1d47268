// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/resolve"
	"github.com/holomush/nodegraft/internal/scene"
)

// Resolve modes.
const (
	modeSparse     = "sparse"
	modeExact      = "exact"
	modeBestEffort = "best-effort"
)

func newResolveCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "resolve <scene.yaml> <path>",
		Short: "Resolve a node path against a scene",
		Long: `Resolves a backslash-separated node path against the scene and
prints the concrete path of the node found.

Modes:
  sparse       segments match in order, gaps allowed (default)
  exact        segments match consecutive descendants
  best-effort  sparse, falling back to the deepest partial match`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(a, cmd.OutOrStdout(), args[0], args[1], mode)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", modeSparse, "resolve mode (sparse, exact or best-effort)")
	return cmd
}

func runResolve(a *app, out io.Writer, scenePath, text, mode string) error {
	pool := intern.NewPool()
	root, err := scene.LoadFile(pool, scenePath)
	if err != nil {
		return err
	}
	path := nodepath.Parse(pool, text)
	defer path.Release()

	b := resolve.NewBuilder()
	var (
		found   scene.Node
		matched = path.Len()
	)
	switch mode {
	case modeSparse:
		found, err = b.Sparse(root, path.View())
	case modeExact:
		found, err = b.Exact(root, path.View())
	case modeBestEffort:
		found, matched, err = b.BestEffort(root, path.View())
	default:
		return fmt.Errorf("mode must be sparse, exact or best-effort, got %q", mode)
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", text, err)
	}
	if found == nil {
		return fmt.Errorf("no node matches %s", text)
	}

	names := b.Names()
	defer names.Release()
	a.logger.Debug("path resolved",
		"path", text,
		"mode", mode,
		"matched", matched,
		"depth", b.Depth())
	_, err = fmt.Fprintln(out, names.Text())
	return err
}
