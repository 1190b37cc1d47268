// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/nodegraft/internal/attach"
	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/owner"
	"github.com/holomush/nodegraft/internal/scene"
)

// Output formats for apply.
const (
	outputOutline = "outline"
	outputYAML    = "yaml"
)

// editFile is the YAML document read by apply.
type editFile struct {
	Edits []edit `yaml:"edits"`
}

type edit struct {
	Spec   string `yaml:"spec"`
	Kind   string `yaml:"kind,omitempty"`
	Source string `yaml:"source,omitempty"`
}

type applyOptions struct {
	rebuilds int
	output   string
	metrics  bool
}

func newApplyCmd(a *app) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <scene.yaml> <edits.yaml>",
		Short: "Apply attachment edits to a scene and print the result",
		Long: `Builds the scene, registers every edit in the edits file, then
rebuilds the scene the requested number of times, re-applying the
registered edits to each new tree. The final tree is printed.

Each edit has a formatted spec such as "Torso|Prop", a kind (node,
template, entity or wrapper; default node) and an optional source tag.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(a, opts, cmd.OutOrStdout(), args[0], args[1])
		},
	}

	cmd.Flags().IntVar(&opts.rebuilds, "rebuilds", 1, "number of rebuild and re-apply passes")
	cmd.Flags().StringVar(&opts.output, "output", outputOutline, "output format (outline or yaml)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print attachment metrics after the tree")

	return cmd
}

func readEdits(path string) (*editFile, error) {
	//nolint:gosec // path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edits: %w", err)
	}
	var ef editFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parse edits %s: %w", path, err)
	}
	return &ef, nil
}

func runApply(a *app, opts *applyOptions, out io.Writer, scenePath, editsPath string) error {
	if opts.output != outputOutline && opts.output != outputYAML {
		return fmt.Errorf("output must be 'outline' or 'yaml', got %q", opts.output)
	}
	if opts.rebuilds < 0 {
		return fmt.Errorf("rebuilds must not be negative")
	}

	var reg *prometheus.Registry
	if opts.metrics {
		reg = prometheus.NewRegistry()
		attach.RegisterMetrics(reg)
	}

	pool := intern.NewPool()
	lib, err := a.library(pool)
	if err != nil {
		return err
	}
	tpl, err := scene.LoadFile(pool, scenePath)
	if err != nil {
		return err
	}
	ef, err := readEdits(editsPath)
	if err != nil {
		return err
	}

	dir := owner.NewDirectory(owner.Config{Pool: pool, Templates: lib, Logger: a.logger})
	defer dir.Shutdown()
	svc := owner.NewService(dir, a.logger)
	id := ulid.Make()

	root := tpl.Clone()
	failed := 0
	for _, e := range ef.Edits {
		kind := attach.KindNode
		if e.Kind != "" {
			if kind, err = attach.ParseKind(e.Kind); err != nil {
				return fmt.Errorf("edit %q: %w", e.Spec, err)
			}
		}
		source := e.Source
		if source == "" {
			source = a.cfg.Source
		}
		if !svc.Register(id, e.Spec, owner.Descriptor{Kind: kind, Source: source}, root, true) {
			failed++
			a.logger.Warn("edit not applied", "spec", e.Spec, "kind", kind.String())
		}
	}

	for range opts.rebuilds {
		root = tpl.Clone()
		if records := dir.Registry(id); records != nil && records.Len() > 0 && !svc.ReapplyAll(id, root) {
			a.logger.Warn("rebuild left some edits unapplied")
		}
	}

	if err := writeTree(out, root, opts.output); err != nil {
		return err
	}
	if reg != nil {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d edits failed", failed, len(ef.Edits))
	}
	return nil
}

func writeTree(out io.Writer, root scene.Node, format string) error {
	if format == outputYAML {
		doc := scene.Document{Version: "1.0.0", Root: scene.Describe(root)}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("encode tree: %w", err)
		}
		return enc.Close()
	}
	_, err := io.WriteString(out, scene.Format(root))
	return err
}

func writeMetrics(out io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
