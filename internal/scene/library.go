// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scene

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/intern"
)

// CodeTemplateNotFound is the oops code for an unknown template model.
const CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"

// Library holds template trees by model name. Load hands out fresh clones so
// grafted copies never alias the stored template.
type Library struct {
	pool      *intern.Pool
	templates map[string]*MemNode
}

// NewLibrary creates an empty library interning names in pool.
func NewLibrary(pool *intern.Pool) *Library {
	return &Library{pool: pool, templates: make(map[string]*MemNode)}
}

// Add stores root under model, replacing any previous template.
func (l *Library) Add(model string, root *MemNode) {
	l.templates[model] = root
}

// AddDocument builds d and stores it under model.
func (l *Library) AddDocument(model string, d *Document) {
	l.Add(model, d.Build(l.pool))
}

// Has reports whether model is known.
func (l *Library) Has(model string) bool {
	_, ok := l.templates[model]
	return ok
}

// Models lists known model names in sorted order.
func (l *Library) Models() []string {
	out := make([]string, 0, len(l.templates))
	for m := range l.templates {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Load returns a detached clone of model.
func (l *Library) Load(model string) (Node, error) {
	tpl, ok := l.templates[model]
	if !ok {
		return nil, oops.Code(CodeTemplateNotFound).With("model", model).Errorf("template not found")
	}
	return tpl.Clone(), nil
}

// LoadDir adds every *.yaml document below dir. The model name is the file
// path relative to dir, without extension, using forward slashes.
// Invalid documents are logged and skipped. A missing dir is not an error.
func (l *Library) LoadDir(dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to stat templates directory: %w", err)
	}

	loaded := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}

		data, err := os.ReadFile(path) //nolint:gosec // path comes from WalkDir under dir
		if err != nil {
			slog.Warn("skipping unreadable template", "path", path, "error", err)
			return nil
		}

		doc, err := ParseDocument(data)
		if err != nil {
			slog.Warn("skipping invalid template", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		model := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		l.AddDocument(model, doc)
		loaded++
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("failed to read templates directory: %w", err)
	}
	return loaded, nil
}

func isYAML(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile parses the scene document at path and builds its tree.
func LoadFile(pool *intern.Pool, path string) (*MemNode, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Build(pool), nil
}
