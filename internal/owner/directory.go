// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package owner maps owning entities to their attachment registries.
//
// A Directory holds one registry per owner plus the first-person registry,
// which mirrors every edit made to a paired owner against a separate root.
// The directory is single-goroutine state; pass it by reference. Default
// returns a process-wide instance created on first use.
package owner

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/attach"
	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/scene"
)

// Error codes.
const (
	CodeEntityCycle = "ENTITY_CYCLE"
	CodeNoModel     = "NO_MODEL"
)

// ErrEntityCycle creates an error for an entity whose subtree includes itself.
func ErrEntityCycle(owner ulid.ULID) error {
	return oops.Code(CodeEntityCycle).
		With("owner", owner.String()).
		Errorf("entity subtree includes itself")
}

// ErrNoModel creates an error for an owner without a model.
func ErrNoModel(owner ulid.ULID) error {
	return oops.Code(CodeNoModel).
		With("owner", owner.String()).
		Errorf("owner has no model")
}

// Config configures a Directory.
type Config struct {
	// Pool interns names. Defaults to intern.Default().
	Pool *intern.Pool
	// Factory creates empty and wrapper nodes. Defaults to scene.MemFactory.
	Factory scene.Factory
	// Templates loads template payloads and owner models.
	Templates attach.TemplateLoader
	// Hooks run after each graft. Nil selects the registry default.
	Hooks []attach.Hook
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Directory maps owners to registries.
type Directory struct {
	cfg Config

	registries  map[ulid.ULID]*attach.Registry
	models      map[ulid.ULID]string
	paired      map[ulid.ULID]bool
	building    map[ulid.ULID]bool
	firstPerson *attach.Registry
}

var (
	defaultOnce sync.Once
	defaultDir  *Directory
)

// Default returns the process-wide directory, creating it with an empty
// Config on first use.
func Default() *Directory {
	defaultOnce.Do(func() {
		defaultDir = NewDirectory(Config{})
	})
	return defaultDir
}

// NewDirectory creates an empty directory.
func NewDirectory(cfg Config) *Directory {
	if cfg.Pool == nil {
		cfg.Pool = intern.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	d := &Directory{
		cfg:        cfg,
		registries: make(map[ulid.ULID]*attach.Registry),
		models:     make(map[ulid.ULID]string),
		paired:     make(map[ulid.ULID]bool),
		building:   make(map[ulid.ULID]bool),
	}
	d.firstPerson = d.newRegistry()
	return d
}

func (d *Directory) newRegistry() *attach.Registry {
	return attach.NewRegistry(attach.Config{
		Pool:      d.cfg.Pool,
		Factory:   d.cfg.Factory,
		Templates: d.cfg.Templates,
		Entities:  d,
		Hooks:     d.cfg.Hooks,
		Logger:    d.cfg.Logger,
	})
}

// Pool returns the pool the directory's registries intern names in.
func (d *Directory) Pool() *intern.Pool { return d.cfg.Pool }

// Registry returns the owner's registry, or nil.
func (d *Directory) Registry(owner ulid.ULID) *attach.Registry {
	return d.registries[owner]
}

// Ensure returns the owner's registry, creating it if needed.
func (d *Directory) Ensure(owner ulid.ULID) *attach.Registry {
	reg, ok := d.registries[owner]
	if !ok {
		reg = d.newRegistry()
		d.registries[owner] = reg
	}
	return reg
}

// Drop clears and forgets the owner's registry. It reports whether one
// existed. The owner's model and pairing are kept.
func (d *Directory) Drop(owner ulid.ULID) bool {
	reg, ok := d.registries[owner]
	if !ok {
		return false
	}
	reg.Clear()
	delete(d.registries, owner)
	return true
}

// Owners returns the owners that have a registry, in ULID order.
func (d *Directory) Owners() []ulid.ULID {
	owners := lo.Keys(d.registries)
	slices.SortFunc(owners, func(a, b ulid.ULID) int { return a.Compare(b) })
	return owners
}

// FirstPerson returns the first-person registry.
func (d *Directory) FirstPerson() *attach.Registry { return d.firstPerson }

// Pair marks owner as mirrored into the first-person registry.
func (d *Directory) Pair(owner ulid.ULID) { d.paired[owner] = true }

// Unpair stops mirroring owner.
func (d *Directory) Unpair(owner ulid.ULID) { delete(d.paired, owner) }

// Paired reports whether owner is mirrored into the first-person registry.
func (d *Directory) Paired(owner ulid.ULID) bool { return d.paired[owner] }

// SetModel sets the template model the owner's tree is built from. An empty
// model clears it.
func (d *Directory) SetModel(owner ulid.ULID, model string) {
	if model == "" {
		delete(d.models, owner)
		return
	}
	d.models[owner] = model
}

// Model returns the owner's model.
func (d *Directory) Model(owner ulid.ULID) (string, bool) {
	m, ok := d.models[owner]
	return m, ok
}

// Build loads a fresh copy of the owner's model and applies the owner's
// records to it. The returned tree is detached and belongs to the caller.
// Records that fail to apply are logged and left out; the owner's records
// are not modified.
func (d *Directory) Build(owner ulid.ULID) (scene.Node, error) {
	model, ok := d.models[owner]
	if !ok {
		return nil, ErrNoModel(owner)
	}
	if d.cfg.Templates == nil {
		return nil, attach.ErrTemplateLoadFailed(model, nil)
	}
	if d.building[owner] {
		return nil, ErrEntityCycle(owner)
	}
	d.building[owner] = true
	defer delete(d.building, owner)

	root, err := d.cfg.Templates.Load(model)
	if err != nil || root == nil {
		return nil, attach.ErrTemplateLoadFailed(model, err)
	}

	reg, ok := d.registries[owner]
	if !ok || reg.Len() == 0 {
		return root, nil
	}
	scratch := d.newRegistry()
	defer scratch.Clear()
	scratch.CopyFrom(reg)
	if err := scratch.ReapplyAll(root); err != nil {
		d.cfg.Logger.Debug("owner model built with missing attachments",
			"owner", owner.String(),
			"model", model,
			"error", err)
	}
	return root, nil
}

// Subtree implements attach.EntitySource.
func (d *Directory) Subtree(owner ulid.ULID) (scene.Node, error) {
	return d.Build(owner)
}

// Shutdown clears every registry, including the first-person registry, and
// forgets every owner.
func (d *Directory) Shutdown() {
	for _, reg := range d.registries {
		reg.Clear()
	}
	clear(d.registries)
	clear(d.models)
	clear(d.paired)
	d.firstPerson.Clear()
}
