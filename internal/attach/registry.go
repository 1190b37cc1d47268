// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package attach keeps the structural edits made to a host tree so they can be
// re-applied whenever the tree is rebuilt.
//
// A Registry holds the records of one owner, sorted by cached depth with
// unresolved records last. Apply passes walk the records forward so synthetic
// ancestors exist before the edits below them; teardown walks them backward.
package attach

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/resolve"
	"github.com/holomush/nodegraft/internal/scene"
)

// TemplateLoader produces fresh, detached clones of template models.
type TemplateLoader interface {
	Load(model string) (scene.Node, error)
}

// EntitySource produces a detached copy of an owner's model with that owner's
// own attachments already applied.
type EntitySource interface {
	Subtree(owner ulid.ULID) (scene.Node, error)
}

// Hook runs after a subtree has been grafted and sees its final parent chain.
type Hook func(subtree, root scene.Node)

// Config configures a Registry.
type Config struct {
	// Pool interns names. Defaults to intern.Default().
	Pool *intern.Pool
	// Factory creates empty and wrapper nodes. Defaults to scene.MemFactory.
	Factory scene.Factory
	// Templates loads KindTemplate payloads.
	Templates TemplateLoader
	// Entities loads KindEntity payloads.
	Entities EntitySource
	// Hooks run after each graft. Nil selects scene.InitLights; pass an empty
	// slice for none.
	Hooks []Hook
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Registry is the ordered set of records for one owner.
// It is not safe for concurrent use.
type Registry struct {
	pool      *intern.Pool
	factory   scene.Factory
	templates TemplateLoader
	entities  EntitySource
	hooks     []Hook
	logger    *slog.Logger

	records []*Record
	builder *resolve.Builder
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		pool:      cfg.Pool,
		factory:   cfg.Factory,
		templates: cfg.Templates,
		entities:  cfg.Entities,
		hooks:     cfg.Hooks,
		logger:    cfg.Logger,
		builder:   resolve.NewBuilder(),
	}
	if r.pool == nil {
		r.pool = intern.Default()
	}
	if r.factory == nil {
		r.factory = scene.MemFactory{}
	}
	if r.hooks == nil {
		r.hooks = []Hook{scene.InitLights}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Pool returns the pool the registry interns names in.
func (r *Registry) Pool() *intern.Pool { return r.pool }

// Parse parses formatted text in the registry's pool.
func (r *Registry) Parse(text string, kind Kind, source string) (Request, error) {
	return ParseRequest(r.pool, text, kind, source)
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.records) }

// Records returns the records in apply order.
func (r *Registry) Records() []*Record {
	return slices.Clone(r.records)
}

// Clear drops every record without touching any tree.
func (r *Registry) Clear() {
	for _, rec := range r.records {
		rec.Release()
	}
	r.records = nil
}

// Find returns the record identified by q, or nil.
func (r *Registry) Find(q *Request) *Record {
	rec, _ := lo.Find(r.records, func(rec *Record) bool {
		return rec.matches(q.Sparse.View(), q.Leaf, q.Payload)
	})
	return rec
}

// Has reports whether a record identified by q exists.
func (r *Registry) Has(q *Request) bool {
	return r.Find(q) != nil
}

// FindFormatted returns the record whose formatted text is text. Failing
// that, text is read as a node request and matched by leaf name, which also
// finds a template or entity record by the name of the subtree it grafted.
func (r *Registry) FindFormatted(text string) *Record {
	if rec, ok := lo.Find(r.records, func(rec *Record) bool { return rec.Format() == text }); ok {
		return rec
	}
	q, err := ParseRequest(r.pool, text, KindNode, "")
	if err != nil {
		return nil
	}
	defer q.Release()
	return r.Find(&q)
}

func (r *Registry) duplicate(rec *Record) bool {
	return lo.ContainsBy(r.records, func(existing *Record) bool {
		return existing.matches(rec.Sparse.View(), rec.Leaf, rec.Payload)
	})
}

// Register records req and, when root is non-nil, applies it to root first.
// Register takes ownership of req. With insert false the edit is applied but
// not remembered, and the returned record belongs to the caller.
func (r *Registry) Register(root scene.Node, req Request, insert bool) (*Record, error) {
	rec := &Record{
		Sparse:  req.Sparse,
		Leaf:    req.Leaf,
		Payload: req.Payload,
		Source:  req.Source,
	}

	var subtree scene.Node
	if rec.Payload.grafts() {
		var err error
		subtree, err = r.loadSubtree(rec.Payload)
		if err != nil {
			rec.Release()
			RecordOperation(OpRegister, StatusFor(err))
			return nil, err
		}
		rec.Leaf = subtree.Name().Retain()
	}

	if r.duplicate(rec) {
		err := ErrAlreadyExists(rec.Sparse.Text(), rec.Leaf.String())
		rec.Release()
		RecordOperation(OpRegister, StatusAlreadyExists)
		return nil, err
	}

	if root != nil {
		if err := r.apply(root, rec, subtree, true); err != nil {
			rec.Release()
			RecordOperation(OpRegister, StatusFor(err))
			return nil, err
		}
	}

	if insert {
		r.records = append(r.records, rec)
		r.sort()
	}
	r.logger.Debug("attachment registered",
		"spec", rec.Format(),
		"kind", rec.Payload.Kind.String(),
		"source", rec.Source,
		"resolved", rec.Resolved(),
		"stored", insert)
	RecordOperation(OpRegister, StatusSuccess)
	return rec, nil
}

// CopyFrom adds clones of src's records that are not already present.
// It returns how many were copied.
func (r *Registry) CopyFrom(src *Registry) int {
	copied := 0
	for _, rec := range src.records {
		if r.duplicate(rec) {
			continue
		}
		r.records = append(r.records, rec.clone())
		copied++
	}
	r.sort()
	RecordOperation(OpCopy, StatusSuccess)
	return copied
}

// sort restores the depth ordering: resolved records by cached depth, then
// cached text; unresolved records last, by sparse text. The sort is stable so
// records of equal key keep registration order.
func (r *Registry) sort() {
	slices.SortStableFunc(r.records, compareRecords)
}

func compareRecords(a, b *Record) int {
	if a.Resolved() != b.Resolved() {
		if a.Resolved() {
			return -1
		}
		return 1
	}
	if !a.Resolved() {
		return strings.Compare(a.Sparse.Text(), b.Sparse.Text())
	}
	if c := cmp.Compare(a.Depth(), b.Depth()); c != 0 {
		return c
	}
	return strings.Compare(a.Cached.Text(), b.Cached.Text())
}

func (r *Registry) loadSubtree(p Payload) (scene.Node, error) {
	var (
		subtree scene.Node
		err     error
	)
	switch p.Kind {
	case KindTemplate:
		if r.templates == nil {
			return nil, ErrTemplateLoadFailed(p.Model, nil)
		}
		subtree, err = r.templates.Load(p.Model)
		if err != nil || subtree == nil {
			return nil, ErrTemplateLoadFailed(p.Model, err)
		}
	case KindEntity:
		if r.entities == nil {
			return nil, ErrTemplateLoadFailed(p.Entity.String(), nil)
		}
		subtree, err = r.entities.Subtree(p.Entity)
		if err != nil || subtree == nil {
			return nil, ErrTemplateLoadFailed(p.Entity.String(), err)
		}
	default:
		return nil, nil
	}
	scene.StripCollision(subtree)
	scene.AddSuffix(subtree, p.Suffix)
	return subtree, nil
}

// UpdatePathsOnNodeInsert records that a node called name was inserted as the
// parent of the node at path at. Every cached path running through at gains
// the new segment.
func (r *Registry) UpdatePathsOnNodeInsert(at nodepath.View, name intern.Name) {
	r.editCaches(at, func(rec *Record) { rec.Cached.Insert(at.Len()-1, name) })
}

// UpdatePathsOnNodeRename records that the node at path at is now called name.
func (r *Registry) UpdatePathsOnNodeRename(at nodepath.View, name intern.Name) {
	r.editCaches(at, func(rec *Record) { rec.Cached.Replace(at.Len()-1, name) })
}

// UpdatePathsOnNodeRemove records that the node at path at was removed and
// its children moved up to its parent.
func (r *Registry) UpdatePathsOnNodeRemove(at nodepath.View) {
	r.editCaches(at, func(rec *Record) { rec.Cached.Remove(at.Len() - 1) })
}

func (r *Registry) editCaches(at nodepath.View, edit func(*Record)) {
	if at.Empty() {
		return
	}
	for _, rec := range r.records {
		if rec.Resolved() && rec.Cached.View().HasPrefix(at) {
			edit(rec)
		}
	}
	r.sort()
}
