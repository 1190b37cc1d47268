// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"errors"
	"slices"

	"github.com/gobwas/glob"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/scene"
)

// ReapplyAll applies every record to root, shallowest first. Records flagged
// stale on the previous pass are dropped first. A record whose model fails to
// load has its cache cleared and is flagged for dropping; a record whose
// attach point is missing has its cache cleared and stays pending. The
// returned error joins every per-record failure.
func (r *Registry) ReapplyAll(root scene.Node) error {
	if root == nil {
		return oops.Code(CodeInvalidSpec).Errorf("reapply needs a root")
	}

	r.records = slices.DeleteFunc(r.records, func(rec *Record) bool {
		if !rec.stale {
			return false
		}
		r.logger.Info("dropping attachment whose model failed to load",
			"spec", rec.Format(), "source", rec.Source)
		rec.Release()
		return true
	})
	r.sort()

	pass := slices.Clone(r.records)
	ReapplyRecords.Observe(float64(len(pass)))

	var errs []error
	for _, rec := range pass {
		err := r.apply(root, rec, nil, false)
		RecordOperation(OpReapply, StatusFor(err))
		if err == nil {
			continue
		}
		switch {
		case HasCode(err, CodeTemplateLoadFailed):
			rec.clearCache()
			rec.stale = true
		case HasCode(err, CodeNotFound):
			rec.clearCache()
		}
		r.logger.Warn("attachment not reapplied",
			"spec", rec.Format(),
			"source", rec.Source,
			"error", err)
		errs = append(errs, err)
	}
	r.sort()
	return errors.Join(errs...)
}

// DetachAll undoes every applied record on root, deepest first. Records stay
// registered.
func (r *Registry) DetachAll(root scene.Node) error {
	if root == nil {
		return nil
	}
	pass := slices.Clone(r.records)
	var errs []error
	for _, rec := range slices.Backward(pass) {
		if !rec.Resolved() {
			continue
		}
		err := r.detach(root, rec)
		RecordOperation(OpDetach, StatusFor(err))
		if err != nil {
			r.logger.Debug("attachment not detached", "spec", rec.Format(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reconcile brings root in line with the registry: every applied edit is
// undone deepest first, then every record is applied shallowest first.
func (r *Registry) Reconcile(root scene.Node) error {
	detachErr := r.DetachAll(root)
	if detachErr != nil {
		r.logger.Debug("reconcile detach pass incomplete", "error", detachErr)
	}
	return r.ReapplyAll(root)
}

// Remove deletes the record identified by q and every record nested below
// the node it created. When root is non-nil the removed edits are undone on
// root, deepest first. Removed records are returned deepest first.
func (r *Registry) Remove(root scene.Node, q *Request) ([]*Record, error) {
	match := r.Find(q)
	if match == nil {
		RecordOperation(OpRemove, StatusNotFound)
		return nil, ErrNotFound(q.Sparse.Text(), q.Leaf.String())
	}
	return r.removeMatch(root, match), nil
}

// RemoveFormatted is Remove for the record FindFormatted returns for text.
func (r *Registry) RemoveFormatted(root scene.Node, text string) ([]*Record, error) {
	match := r.FindFormatted(text)
	if match == nil {
		RecordOperation(OpRemove, StatusNotFound)
		return nil, oops.Code(CodeNotFound).With("spec", text).Errorf("no attachment matches")
	}
	return r.removeMatch(root, match), nil
}

func (r *Registry) removeMatch(root scene.Node, match *Record) []*Record {
	applied := match.AppliedPath()
	defer applied.Release()
	key := nodepath.Join(match.Sparse.View(), nodepath.ViewOf(match.Leaf))
	defer key.Release()

	removed := lo.Filter(r.records, func(rec *Record, _ int) bool {
		if rec == match {
			return true
		}
		if rec.Resolved() && !applied.Empty() {
			return rec.Cached.View().HasPrefix(applied.View())
		}
		return rec.Sparse.View().HasPrefix(key.View())
	})
	r.dropRecords(removed)
	r.detachRemoved(root, removed)

	RecordOperation(OpRemove, StatusSuccess)
	return removed
}

// PurgeBySource removes every record registered with source tag and undoes
// them on root when root is non-nil.
func (r *Registry) PurgeBySource(root scene.Node, tag string) []*Record {
	removed := lo.Filter(r.records, func(rec *Record, _ int) bool { return rec.Source == tag })
	r.dropRecords(removed)
	r.detachRemoved(root, removed)
	RecordOperation(OpPurge, StatusSuccess)
	return removed
}

// PurgeMatching removes every record whose source tag matches the glob
// pattern. Segments of the pattern are separated by '.'.
func (r *Registry) PurgeMatching(root scene.Node, pattern string) ([]*Record, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		RecordOperation(OpPurge, StatusError)
		return nil, oops.Code(CodeInvalidSpec).With("pattern", pattern).Wrapf(err, "compile source pattern")
	}
	removed := lo.Filter(r.records, func(rec *Record, _ int) bool { return g.Match(rec.Source) })
	r.dropRecords(removed)
	r.detachRemoved(root, removed)
	RecordOperation(OpPurge, StatusSuccess)
	return removed, nil
}

func (r *Registry) dropRecords(removed []*Record) {
	if len(removed) == 0 {
		return
	}
	r.records = slices.DeleteFunc(r.records, func(rec *Record) bool {
		return slices.Contains(removed, rec)
	})
}

// detachRemoved sorts removed deepest first and undoes each on root.
func (r *Registry) detachRemoved(root scene.Node, removed []*Record) {
	slices.SortStableFunc(removed, func(a, b *Record) int { return compareRecords(b, a) })
	if root == nil {
		return
	}
	for _, rec := range removed {
		if !rec.Resolved() {
			continue
		}
		if err := r.detach(root, rec); err != nil {
			r.logger.Debug("removed attachment was not in the tree",
				"spec", rec.Format(), "error", err)
		}
	}
}
