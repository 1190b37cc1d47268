// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/resolve"
	"github.com/holomush/nodegraft/internal/scene"
)

// locate resolves an attach point. The cached key wins when its exact
// descent reaches the cached depth; otherwise the cache is stale and the
// sparse key is used. stale reports that the cached key was tried and failed.
func (r *Registry) locate(root scene.Node, cachedKey, sparseKey nodepath.View) (node scene.Node, trail []scene.Node, stale bool, err error) {
	b := r.builder
	if !cachedKey.Empty() {
		n, err := b.Exact(root, cachedKey)
		if err != nil {
			return nil, nil, false, err
		}
		if n != nil && b.Depth() == cachedKey.Len() {
			return n, b.Trail(), false, nil
		}
		stale = true
		r.logger.Debug("falling back to sparse path",
			"error", ErrStaleCache(cachedKey.String(), cachedKey.Len()),
			"sparse", sparseKey.String())
	}

	n, err := b.Sparse(root, sparseKey)
	if err != nil {
		return nil, nil, stale, err
	}
	if n == nil {
		return nil, nil, stale, nil
	}
	return n, b.Trail(), stale, nil
}

// apply performs rec's edit on root. At register time an existing leaf is a
// duplicate; during reapply it means the edit is already present. subtree is
// a prepared graft loaded by Register, or nil to load on demand.
func (r *Registry) apply(root scene.Node, rec *Record, subtree scene.Node, atRegister bool) error {
	if rec.Payload.Kind == KindWrapper {
		return r.wrap(root, rec, atRegister)
	}

	point, trail, stale, err := r.locate(root, rec.Cached.View(), rec.Sparse.View())
	if stale {
		rec.clearCache()
	}
	if err != nil {
		return err
	}
	if point == nil {
		return ErrNotFound(rec.Sparse.Text(), rec.Leaf.String())
	}
	if !point.IsBranch() {
		return ErrInvalidSpec(rec.Format(), "attach point cannot hold children")
	}

	if scene.ChildNamed(point, rec.Leaf) != nil {
		if atRegister {
			return ErrAlreadyExists(rec.Sparse.Text(), rec.Leaf.String())
		}
		rec.setCache(trail)
		return nil
	}

	var child scene.Node
	switch rec.Payload.Kind {
	case KindNode:
		child = r.factory.NewNode(rec.Leaf)
	case KindTemplate, KindEntity:
		if subtree == nil {
			subtree, err = r.loadSubtree(rec.Payload)
			if err != nil {
				return err
			}
		}
		if subtree.Name() != rec.Leaf {
			return oops.Code(CodeTemplateLoadFailed).
				With("leaf", rec.Leaf.String()).
				With("root", subtree.Name().String()).
				Errorf("template root no longer matches the recorded leaf")
		}
		child = subtree
	default:
		return ErrInvalidSpec(rec.Format(), "unknown kind")
	}

	if err := point.AttachChild(child); err != nil {
		return oops.Code(CodeInvalidSpec).With("spec", rec.Format()).Wrapf(err, "attach")
	}
	child.SetInserted(true)
	if rec.Payload.grafts() {
		for _, hook := range r.hooks {
			hook(child, root)
		}
	}
	rec.setCache(trail)
	return nil
}

func (r *Registry) wrap(root scene.Node, rec *Record, atRegister bool) error {
	var cachedKey nodepath.Path
	if rec.Resolved() {
		cachedKey = nodepath.Join(rec.Cached.View(), nodepath.ViewOf(rec.Payload.Child))
		defer cachedKey.Release()
	}
	sparseKey := nodepath.Join(rec.Sparse.View(), nodepath.ViewOf(rec.Payload.Child))
	defer sparseKey.Release()

	child, trail, stale, err := r.locate(root, cachedKey.View(), sparseKey.View())
	if stale {
		rec.clearCache()
	}
	if err != nil {
		return err
	}
	if child == nil {
		return ErrNotFound(sparseKey.String(), rec.Leaf.String())
	}

	parent := child.Parent()
	if parent == nil || len(trail) < 2 {
		return ErrInvalidSpec(rec.Format(), "cannot wrap the root")
	}
	if parent.Name() == rec.Leaf && parent.Inserted() {
		if atRegister {
			return ErrAlreadyExists(sparseKey.String(), rec.Leaf.String())
		}
		if len(trail) < 3 {
			return ErrInvalidSpec(rec.Format(), "wrapper has no parent")
		}
		rec.setCache(trail[:len(trail)-2])
		return nil
	}

	wrapper := r.factory.NewNode(rec.Leaf)
	if !wrapper.IsBranch() {
		return ErrInvalidSpec(rec.Format(), "wrapper cannot hold children")
	}
	idx := parent.DetachChild(child)
	if idx < 0 {
		return ErrNotFound(sparseKey.String(), rec.Payload.Child.String())
	}
	if err := wrapper.AttachChild(child); err != nil {
		_ = parent.InsertChild(idx, child)
		return oops.Code(CodeInvalidSpec).With("spec", rec.Format()).Wrapf(err, "wrap")
	}
	if err := parent.InsertChild(idx, wrapper); err != nil {
		_ = parent.InsertChild(idx, child)
		return oops.Code(CodeInvalidSpec).With("spec", rec.Format()).Wrapf(err, "wrap")
	}
	wrapper.SetInserted(true)

	rec.setCache(trail[:len(trail)-1])
	at := staticOf(trail)
	r.UpdatePathsOnNodeInsert(at.View(), rec.Leaf)
	at.Release()
	return nil
}

// locateApplied finds the node rec created: first by its cached path, then by
// its sparse path, then by name below the deepest partial match.
func (r *Registry) locateApplied(root scene.Node, rec *Record) (scene.Node, []scene.Node, error) {
	cachedKey := rec.AppliedPath()
	defer cachedKey.Release()
	sparseKey := nodepath.Join(rec.Sparse.View(), nodepath.ViewOf(rec.Leaf))
	defer sparseKey.Release()

	n, trail, _, err := r.locate(root, cachedKey.View(), sparseKey.View())
	if err != nil || n != nil {
		return n, trail, err
	}

	partial, _, err := r.builder.BestEffort(root, rec.Sparse.View())
	if err != nil || partial == nil {
		return nil, nil, err
	}
	if n = resolve.ByName(partial, rec.Leaf); n == nil {
		return nil, nil, nil
	}
	return n, ancestry(n, root), nil
}

// detach undoes rec's edit on root. Only nodes created by an attachment are
// removed.
func (r *Registry) detach(root scene.Node, rec *Record) error {
	n, trail, err := r.locateApplied(root, rec)
	if err != nil {
		return err
	}
	if n == nil || !n.Inserted() {
		return ErrNotFound(rec.Sparse.Text(), rec.Leaf.String())
	}
	parent := n.Parent()
	if parent == nil {
		return ErrInvalidSpec(rec.Format(), "attached node has no parent")
	}

	if rec.Payload.Kind != KindWrapper {
		parent.DetachChild(n)
		n.SetInserted(false)
		return nil
	}

	idx := parent.DetachChild(n)
	kids := make([]scene.Node, 0, n.NumChildren())
	for i := 0; i < n.NumChildren(); i++ {
		if c := n.Child(i); c != nil {
			kids = append(kids, c)
		}
	}
	for i, c := range kids {
		if err := parent.InsertChild(idx+i, c); err != nil {
			return oops.Code(CodeInvalidSpec).With("spec", rec.Format()).Wrapf(err, "unwrap")
		}
	}
	n.SetInserted(false)

	if trail != nil {
		at := staticOf(trail)
		r.UpdatePathsOnNodeRemove(at.View())
		at.Release()
	}
	return nil
}
