// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"slices"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/scene"
)

// Record is one remembered edit.
//
// Sparse is the structure-tolerant search key for the attach point. Cached is
// the concrete chain of names from the root to the attach point as last
// resolved; it is empty until the record is first applied and is cleared, not
// patched, when it stops resolving. For a wrapper the attach point is the
// parent of the wrapped node.
type Record struct {
	Sparse  nodepath.Static
	Cached  nodepath.Static
	Leaf    intern.Name
	Payload Payload
	Source  string

	// dropped on the next reapply pass
	stale bool
}

// Valid reports whether the record is fully keyed: it names the node it
// creates and both its sparse and cached paths are set.
func (r *Record) Valid() bool {
	return !r.Leaf.IsZero() && !r.Sparse.Empty() && !r.Cached.Empty()
}

// Pending reports whether the record names its node but has not been
// resolved yet. Pending records are stored and applied once a tree that
// contains their attach point is available.
func (r *Record) Pending() bool { return !r.Leaf.IsZero() && r.Cached.Empty() }

// Resolved reports whether the record has a cached path.
func (r *Record) Resolved() bool { return !r.Cached.Empty() }

// Stale reports whether the record failed to load on the last pass and will
// be dropped on the next one.
func (r *Record) Stale() bool { return r.stale }

// Depth returns the cached path length.
func (r *Record) Depth() int { return r.Cached.Len() }

// Format renders the record in the formatted text convention.
func (r *Record) Format() string {
	return format(r.Sparse.View(), r.Leaf, r.Payload)
}

// AppliedPath returns the cached path of the node the record created: the
// attach point followed by the leaf. It is empty for unresolved records.
func (r *Record) AppliedPath() nodepath.Path {
	if !r.Resolved() {
		return nodepath.Path{}
	}
	return nodepath.Join(r.Cached.View(), nodepath.ViewOf(r.Leaf))
}

// Release drops every handle the record holds.
func (r *Record) Release() {
	r.Sparse.Release()
	r.Cached.Release()
	r.Leaf.Release()
	r.Payload.release()
	r.Leaf = intern.Name{}
	r.Payload = Payload{}
}

func (r *Record) clone() *Record {
	return &Record{
		Sparse:  r.Sparse.Clone(),
		Cached:  r.Cached.Clone(),
		Leaf:    r.Leaf.Retain(),
		Payload: r.Payload.retain(),
		Source:  r.Source,
		stale:   r.stale,
	}
}

// matches reports whether the record is identified by sparse and either leaf
// or payload.
func (r *Record) matches(sparse nodepath.View, leaf intern.Name, p Payload) bool {
	if !r.Sparse.View().Equal(sparse) {
		return false
	}
	if !leaf.IsZero() && r.Leaf == leaf {
		return true
	}
	return r.Payload.Same(p)
}

func (r *Record) setCache(trail []scene.Node) {
	r.Cached.Release()
	r.Cached = staticOf(trail)
}

func (r *Record) clearCache() {
	r.Cached.Release()
}

func staticOf(trail []scene.Node) nodepath.Static {
	segs := make([]intern.Name, len(trail))
	for i, n := range trail {
		segs[i] = n.Name()
	}
	return nodepath.StaticFromView(nodepath.ViewOf(segs...))
}

// ancestry returns the chain from root down to n, or nil when n is not below
// root.
func ancestry(n, root scene.Node) []scene.Node {
	var chain []scene.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		chain = append(chain, cur)
		if cur == root {
			slices.Reverse(chain)
			return chain
		}
	}
	return nil
}
