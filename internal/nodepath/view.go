// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package nodepath addresses tree nodes by the sequence of names leading to them.
//
// Three flavors share one set of predicates: View borrows a slice of handles,
// Path owns its handles, and Static owns its handles plus their joined text.
// All comparisons are handle comparisons, so paths built from different pools
// never match.
package nodepath

import (
	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/intern"
)

// Separator joins segments in the text form of a path.
const Separator = '\\'

// CodeOutOfBounds is the oops code for accessing a segment of an empty path.
const CodeOutOfBounds = "PATH_OUT_OF_BOUNDS"

// View is a non-owning window over path segments.
// A View must not outlive the slice it was built from.
type View struct {
	segs []intern.Name
}

// ViewOf wraps segs without copying or retaining them.
func ViewOf(segs ...intern.Name) View {
	return View{segs: segs}
}

// Len returns the number of segments.
func (v View) Len() int { return len(v.segs) }

// Empty reports whether the view has no segments.
func (v View) Empty() bool { return len(v.segs) == 0 }

// At returns segment i. It panics when i is out of range.
func (v View) At(i int) intern.Name { return v.segs[i] }

// Segments exposes the underlying slice. Callers must not modify it.
func (v View) Segments() []intern.Name { return v.segs }

// Back returns the last segment.
func (v View) Back() (intern.Name, error) {
	if len(v.segs) == 0 {
		return intern.Name{}, oops.Code(CodeOutOfBounds).Errorf("back of empty path")
	}
	return v.segs[len(v.segs)-1], nil
}

// Slice returns the sub-view [from, to).
func (v View) Slice(from, to int) View {
	return View{segs: v.segs[from:to]}
}

// Parent returns the view without its last segment.
func (v View) Parent() View {
	if len(v.segs) == 0 {
		return v
	}
	return View{segs: v.segs[:len(v.segs)-1]}
}

// Equal reports whether both views have the same segments in the same order.
func (v View) Equal(o View) bool {
	if len(v.segs) != len(o.segs) {
		return false
	}
	for i := range v.segs {
		if v.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

// Contains reports whether q appears as an uninterrupted run.
// An empty query never matches.
func (v View) Contains(q View) bool {
	if q.Empty() || q.Len() > v.Len() {
		return false
	}
	for start := 0; start+q.Len() <= v.Len(); start++ {
		if v.Slice(start, start+q.Len()).Equal(q) {
			return true
		}
	}
	return false
}

// HasSuffix reports whether q equals the trailing run of v.
func (v View) HasSuffix(q View) bool {
	if q.Len() > v.Len() {
		return false
	}
	return v.Slice(v.Len()-q.Len(), v.Len()).Equal(q)
}

// HasPrefix reports whether q equals the leading run of v.
func (v View) HasPrefix(q View) bool {
	if q.Len() > v.Len() {
		return false
	}
	return v.Slice(0, q.Len()).Equal(q)
}

// ContainsSparse reports whether the segments of q appear in v in order,
// not necessarily adjacent. An empty query always matches.
func (v View) ContainsSparse(q View) bool {
	if q.Empty() {
		return true
	}
	if q.Len() > v.Len() {
		return false
	}
	need := 0
	for i := 0; i < v.Len() && need < q.Len(); i++ {
		if v.segs[i] == q.segs[need] {
			need++
		}
	}
	return need == q.Len()
}

// String joins the segments with Separator.
func (v View) String() string {
	return join(v.segs)
}

func join(segs []intern.Name) string {
	if len(segs) == 0 {
		return ""
	}
	n := len(segs) - 1
	for _, s := range segs {
		n += s.Len()
	}
	buf := make([]byte, 0, n)
	for i, s := range segs {
		if i > 0 {
			buf = append(buf, Separator)
		}
		buf = append(buf, s.String()...)
	}
	return string(buf)
}
