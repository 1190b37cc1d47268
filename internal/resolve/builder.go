// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package resolve locates nodes of a live tree by path.
//
// Searches run on a Builder, a fixed array of MaxDepth frames. The front of the
// array is the depth-first stack; popped frames of shared nodes are kept at the
// back as a memo region so a shared node that already failed is not searched
// twice in the same call. Searches never recurse.
package resolve

import (
	"github.com/samber/oops"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/scene"
)

// MaxDepth is the number of frames a Builder can hold.
const MaxDepth = 64

// CodeDepthLimitExceeded is the oops code for a search deeper than MaxDepth.
const CodeDepthLimitExceeded = "DEPTH_LIMIT_EXCEEDED"

// ErrDepthLimitExceeded is returned when a search needs more than MaxDepth
// frames. It means the content or the path is malformed.
var ErrDepthLimitExceeded = oops.Code(CodeDepthLimitExceeded).Errorf("path deeper than %d frames", MaxDepth)

type frame struct {
	node    scene.Node
	segment int
	next    int
}

type mode uint8

const (
	modeSparse mode = iota
	modeExact
)

// Builder holds the frame buffer for one search at a time. After a
// successful search the stack holds the concrete trail from the root to the
// match. A Builder is reusable and not safe for concurrent use.
type Builder struct {
	frames     [MaxDepth]frame
	length     int
	cacheStart int

	// deepest partial match seen, for BestEffort
	bestSegment int
	bestTrail   []scene.Node
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{cacheStart: MaxDepth}
}

// Reset empties the stack and the memo region.
func (b *Builder) Reset() {
	for i := range b.frames {
		b.frames[i] = frame{}
	}
	b.length = 0
	b.cacheStart = MaxDepth
	b.bestSegment = 0
	b.bestTrail = b.bestTrail[:0]
}

// Depth returns the number of nodes on the trail.
func (b *Builder) Depth() int { return b.length }

// Trail returns the nodes from the search root to the match.
func (b *Builder) Trail() []scene.Node {
	out := make([]scene.Node, b.length)
	for i := 0; i < b.length; i++ {
		out[i] = b.frames[i].node
	}
	return out
}

// Names returns the names along the trail as an owned path.
func (b *Builder) Names() nodepath.Static {
	return nodepath.StaticFromView(nodepath.ViewOf(b.names()...))
}

func (b *Builder) names() []intern.Name {
	segs := make([]intern.Name, b.length)
	for i := 0; i < b.length; i++ {
		segs[i] = b.frames[i].node.Name()
	}
	return segs
}

// Memoized reports how many frames currently sit in the memo region.
func (b *Builder) Memoized() int { return MaxDepth - b.cacheStart }

func (b *Builder) onStack(n scene.Node) bool {
	for i := 0; i < b.length; i++ {
		if b.frames[i].node == n {
			return true
		}
	}
	return false
}

// memoSkips reports whether a memoized failure of n covers a search of n at
// segment. A sparse failure at segment s implies failure for every earlier
// segment, since the remaining path only gets longer.
func (b *Builder) memoSkips(n scene.Node, segment int, m mode) bool {
	for i := b.cacheStart; i < MaxDepth; i++ {
		f := b.frames[i]
		if f.node != n {
			continue
		}
		if m == modeSparse && f.segment >= segment {
			return true
		}
		if m == modeExact && f.segment == segment {
			return true
		}
	}
	return false
}

// push places a frame on the stack, reclaiming the newest memo slot when the
// stack reaches the memo region.
func (b *Builder) push(f frame) error {
	if b.length == b.cacheStart {
		if b.cacheStart == MaxDepth {
			return ErrDepthLimitExceeded
		}
		b.frames[b.cacheStart] = frame{}
		b.cacheStart++
	}
	b.frames[b.length] = f
	b.length++
	return nil
}

// enter pushes n unless it is already an ancestor on the stack or its memo
// entry proves the search would fail.
func (b *Builder) enter(n scene.Node, segment int, m mode) error {
	if b.onStack(n) || b.memoSkips(n, segment, m) {
		return nil
	}
	return b.push(frame{node: n, segment: segment})
}

func (b *Builder) pop() {
	f := b.frames[b.length-1]
	b.length--
	b.frames[b.length] = frame{}
	if f.node.Shared() > 1 && b.cacheStart > b.length {
		b.cacheStart--
		b.frames[b.cacheStart] = frame{node: f.node, segment: f.segment}
	}
}

func (b *Builder) notePartial(segment int) {
	if segment <= b.bestSegment {
		return
	}
	b.bestSegment = segment
	b.bestTrail = b.bestTrail[:0]
	for i := 0; i < b.length; i++ {
		b.bestTrail = append(b.bestTrail, b.frames[i].node)
	}
}

// search runs the frame loop. On success the trail ends at the match.
func (b *Builder) search(root scene.Node, path nodepath.View, m mode) (scene.Node, error) {
	b.Reset()
	if root == nil {
		return nil, nil
	}
	if path.Empty() {
		return root, b.push(frame{node: root})
	}

	seg0 := 0
	if root.Name() == path.At(0) {
		seg0 = 1
	}
	if err := b.push(frame{node: root, segment: seg0}); err != nil {
		return nil, err
	}
	if seg0 == path.Len() {
		return root, nil
	}
	b.notePartial(seg0)

	for b.length > 0 {
		top := &b.frames[b.length-1]
		cur := top.node
		if top.next >= cur.NumChildren() {
			b.pop()
			continue
		}
		childIndex := top.next
		top.next++
		segment := top.segment

		child := cur.Child(childIndex)
		if child == nil {
			continue
		}

		matched := child.Name() == path.At(segment)
		if matched {
			segment++
			if segment >= path.Len() {
				if err := b.push(frame{node: child, segment: segment}); err != nil {
					return nil, err
				}
				return child, nil
			}
		}
		if !child.IsBranch() {
			continue
		}
		if m == modeExact && !matched {
			continue
		}
		if err := b.enter(child, segment, m); err != nil {
			return nil, err
		}
		if matched && b.length > 0 && b.frames[b.length-1].node == child {
			b.notePartial(segment)
		}
	}
	return nil, nil
}

// Sparse finds the node whose ancestor chain contains path as an ordered,
// possibly gapped subsequence. When path[0] names root the search is
// anchored there, otherwise path is relative to root. An empty path resolves
// to root. A nil node with a nil error means no match.
func (b *Builder) Sparse(root scene.Node, path nodepath.View) (scene.Node, error) {
	return b.search(root, path, modeSparse)
}

// Exact finds the node reached by descending path one child at a time.
// Anchoring follows Sparse.
func (b *Builder) Exact(root scene.Node, path nodepath.View) (scene.Node, error) {
	return b.search(root, path, modeExact)
}

// BestEffort runs a sparse search and, when the full path is absent, returns
// the deepest node that matched a prefix of path together with the number of
// segments it matched. With no segment matched it returns root and zero.
// The trail is left at the returned node.
func (b *Builder) BestEffort(root scene.Node, path nodepath.View) (scene.Node, int, error) {
	n, err := b.search(root, path, modeSparse)
	if err != nil || n != nil {
		return n, path.Len(), err
	}
	if root == nil {
		return nil, 0, nil
	}
	if len(b.bestTrail) == 0 {
		b.Reset()
		b.frames[0] = frame{node: root}
		b.length = 1
		return root, 0, nil
	}
	b.length = 0
	for _, node := range b.bestTrail {
		b.frames[b.length] = frame{node: node}
		b.length++
	}
	b.cacheStart = MaxDepth
	return b.bestTrail[len(b.bestTrail)-1], b.bestSegment, nil
}
