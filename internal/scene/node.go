// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package scene defines the contract between the attachment core and the host's
// tree, and provides MemNode, an in-memory tree that satisfies it.
//
// Nodes are owned by the host. The core holds non-owning references and
// re-validates them on every resolve.
package scene

import (
	"errors"

	"github.com/holomush/nodegraft/internal/intern"
)

// ErrNotBranch is returned when a structural edit targets a leaf node.
var ErrNotBranch = errors.New("node cannot hold children")

// Node is one element of a host tree.
type Node interface {
	// Name returns the node's interned name.
	Name() intern.Name
	// SetName renames the node.
	SetName(name intern.Name)
	// Parent returns the owning parent, or nil for a root or detached node.
	Parent() Node
	// NumChildren returns the number of child slots. Slots may be empty.
	NumChildren() int
	// Child returns the child in slot i, or nil for an empty slot.
	Child(i int) Node
	// IsBranch reports whether the node can hold children.
	IsBranch() bool
	// Shared returns how many parents reference this node instance.
	Shared() int
	// AttachChild appends child, detaching it from any previous parent.
	AttachChild(child Node) error
	// InsertChild places child at slot i, detaching it from any previous parent.
	InsertChild(i int, child Node) error
	// DetachChild removes child and returns the slot it occupied, or -1.
	DetachChild(child Node) int
	// Inserted reports whether the node was created by an attachment.
	Inserted() bool
	// SetInserted marks or clears the attachment-created flag.
	SetInserted(inserted bool)
}

// Factory creates bare nodes for the host tree.
type Factory interface {
	NewNode(name intern.Name) Node
}

// CollisionStripper is implemented by nodes that carry physical collision data
// which must not survive being grafted into another tree.
type CollisionStripper interface {
	StripCollision()
}

// ChildNamed returns the direct child of n called name, or nil.
func ChildNamed(n Node, name intern.Name) Node {
	if n == nil {
		return nil
	}
	for i := 0; i < n.NumChildren(); i++ {
		if c := n.Child(i); c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

// Walk visits n and every node below it depth-first, parents before children.
// It uses an explicit stack so content-controlled depth cannot exhaust the
// goroutine stack. Returning false from fn stops the walk.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			return
		}
		for i := cur.NumChildren() - 1; i >= 0; i-- {
			if c := cur.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
}

// AddSuffix renames every node of the subtree rooted at n by appending suffix.
func AddSuffix(n Node, suffix intern.Name) {
	if n == nil || suffix.IsZero() {
		return
	}
	pool := suffix.Pool()
	Walk(n, func(cur Node) bool {
		renamed := pool.Intern(cur.Name().String() + suffix.String())
		cur.SetName(renamed)
		renamed.Release()
		return true
	})
}

// StripCollision removes collision data from every node of the subtree.
func StripCollision(n Node) {
	Walk(n, func(cur Node) bool {
		if s, ok := cur.(CollisionStripper); ok {
			s.StripCollision()
		}
		return true
	})
}

// Root follows parent links from n to the top of its tree.
func Root(n Node) Node {
	if n == nil {
		return nil
	}
	for p := n.Parent(); p != nil; p = n.Parent() {
		n = p
	}
	return n
}
