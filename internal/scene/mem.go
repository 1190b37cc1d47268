// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scene

import (
	"github.com/holomush/nodegraft/internal/intern"
)

// Flags describe render-side state on a MemNode that the core only toggles.
type Flags uint16

// MemNode flags.
const (
	FlagPointLight Flags = 1 << iota
	FlagLightReady
)

// MemNode is an in-memory Node. A MemNode has one owning parent; extra
// references from other parents are created with Share and counted by Shared.
type MemNode struct {
	name      intern.Name
	parent    *MemNode
	children  []*MemNode
	leaf      bool
	refs      int
	inserted  bool
	collision bool
	light     bool
	flags     Flags
}

// NewMemNode creates a detached branch node.
func NewMemNode(name intern.Name) *MemNode {
	return &MemNode{name: name.Retain(), refs: 1}
}

// NewMemLeaf creates a detached node that cannot hold children.
func NewMemLeaf(name intern.Name) *MemNode {
	n := NewMemNode(name)
	n.leaf = true
	return n
}

// MemFactory creates MemNode branches.
type MemFactory struct{}

// NewNode implements Factory.
func (MemFactory) NewNode(name intern.Name) Node {
	return NewMemNode(name)
}

// Name implements Node.
func (n *MemNode) Name() intern.Name { return n.name }

// SetName implements Node.
func (n *MemNode) SetName(name intern.Name) {
	old := n.name
	n.name = name.Retain()
	old.Release()
}

// Parent implements Node.
func (n *MemNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// NumChildren implements Node.
func (n *MemNode) NumChildren() int { return len(n.children) }

// Child implements Node.
func (n *MemNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) || n.children[i] == nil {
		return nil
	}
	return n.children[i]
}

// IsBranch implements Node.
func (n *MemNode) IsBranch() bool { return !n.leaf }

// Shared implements Node.
func (n *MemNode) Shared() int { return n.refs }

// AttachChild implements Node.
func (n *MemNode) AttachChild(child Node) error {
	return n.InsertChild(len(n.children), child)
}

// InsertChild implements Node.
func (n *MemNode) InsertChild(i int, child Node) error {
	if n.leaf {
		return ErrNotBranch
	}
	c, ok := child.(*MemNode)
	if !ok || c == nil {
		return ErrNotBranch
	}
	if c.parent != nil {
		c.parent.DetachChild(c)
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
	return nil
}

// DetachChild implements Node.
func (n *MemNode) DetachChild(child Node) int {
	c, ok := child.(*MemNode)
	if !ok || c == nil {
		return -1
	}
	for i, existing := range n.children {
		if existing != c {
			continue
		}
		n.children = append(n.children[:i], n.children[i+1:]...)
		if c.parent == n {
			c.parent = nil
		} else {
			c.refs--
		}
		return i
	}
	return -1
}

// Share adds child as an extra reference under n without changing its owning
// parent.
func (n *MemNode) Share(child *MemNode) {
	n.children = append(n.children, child)
	child.refs++
}

// Inserted implements Node.
func (n *MemNode) Inserted() bool { return n.inserted }

// SetInserted implements Node.
func (n *MemNode) SetInserted(inserted bool) { n.inserted = inserted }

// StripCollision implements CollisionStripper.
func (n *MemNode) StripCollision() { n.collision = false }

// HasCollision reports whether the node still carries collision data.
func (n *MemNode) HasCollision() bool { return n.collision }

// SetCollision attaches or removes collision data.
func (n *MemNode) SetCollision(v bool) { n.collision = v }

// IsLight reports whether the node is a point light.
func (n *MemNode) IsLight() bool { return n.light }

// SetLight marks the node as a point light.
func (n *MemNode) SetLight(v bool) { n.light = v }

// Flags returns the node's render flags.
func (n *MemNode) Flags() Flags { return n.flags }

// SetFlags replaces the node's render flags.
func (n *MemNode) SetFlags(f Flags) { n.flags = f }

// Clone deep-copies the subtree rooted at n. The copy is detached and every
// node in it is owned by exactly one parent.
func (n *MemNode) Clone() *MemNode {
	type pair struct{ src, dst *MemNode }
	root := n.shallowCopy()
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range p.src.children {
			if c == nil {
				p.dst.children = append(p.dst.children, nil)
				continue
			}
			cp := c.shallowCopy()
			cp.parent = p.dst
			p.dst.children = append(p.dst.children, cp)
			stack = append(stack, pair{c, cp})
		}
	}
	return root
}

func (n *MemNode) shallowCopy() *MemNode {
	return &MemNode{
		name:      n.name.Retain(),
		leaf:      n.leaf,
		refs:      1,
		inserted:  n.inserted,
		collision: n.collision,
		light:     n.light,
		flags:     n.flags,
	}
}
