// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scene

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/holomush/nodegraft/internal/intern"
)

// SupportedVersions is the constraint scene documents must satisfy.
const SupportedVersions = ">= 1.0.0, < 2.0.0"

// Document is a scene.yaml file: a versioned node tree used both for live
// scenes and for attachable templates.
type Document struct {
	Version string   `yaml:"version" json:"version" jsonschema:"description=Document format version (semver)"`
	Root    NodeSpec `yaml:"root" json:"root"`
}

// NodeSpec describes one node of a Document.
type NodeSpec struct {
	Name      string     `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Leaf      bool       `yaml:"leaf,omitempty" json:"leaf,omitempty"`
	Light     bool       `yaml:"light,omitempty" json:"light,omitempty"`
	Collision bool       `yaml:"collision,omitempty" json:"collision,omitempty"`
	Children  []NodeSpec `yaml:"children,omitempty" json:"children,omitempty"`
}

var supportedVersions = mustConstraint(SupportedVersions)

func mustConstraint(c string) *semver.Constraints {
	parsed, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("invalid version constraint %q: %v", c, err))
	}
	return parsed
}

// ParseDocument parses and validates a scene document.
func ParseDocument(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("scene data is empty")
	}

	var d Document
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks document constraints.
func (d *Document) Validate() error {
	if d.Version == "" {
		return fmt.Errorf("version is required")
	}
	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return fmt.Errorf("version %q is not semver: %w", d.Version, err)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("version %s not supported (want %s)", v, SupportedVersions)
	}

	type item struct {
		spec *NodeSpec
		path string
	}
	stack := []item{{&d.Root, "root"}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if strings.TrimSpace(it.spec.Name) == "" {
			return fmt.Errorf("%s: name is required", it.path)
		}
		if it.spec.Leaf && len(it.spec.Children) > 0 {
			return fmt.Errorf("%s (%s): leaf nodes cannot have children", it.path, it.spec.Name)
		}
		for i := range it.spec.Children {
			stack = append(stack, item{&it.spec.Children[i], fmt.Sprintf("%s.children[%d]", it.path, i)})
		}
	}
	return nil
}

// Build creates a detached MemNode tree from the document.
func (d *Document) Build(pool *intern.Pool) *MemNode {
	return BuildNode(pool, &d.Root)
}

// BuildNode creates a detached MemNode tree from spec.
func BuildNode(pool *intern.Pool, spec *NodeSpec) *MemNode {
	type pair struct {
		spec *NodeSpec
		node *MemNode
	}
	root := newFromSpec(pool, spec)
	stack := []pair{{spec, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range p.spec.Children {
			cs := &p.spec.Children[i]
			c := newFromSpec(pool, cs)
			c.parent = p.node
			p.node.children = append(p.node.children, c)
			stack = append(stack, pair{cs, c})
		}
	}
	return root
}

func newFromSpec(pool *intern.Pool, spec *NodeSpec) *MemNode {
	name := pool.Intern(spec.Name)
	n := NewMemNode(name)
	name.Release()
	n.leaf = spec.Leaf
	n.light = spec.Light
	n.collision = spec.Collision
	return n
}

// Describe converts a tree back into a NodeSpec, for dumping.
func Describe(n Node) NodeSpec {
	type pair struct {
		node Node
		spec *NodeSpec
	}
	root := describeOne(n)
	stack := []pair{{n, &root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := 0; i < p.node.NumChildren(); i++ {
			if c := p.node.Child(i); c != nil {
				p.spec.Children = append(p.spec.Children, describeOne(c))
			}
		}
		// Children slice is final now; push pointers into it.
		idx := 0
		for i := 0; i < p.node.NumChildren(); i++ {
			if c := p.node.Child(i); c != nil {
				stack = append(stack, pair{c, &p.spec.Children[idx]})
				idx++
			}
		}
	}
	return root
}

func describeOne(n Node) NodeSpec {
	spec := NodeSpec{Name: n.Name().String(), Leaf: !n.IsBranch()}
	if m, ok := n.(*MemNode); ok {
		spec.Light = m.light
		spec.Collision = m.collision
	}
	return spec
}

// Format renders the tree as an indented outline, one node per line.
// Nodes created by attachments are marked with a '+'.
func Format(n Node) string {
	if n == nil {
		return ""
	}
	type item struct {
		node  Node
		depth int
	}
	var b strings.Builder
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b.WriteString(strings.Repeat("  ", it.depth))
		if it.node.Inserted() {
			b.WriteByte('+')
		}
		b.WriteString(it.node.Name().String())
		b.WriteByte('\n')
		for i := it.node.NumChildren() - 1; i >= 0; i-- {
			if c := it.node.Child(i); c != nil {
				stack = append(stack, item{c, it.depth + 1})
			}
		}
	}
	return b.String()
}
