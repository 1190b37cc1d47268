// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/nodegraft/internal/intern"
)

// Kind selects what an attachment grafts into the tree.
type Kind uint8

// Attachment kinds.
const (
	// KindNode adds an empty child node named by the leaf.
	KindNode Kind = iota
	// KindTemplate grafts a clone of a template model.
	KindTemplate
	// KindEntity grafts the model of another owner with its own attachments.
	KindEntity
	// KindWrapper splices a new node between an existing node and its parent.
	KindWrapper
)

var kindNames = map[Kind]string{
	KindNode:     "node",
	KindTemplate: "template",
	KindEntity:   "entity",
	KindWrapper:  "wrapper",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attachment kind %q", s)
}

// Payload is what a record grafts. It is immutable once registered.
type Payload struct {
	Kind Kind
	// Model names the template for KindTemplate.
	Model string
	// Entity is the owner whose model is grafted for KindEntity.
	Entity ulid.ULID
	// Suffix is appended to every grafted node name.
	Suffix intern.Name
	// Child is the name of the wrapped node for KindWrapper.
	Child intern.Name
}

// Same reports whether both payloads graft the same thing. Plain nodes have
// no identity beyond their leaf name.
func (p Payload) Same(o Payload) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case KindTemplate:
		return p.Model == o.Model && p.Suffix == o.Suffix
	case KindEntity:
		return p.Entity == o.Entity && p.Suffix == o.Suffix
	case KindWrapper:
		return p.Child == o.Child
	default:
		return false
	}
}

// grafts reports whether the payload carries a loaded subtree.
func (p Payload) grafts() bool {
	return p.Kind == KindTemplate || p.Kind == KindEntity
}

func (p Payload) retain() Payload {
	p.Suffix = p.Suffix.Retain()
	p.Child = p.Child.Retain()
	return p
}

func (p Payload) release() {
	p.Suffix.Release()
	p.Child.Release()
}
