// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package attach

import (
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
)

// Formatted text markers.
const (
	// PrefixSeparator splits the attach-point path from the value.
	PrefixSeparator = '|'
	// SuffixDelimiter wraps a rename suffix at the start of the value.
	SuffixDelimiter = '*'
	// WrapMarker at the start of a node value asks for a parent wrapper.
	WrapMarker = '^'
)

// Request is a parsed attachment before it is registered. Register takes
// ownership of its handles; call Release on a request that is never
// registered.
type Request struct {
	Sparse  nodepath.Static
	Leaf    intern.Name
	Payload Payload
	Source  string
}

// ParseRequest parses "prefix|value" where value may begin with "*suffix*".
// Text without a separator is all value, relative to the root. With
// KindNode, a value starting with '^' becomes a KindWrapper request that
// wraps the last node of prefix. Template values name a model and entity
// values are ULIDs.
func ParseRequest(pool *intern.Pool, text string, kind Kind, source string) (Request, error) {
	prefix, value := "", text
	if i := strings.IndexByte(text, PrefixSeparator); i >= 0 {
		prefix, value = text[:i], text[i+1:]
	}

	var suffix string
	if len(value) > 0 && value[0] == SuffixDelimiter {
		end := strings.IndexByte(value[1:], SuffixDelimiter)
		if end < 0 {
			return Request{}, ErrInvalidSpec(text, "unterminated suffix")
		}
		if end == 0 {
			return Request{}, ErrInvalidSpec(text, "empty suffix")
		}
		suffix, value = value[1:1+end], value[2+end:]
	}

	if len(value) > 0 && value[0] == WrapMarker && (kind == KindNode || kind == KindWrapper) {
		kind = KindWrapper
		value = value[1:]
	}
	if value == "" {
		return Request{}, ErrInvalidSpec(text, "missing value")
	}
	if suffix != "" && !kind.grafts() {
		return Request{}, ErrInvalidSpec(text, "suffix only applies to templates and entities")
	}

	req := Request{Payload: Payload{Kind: kind}, Source: source}

	switch kind {
	case KindNode:
		req.Leaf = pool.Intern(value)
	case KindWrapper:
		sparse := nodepath.ParseStatic(pool, prefix)
		if sparse.Empty() {
			return Request{}, ErrInvalidSpec(text, "wrapper needs the path of the node to wrap")
		}
		back, _ := sparse.Back()
		req.Payload.Child = back.Retain()
		sparse.Remove(sparse.Len() - 1)
		req.Sparse = sparse
		req.Leaf = pool.Intern(value)
		return req, nil
	case KindTemplate:
		req.Payload.Model = value
	case KindEntity:
		id, err := ulid.ParseStrict(value)
		if err != nil {
			return Request{}, ErrInvalidSpec(text, "entity value is not a ULID")
		}
		req.Payload.Entity = id
	default:
		return Request{}, ErrInvalidSpec(text, "unknown kind "+kind.String())
	}

	if suffix != "" {
		req.Payload.Suffix = pool.Intern(suffix)
	}
	req.Sparse = nodepath.ParseStatic(pool, prefix)
	return req, nil
}

func (k Kind) grafts() bool {
	return Payload{Kind: k}.grafts()
}

// Release drops the request's handles.
func (r *Request) Release() {
	r.Sparse.Release()
	r.Leaf.Release()
	r.Payload.release()
	r.Leaf = intern.Name{}
	r.Payload = Payload{}
}

// Format renders the request back into formatted text.
func (r *Request) Format() string {
	return format(r.Sparse.View(), r.Leaf, r.Payload)
}

func format(sparse nodepath.View, leaf intern.Name, p Payload) string {
	var b strings.Builder
	prefix := sparse.String()
	if p.Kind == KindWrapper {
		if prefix != "" {
			prefix += string(nodepath.Separator)
		}
		prefix += p.Child.String()
	}
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(PrefixSeparator)
	}
	if !p.Suffix.IsZero() {
		b.WriteByte(SuffixDelimiter)
		b.WriteString(p.Suffix.String())
		b.WriteByte(SuffixDelimiter)
	}
	switch p.Kind {
	case KindWrapper:
		b.WriteByte(WrapMarker)
		b.WriteString(leaf.String())
	case KindTemplate:
		b.WriteString(p.Model)
	case KindEntity:
		b.WriteString(p.Entity.String())
	default:
		b.WriteString(leaf.String())
	}
	return b.String()
}
