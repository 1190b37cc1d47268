// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package nodepath

import (
	"strings"

	"github.com/holomush/nodegraft/internal/intern"
)

// Static is an owned path that also keeps its joined text, so substring and
// suffix queries against plain strings need no interning. The text is rebuilt
// on every edit and always matches the segments.
type Static struct {
	Path
	text string
}

// ParseStatic parses text into a Static path.
func ParseStatic(pool *intern.Pool, text string) Static {
	p := Parse(pool, text)
	return Static{Path: p, text: join(p.segs)}
}

// StaticFromView copies v into a Static path.
func StaticFromView(v View) Static {
	p := FromView(v)
	return Static{Path: p, text: join(p.segs)}
}

// Text returns the Separator-joined form.
func (s *Static) Text() string { return s.text }

// String returns the Separator-joined form.
func (s *Static) String() string { return s.text }

// Clone returns an independent copy.
func (s *Static) Clone() Static {
	return Static{Path: s.Path.Clone(), text: s.text}
}

// Release drops every held handle and clears the text.
func (s *Static) Release() {
	s.Path.Release()
	s.text = ""
}

// Insert places name at index i and rebuilds the text.
func (s *Static) Insert(i int, name intern.Name) {
	s.Path.Insert(i, name)
	s.text = join(s.segs)
}

// Replace swaps segment i for name and rebuilds the text.
func (s *Static) Replace(i int, name intern.Name) {
	s.Path.Replace(i, name)
	s.text = join(s.segs)
}

// Remove deletes segment i and rebuilds the text.
func (s *Static) Remove(i int) {
	s.Path.Remove(i)
	s.text = join(s.segs)
}

// Equal reports full segment equality with o.
func (s *Static) Equal(o *Static) bool {
	return s.View().Equal(o.View())
}

// TextContains reports whether query occurs anywhere in the text.
// An empty query never matches.
func (s *Static) TextContains(query string) bool {
	if query == "" {
		return false
	}
	return strings.Contains(s.text, query)
}

// TextHasSuffix reports whether the text ends with query.
// An empty query never matches.
func (s *Static) TextHasSuffix(query string) bool {
	if query == "" {
		return false
	}
	return strings.HasSuffix(s.text, query)
}

// TextContainsSparse reports whether each Separator-delimited part of query
// occurs in the text, in order. An empty query always matches.
func (s *Static) TextContainsSparse(query string) bool {
	if query == "" {
		return true
	}
	pos := 0
	for _, part := range strings.Split(query, string(Separator)) {
		if part == "" {
			continue
		}
		found := strings.Index(s.text[pos:], part)
		if found < 0 {
			return false
		}
		pos += found + len(part)
	}
	return true
}
