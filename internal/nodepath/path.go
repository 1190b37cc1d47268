// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package nodepath

import (
	"strings"

	"github.com/holomush/nodegraft/internal/intern"
)

// Path owns its segments: every handle it holds has been retained once on its
// behalf and is released by Release.
type Path struct {
	segs []intern.Name
}

// Parse splits text on Separator and interns each segment in pool.
// Empty segments are skipped.
func Parse(pool *intern.Pool, text string) Path {
	if text == "" {
		return Path{}
	}
	parts := strings.Split(text, string(Separator))
	segs := make([]intern.Name, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segs = append(segs, pool.Intern(part))
	}
	return Path{segs: segs}
}

// FromView copies v into an owned path.
func FromView(v View) Path {
	if v.Empty() {
		return Path{}
	}
	segs := make([]intern.Name, v.Len())
	for i, s := range v.segs {
		segs[i] = s.Retain()
	}
	return Path{segs: segs}
}

// Join concatenates views into one owned path.
func Join(parts ...View) Path {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	if total == 0 {
		return Path{}
	}
	segs := make([]intern.Name, 0, total)
	for _, p := range parts {
		for _, s := range p.segs {
			segs = append(segs, s.Retain())
		}
	}
	return Path{segs: segs}
}

// View borrows the path's segments.
func (p *Path) View() View { return View{segs: p.segs} }

// Len returns the number of segments.
func (p *Path) Len() int { return len(p.segs) }

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool { return len(p.segs) == 0 }

// At returns segment i.
func (p *Path) At(i int) intern.Name { return p.segs[i] }

// Back returns the last segment.
func (p *Path) Back() (intern.Name, error) { return p.View().Back() }

// String joins the segments with Separator.
func (p *Path) String() string { return join(p.segs) }

// Clone returns an independent copy.
func (p *Path) Clone() Path { return FromView(p.View()) }

// Release drops every held handle and empties the path.
func (p *Path) Release() {
	for _, s := range p.segs {
		s.Release()
	}
	p.segs = nil
}

// Insert places name at index i, shifting later segments right.
// Indexes past the end append.
func (p *Path) Insert(i int, name intern.Name) {
	if i < 0 {
		i = 0
	}
	if i > len(p.segs) {
		i = len(p.segs)
	}
	segs := make([]intern.Name, 0, len(p.segs)+1)
	segs = append(segs, p.segs[:i]...)
	segs = append(segs, name.Retain())
	segs = append(segs, p.segs[i:]...)
	p.segs = segs
}

// Replace swaps segment i for name. Out-of-range indexes are ignored.
func (p *Path) Replace(i int, name intern.Name) {
	if i < 0 || i >= len(p.segs) {
		return
	}
	old := p.segs[i]
	segs := make([]intern.Name, len(p.segs))
	copy(segs, p.segs)
	segs[i] = name.Retain()
	p.segs = segs
	old.Release()
}

// Remove deletes segment i. Out-of-range indexes are ignored.
func (p *Path) Remove(i int) {
	if i < 0 || i >= len(p.segs) {
		return
	}
	old := p.segs[i]
	segs := make([]intern.Name, 0, len(p.segs)-1)
	segs = append(segs, p.segs[:i]...)
	segs = append(segs, p.segs[i+1:]...)
	p.segs = segs
	old.Release()
}
