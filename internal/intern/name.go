// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package intern

// Name is a handle to a pooled string. Handles are comparable with ==, usable as
// map keys, and two handles from the same pool are equal iff their text is equal.
// The zero Name represents an absent name.
type Name struct {
	pool *Pool
	id   uint32
}

// IsZero reports whether the name is absent.
func (n Name) IsZero() bool {
	return n.pool == nil || n.id == 0
}

// String returns the pooled text, or "" for the zero Name.
func (n Name) String() string {
	if n.IsZero() {
		return ""
	}
	return n.pool.entry(n.id).text
}

// Len returns the byte length of the pooled text.
func (n Name) Len() int {
	return len(n.String())
}

// Pool returns the pool that owns the handle.
func (n Name) Pool() *Pool {
	return n.pool
}

// Less orders handles by arena position. It is stable for the life of the pool
// and unrelated to lexical order.
func (n Name) Less(o Name) bool {
	return n.id < o.id
}

// RefCount returns the number of live holders recorded for the name.
func (n Name) RefCount() int {
	if n.IsZero() {
		return 0
	}
	return int(n.pool.entry(n.id).refs.Load())
}

// Retain records one more holder and returns n for chaining.
func (n Name) Retain() Name {
	if !n.IsZero() {
		n.pool.entry(n.id).refs.Add(1)
	}
	return n
}

// Release drops one holder. It returns false, leaving the count untouched,
// when the count is already zero.
func (n Name) Release() bool {
	if n.IsZero() {
		return false
	}
	e := n.pool.entry(n.id)
	for {
		cur := e.refs.Load()
		if cur <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}
