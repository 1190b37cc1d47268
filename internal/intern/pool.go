// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package intern pools node names so that equal names share one canonical,
// reference-counted handle and compare in constant time.
package intern

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// shardCount is the number of independently locked lookup shards.
const shardCount = 32

// entry is the arena header for one pooled string.
type entry struct {
	text string
	refs atomic.Int32
}

type shard struct {
	mu  sync.Mutex
	ids map[string]uint32
}

// Pool owns the storage for every string interned through it.
// Entries are never freed; a refcount of zero only means no holder is live.
//
// Pool is safe for concurrent use by multiple goroutines.
type Pool struct {
	shards [shardCount]shard

	mu    sync.RWMutex
	arena []*entry // index 0 is reserved for the absent name
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *Pool
)

// NewPool creates an empty pool.
func NewPool() *Pool {
	p := &Pool{arena: []*entry{nil}}
	for i := range p.shards {
		p.shards[i].ids = make(map[string]uint32)
	}
	return p
}

// Default returns the process-wide pool, creating it on first use.
func Default() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool()
	})
	return defaultPool
}

// Make interns text in the default pool.
func Make(text string) Name {
	return Default().Intern(text)
}

// Intern returns the canonical handle for text and takes one reference on it.
// Interning the empty string returns the zero Name.
func (p *Pool) Intern(text string) Name {
	if text == "" {
		return Name{}
	}

	s := &p.shards[xxhash.Sum64String(text)%shardCount]
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.ids[text]; ok {
		e := p.entry(id)
		e.refs.Add(1)
		return Name{pool: p, id: id}
	}

	e := &entry{text: text}
	e.refs.Store(1)

	p.mu.Lock()
	id := uint32(len(p.arena))
	p.arena = append(p.arena, e)
	p.mu.Unlock()

	s.ids[text] = id
	return Name{pool: p, id: id}
}

// Lookup returns the handle for text if it has already been interned.
// It does not take a reference.
func (p *Pool) Lookup(text string) (Name, bool) {
	if text == "" {
		return Name{}, false
	}
	s := &p.shards[xxhash.Sum64String(text)%shardCount]
	s.mu.Lock()
	id, ok := s.ids[text]
	s.mu.Unlock()
	if !ok {
		return Name{}, false
	}
	return Name{pool: p, id: id}, true
}

// Len returns the number of distinct strings in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.arena) - 1
}

func (p *Pool) entry(id uint32) *entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.arena[id]
}
