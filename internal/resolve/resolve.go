// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package resolve

import (
	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/scene"
)

// Sparse runs Builder.Sparse on a fresh builder.
func Sparse(root scene.Node, path nodepath.View) (scene.Node, error) {
	return NewBuilder().Sparse(root, path)
}

// Exact runs Builder.Exact on a fresh builder.
func Exact(root scene.Node, path nodepath.View) (scene.Node, error) {
	return NewBuilder().Exact(root, path)
}

// SparseText parses text in pool and resolves it sparsely.
// An empty text never matches.
func SparseText(root scene.Node, pool *intern.Pool, text string) (scene.Node, error) {
	path := nodepath.Parse(pool, text)
	defer path.Release()
	if path.Empty() {
		return nil, nil
	}
	return Sparse(root, path.View())
}

// ExactText parses text in pool and resolves it by exact descent.
// An empty text never matches.
func ExactText(root scene.Node, pool *intern.Pool, text string) (scene.Node, error) {
	path := nodepath.Parse(pool, text)
	defer path.Release()
	if path.Empty() {
		return nil, nil
	}
	return Exact(root, path.View())
}

// ByName returns root or the first node below it called name, depth first.
func ByName(root scene.Node, name intern.Name) scene.Node {
	if root == nil || name.IsZero() {
		return nil
	}
	var found scene.Node
	scene.Walk(root, func(n scene.Node) bool {
		if n.Name() == name {
			found = n
			return false
		}
		return true
	})
	return found
}
