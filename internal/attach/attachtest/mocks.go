// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package attachtest provides testify mocks for the attach package's
// collaborators.
package attachtest

import (
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/holomush/nodegraft/internal/attach"
	"github.com/holomush/nodegraft/internal/scene"
)

// MockTemplateLoader is a mock attach.TemplateLoader.
type MockTemplateLoader struct {
	mock.Mock
}

var _ attach.TemplateLoader = (*MockTemplateLoader)(nil)

// Load implements attach.TemplateLoader.
func (m *MockTemplateLoader) Load(model string) (scene.Node, error) {
	args := m.Called(model)
	if fn, ok := args.Get(0).(func(string) scene.Node); ok {
		return fn(model), args.Error(1)
	}
	n, _ := args.Get(0).(scene.Node)
	return n, args.Error(1)
}

// MockEntitySource is a mock attach.EntitySource.
type MockEntitySource struct {
	mock.Mock
}

var _ attach.EntitySource = (*MockEntitySource)(nil)

// Subtree implements attach.EntitySource.
func (m *MockEntitySource) Subtree(owner ulid.ULID) (scene.Node, error) {
	args := m.Called(owner)
	if fn, ok := args.Get(0).(func(ulid.ULID) scene.Node); ok {
		return fn(owner), args.Error(1)
	}
	n, _ := args.Get(0).(scene.Node)
	return n, args.Error(1)
}

// CloneOf returns a Load return value that hands out a fresh clone of tpl
// on every call, the way a real loader does.
func CloneOf(tpl *scene.MemNode) func(string) scene.Node {
	return func(string) scene.Node { return tpl.Clone() }
}

// EntityCloneOf is CloneOf for MockEntitySource.
func EntityCloneOf(tpl *scene.MemNode) func(ulid.ULID) scene.Node {
	return func(ulid.ULID) scene.Node { return tpl.Clone() }
}
