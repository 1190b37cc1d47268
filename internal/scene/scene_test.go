// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scene_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/scene"
	"github.com/holomush/nodegraft/pkg/errutil"
)

const bodyDoc = `
version: 1.0.0
root:
  name: Body
  children:
    - name: Torso
      collision: true
      children:
        - name: Head
        - name: Lamp
          light: true
    - name: Legs
      leaf: true
`

func mustBuild(t *testing.T, pool *intern.Pool, src string) *scene.MemNode {
	t.Helper()
	doc, err := scene.ParseDocument([]byte(src))
	require.NoError(t, err)
	return doc.Build(pool)
}

func TestMemNode_InsertAndDetach(t *testing.T) {
	pool := intern.NewPool()
	root := scene.NewMemNode(pool.Intern("Root"))
	a := scene.NewMemNode(pool.Intern("A"))
	b := scene.NewMemNode(pool.Intern("B"))

	require.NoError(t, root.AttachChild(a))
	require.NoError(t, root.InsertChild(0, b))
	assert.Equal(t, "Root\n  B\n  A\n", scene.Format(root))
	assert.Same(t, root, b.Parent())

	assert.Equal(t, 1, root.DetachChild(a))
	assert.Nil(t, a.Parent())
	assert.Equal(t, -1, root.DetachChild(a))

	// Re-parenting moves the node.
	require.NoError(t, b.AttachChild(a))
	require.NoError(t, root.AttachChild(a))
	assert.Equal(t, 0, b.NumChildren())
	assert.Equal(t, 2, root.NumChildren())
}

func TestMemNode_LeafRejectsChildren(t *testing.T) {
	pool := intern.NewPool()
	leaf := scene.NewMemLeaf(pool.Intern("Leaf"))
	err := leaf.AttachChild(scene.NewMemNode(pool.Intern("X")))
	assert.ErrorIs(t, err, scene.ErrNotBranch)
	assert.False(t, leaf.IsBranch())
}

func TestMemNode_Share(t *testing.T) {
	pool := intern.NewPool()
	a := scene.NewMemNode(pool.Intern("A"))
	b := scene.NewMemNode(pool.Intern("B"))
	shared := scene.NewMemNode(pool.Intern("S"))

	require.NoError(t, a.AttachChild(shared))
	b.Share(shared)
	assert.Equal(t, 2, shared.Shared())
	assert.Same(t, a, shared.Parent())

	b.DetachChild(shared)
	assert.Equal(t, 1, shared.Shared())
	assert.Same(t, a, shared.Parent(), "owning parent unchanged")
}

func TestMemNode_SetNameAdjustsRefs(t *testing.T) {
	pool := intern.NewPool()
	a := pool.Intern("A")
	n := scene.NewMemNode(a)
	assert.Equal(t, 2, a.RefCount())

	b := pool.Intern("B")
	n.SetName(b)
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 2, b.RefCount())
}

func TestMemNode_CloneIsIndependent(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	clone := root.Clone()

	assert.Equal(t, scene.Format(root), scene.Format(clone))
	torso := scene.ChildNamed(clone, pool.Intern("Torso"))
	require.NotNil(t, torso)
	require.NoError(t, torso.AttachChild(scene.NewMemNode(pool.Intern("Hat"))))

	assert.NotEqual(t, scene.Format(root), scene.Format(clone))
	assert.Nil(t, clone.Parent())
}

func TestAddSuffix(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	scene.AddSuffix(root, pool.Intern("_2"))

	assert.Equal(t, "Body_2\n  Torso_2\n    Head_2\n    Lamp_2\n  Legs_2\n", scene.Format(root))
	renamed, ok := pool.Lookup("Torso_2")
	require.True(t, ok)
	assert.Equal(t, 1, renamed.RefCount(), "only the node holds the new name")
}

func TestStripCollision(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	torso := scene.ChildNamed(root, pool.Intern("Torso")).(*scene.MemNode)
	require.True(t, torso.HasCollision())

	scene.StripCollision(root)
	assert.False(t, torso.HasCollision())
}

func TestInitLights(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	torso := scene.ChildNamed(root, pool.Intern("Torso")).(*scene.MemNode)
	lamp := scene.ChildNamed(torso, pool.Intern("Lamp")).(*scene.MemNode)
	head := scene.ChildNamed(torso, pool.Intern("Head")).(*scene.MemNode)

	scene.InitLights(torso, root)

	assert.Equal(t, scene.FlagPointLight|scene.FlagLightReady, lamp.Flags())
	assert.NotZero(t, torso.Flags()&scene.FlagPointLight)
	assert.NotZero(t, root.Flags()&scene.FlagPointLight)
	assert.Zero(t, head.Flags())
}

func TestRootAndWalk(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	torso := scene.ChildNamed(root, pool.Intern("Torso"))
	head := scene.ChildNamed(torso, pool.Intern("Head"))
	assert.Same(t, root, scene.Root(head))

	var names []string
	scene.Walk(root, func(n scene.Node) bool {
		names = append(names, n.Name().String())
		return n.Name().String() != "Head"
	})
	assert.Equal(t, []string{"Body", "Torso", "Head"}, names)
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"bad yaml", "root: ["},
		{"missing version", "root:\n  name: A\n"},
		{"not semver", "version: one\nroot:\n  name: A\n"},
		{"unsupported major", "version: 2.0.0\nroot:\n  name: A\n"},
		{"unnamed child", "version: 1.0.0\nroot:\n  name: A\n  children:\n    - leaf: true\n"},
		{"leaf with children", "version: 1.0.0\nroot:\n  name: A\n  leaf: true\n  children:\n    - name: B\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scene.ParseDocument([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestDescribeRoundTrip(t *testing.T) {
	pool := intern.NewPool()
	root := mustBuild(t, pool, bodyDoc)
	spec := scene.Describe(root)
	rebuilt := scene.BuildNode(pool, &spec)
	assert.Equal(t, scene.Format(root), scene.Format(rebuilt))
	assert.True(t, spec.Children[1].Leaf)
	assert.True(t, spec.Children[0].Children[1].Light)
}

func TestValidateSchema(t *testing.T) {
	scene.ResetSchemaCache()

	require.NoError(t, scene.ValidateSchema([]byte(bodyDoc)))

	err := scene.ValidateSchema([]byte("version: 1.0.0\nroot:\n  name: A\n  colour: red\n"))
	require.Error(t, err)
	assert.NotContains(t, scene.FormatSchemaError(err), "schema validation failed:")

	assert.Error(t, scene.ValidateSchema(nil))
	assert.Empty(t, scene.FormatSchemaError(nil))
}

func TestGenerateSchema(t *testing.T) {
	data, err := scene.GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), scene.GetSchemaID())
	assert.Contains(t, string(data), "NodeSpec")
}

func TestLibrary_LoadReturnsClone(t *testing.T) {
	pool := intern.NewPool()
	lib := scene.NewLibrary(pool)
	lib.Add("body", mustBuild(t, pool, bodyDoc))

	a, err := lib.Load("body")
	require.NoError(t, err)
	b, err := lib.Load("body")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	_, err = lib.Load("missing")
	errutil.AssertErrorCode(t, err, scene.CodeTemplateNotFound)
}

func TestLibrary_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "props"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "props", "hat.yaml"),
		[]byte("version: 1.0.0\nroot:\n  name: Hat\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("root: ["), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	lib := scene.NewLibrary(intern.NewPool())
	n, err := lib.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"props/hat"}, lib.Models())

	n, err = lib.LoadDir(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
