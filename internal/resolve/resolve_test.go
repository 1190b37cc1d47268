// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package resolve_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/nodegraft/internal/intern"
	"github.com/holomush/nodegraft/internal/nodepath"
	"github.com/holomush/nodegraft/internal/resolve"
	"github.com/holomush/nodegraft/internal/scene"
	"github.com/holomush/nodegraft/pkg/errutil"
)

const bodyDoc = `
version: 1.0.0
root:
  name: Body
  children:
    - name: Legs
      children:
        - name: Foot
    - name: Torso
      children:
        - name: Neck
          children:
            - name: Head
        - name: Arm
          children:
            - name: Hand
`

func buildBody(t *testing.T, pool *intern.Pool) *scene.MemNode {
	t.Helper()
	doc, err := scene.ParseDocument([]byte(bodyDoc))
	require.NoError(t, err)
	return doc.Build(pool)
}

func names(seq []scene.Node) string {
	parts := make([]string, len(seq))
	for i, n := range seq {
		parts[i] = n.Name().String()
	}
	return strings.Join(parts, `\`)
}

func TestBuilder_Sparse(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)

	tests := []struct {
		name  string
		path  string
		found string
		trail string
	}{
		{"anchored full", `Body\Torso\Neck\Head`, "Head", `Body\Torso\Neck\Head`},
		{"anchored gapped", `Body\Head`, "Head", `Body\Torso\Neck\Head`},
		{"relative", `Arm\Hand`, "Hand", `Body\Torso\Arm\Hand`},
		{"single relative", `Foot`, "Foot", `Body\Legs\Foot`},
		{"root only", `Body`, "Body", `Body`},
		{"empty resolves to root", ``, "Body", `Body`},
		{"missing", `Torso\Tail`, "", ""},
		{"out of order", `Head\Torso`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := resolve.NewBuilder()
			path := nodepath.Parse(pool, tt.path)
			got, err := b.Sparse(root, path.View())
			require.NoError(t, err)
			if tt.found == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.found, got.Name().String())
			assert.Equal(t, tt.trail, names(b.Trail()))
			static := b.Names()
			assert.Equal(t, tt.trail, static.Text())
		})
	}
}

func TestBuilder_ExactRequiresContiguousDescent(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)
	b := resolve.NewBuilder()

	full := nodepath.Parse(pool, `Body\Torso\Neck\Head`)
	got, err := b.Exact(root, full.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, b.Depth())

	relative := nodepath.Parse(pool, `Torso\Arm`)
	got, err = b.Exact(root, relative.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `Body\Torso\Arm`, names(b.Trail()))

	gapped := nodepath.Parse(pool, `Body\Head`)
	got, err = b.Exact(root, gapped.View())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSparse_FindsTargetBelowInsertedAncestor(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)
	torso := scene.ChildNamed(root, pool.Intern("Torso"))
	neck := scene.ChildNamed(torso, pool.Intern("Neck"))

	wrapper := scene.NewMemNode(pool.Intern("Wrapper"))
	idx := torso.DetachChild(neck)
	require.NoError(t, wrapper.AttachChild(neck))
	require.NoError(t, torso.InsertChild(idx, wrapper))

	path := nodepath.Parse(pool, `Body\Torso\Neck\Head`)
	b := resolve.NewBuilder()
	got, err := b.Sparse(root, path.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Head", got.Name().String())
	assert.Equal(t, `Body\Torso\Wrapper\Neck\Head`, names(b.Trail()))

	got, err = b.Exact(root, path.View())
	require.NoError(t, err)
	assert.Nil(t, got, "exact descent does not skip the wrapper")
}

func TestBuilder_BestEffort(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)
	b := resolve.NewBuilder()

	partial := nodepath.Parse(pool, `Body\Torso\Arm\Glove`)
	got, matched, err := b.BestEffort(root, partial.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Arm", got.Name().String())
	assert.Equal(t, 3, matched)
	assert.Equal(t, `Body\Torso\Arm`, names(b.Trail()))

	full := nodepath.Parse(pool, `Neck\Head`)
	got, matched, err = b.BestEffort(root, full.View())
	require.NoError(t, err)
	assert.Equal(t, "Head", got.Name().String())
	assert.Equal(t, 2, matched)

	none := nodepath.Parse(pool, `Tail`)
	got, matched, err = b.BestEffort(root, none.View())
	require.NoError(t, err)
	assert.Same(t, root, got)
	assert.Zero(t, matched)
	assert.Equal(t, 1, b.Depth())
}

func TestBuilder_MemoDoesNotHideBetterProgress(t *testing.T) {
	pool := intern.NewPool()
	root := scene.NewMemNode(pool.Intern("Root"))
	a := scene.NewMemNode(pool.Intern("A"))
	bNode := scene.NewMemNode(pool.Intern("B"))
	shared := scene.NewMemNode(pool.Intern("S"))
	leaf := scene.NewMemLeaf(pool.Intern("Leaf"))
	require.NoError(t, root.AttachChild(a))
	require.NoError(t, root.AttachChild(bNode))
	require.NoError(t, a.AttachChild(shared))
	require.NoError(t, shared.AttachChild(leaf))
	bNode.Share(shared)

	b := resolve.NewBuilder()

	// S is searched under A at segment 0 first and memoized; reaching it again
	// under B with more of the path matched must still descend.
	path := nodepath.Parse(pool, `B\S\Leaf`)
	got, err := b.Sparse(root, path.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Same(t, leaf, got)
	assert.Equal(t, `Root\B\S\Leaf`, names(b.Trail()))

	// A plain miss memoizes S once and skips its second visit.
	miss := nodepath.Parse(pool, `Nope`)
	got, err = b.Sparse(root, miss.View())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, b.Memoized())
}

func TestBuilder_CycleTerminates(t *testing.T) {
	pool := intern.NewPool()
	root := scene.NewMemNode(pool.Intern("Root"))
	a := scene.NewMemNode(pool.Intern("A"))
	require.NoError(t, root.AttachChild(a))
	a.Share(root)

	path := nodepath.Parse(pool, `Missing`)
	got, err := resolve.Sparse(root, path.View())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func chain(pool *intern.Pool, n int) (*scene.MemNode, []string) {
	labels := make([]string, n)
	var root, cur *scene.MemNode
	for i := 0; i < n; i++ {
		labels[i] = fmt.Sprintf("N%d", i)
		node := scene.NewMemNode(pool.Intern(labels[i]))
		if root == nil {
			root = node
		} else {
			_ = cur.AttachChild(node)
		}
		cur = node
	}
	return root, labels
}

func TestBuilder_DepthLimit(t *testing.T) {
	pool := intern.NewPool()
	root, labels := chain(pool, resolve.MaxDepth+6)

	exact := nodepath.Parse(pool, strings.Join(labels[:resolve.MaxDepth], `\`))
	got, err := resolve.Exact(root, exact.View())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, labels[resolve.MaxDepth-1], got.Name().String())

	tooDeep := nodepath.Parse(pool, strings.Join(labels[:resolve.MaxDepth+1], `\`))
	_, err = resolve.Exact(root, tooDeep.View())
	require.Error(t, err)
	assert.ErrorIs(t, err, resolve.ErrDepthLimitExceeded)
	errutil.AssertErrorCode(t, err, resolve.CodeDepthLimitExceeded)

	last := nodepath.Parse(pool, labels[len(labels)-1])
	_, err = resolve.Sparse(root, last.View())
	errutil.AssertErrorCode(t, err, resolve.CodeDepthLimitExceeded)
}

func TestBuilder_ReuseIsIndependent(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)
	b := resolve.NewBuilder()

	first := nodepath.Parse(pool, `Hand`)
	_, err := b.Sparse(root, first.View())
	require.NoError(t, err)
	second := nodepath.Parse(pool, `Foot`)
	_, err = b.Sparse(root, second.View())
	require.NoError(t, err)
	assert.Equal(t, `Body\Legs\Foot`, names(b.Trail()))
}

func TestTextVariantsAndByName(t *testing.T) {
	pool := intern.NewPool()
	root := buildBody(t, pool)

	got, err := resolve.SparseText(root, pool, `Body\Hand`)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Hand", got.Name().String())

	got, err = resolve.ExactText(root, pool, `Legs\Foot`)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = resolve.SparseText(root, pool, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, "Neck", resolve.ByName(root, pool.Intern("Neck")).Name().String())
	assert.Same(t, root, resolve.ByName(root, pool.Intern("Body")))
	assert.Nil(t, resolve.ByName(root, pool.Intern("Tail")))
	assert.Nil(t, resolve.ByName(nil, pool.Intern("Neck")))
}
