package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/iqinterp/internal/iqutil"
)

type scalar struct{ V float32 }

type noTrigger struct{}

// calib is a hand-built calibration hierarchy: each node lists the children
// the search should attach and the ratios to record.
type calib struct {
	children []*calib
	leaf     *scalar
	ratios   [MaxRatios]float32
}

func leaf(v float32) *calib { return &calib{leaf: &scalar{V: v}} }

func branch(ratios [MaxRatios]float32, children ...*calib) *calib {
	return &calib{children: children, ratios: ratios}
}

func calibSearch(parent *Node[scalar], _ *noTrigger, slots []Node[scalar]) int {
	c, ok := parent.NodeData.(*calib)
	if !ok {
		return 0
	}
	parent.Ratio = c.ratios
	for i, child := range c.children {
		if i >= len(slots) || !parent.AddChild(&slots[i], child, child.leaf) {
			return 0
		}
	}
	return parent.NumChildren()
}

var scalarBlend = GuardedBlend(func(a, b *scalar, ratio float32, out *scalar) {
	out.V = iqutil.BilinearInterpolate(a.V, b.V, ratio)
})

func newTree(widths ...int) *Tree[scalar, noTrigger] {
	ops := make([]NodeOperation[scalar, noTrigger], len(widths))
	for i, w := range widths {
		ops[i] = NodeOperation[scalar, noTrigger]{Search: SearchFunc[scalar, noTrigger](calibSearch), ChildrenPerNode: w}
	}
	return &Tree[scalar, noTrigger]{Levels: len(widths) + 1, Operations: ops, Blend: scalarBlend}
}

func run(t *testing.T, tree *Tree[scalar, noTrigger], root *calib) (scalar, error) {
	t.Helper()
	nodes := make([]Node[scalar], tree.NodeCount())
	scratch := make([]scalar, tree.NonLeafCount())
	var out scalar
	err := tree.Run(nodes, scratch, root, &noTrigger{}, &out)
	return out, err
}

func TestTreeCounts(t *testing.T) {
	tree := newTree(2, 3, 2)
	assert.Equal(t, 21, tree.NodeCount())
	assert.Equal(t, 9, tree.NonLeafCount())

	single := newTree(2)
	assert.Equal(t, 3, single.NodeCount())
	assert.Equal(t, 1, single.NonLeafCount())
}

func TestRunTwoChildren(t *testing.T) {
	out, err := run(t, newTree(2), branch([MaxRatios]float32{0.5}, leaf(10), leaf(20)))
	require.NoError(t, err)
	assert.InDelta(t, 15, out.V, 1e-5)
}

func TestRunSingleChildRootCopies(t *testing.T) {
	root := branch([MaxRatios]float32{}, leaf(42))
	out, err := run(t, newTree(2), root)
	require.NoError(t, err)
	assert.Equal(t, float32(42), out.V)

	out.V = 0
	assert.Equal(t, float32(42), root.children[0].leaf.V, "calibration data must not be handed back")
}

func TestRunForwardsSingleChild(t *testing.T) {
	root := branch([MaxRatios]float32{0.25},
		branch([MaxRatios]float32{}, leaf(10)),
		branch([MaxRatios]float32{0.5}, leaf(20), leaf(40)),
	)
	out, err := run(t, newTree(2, 2), root)
	require.NoError(t, err)
	assert.InDelta(t, 15, out.V, 1e-5)
}

func TestRunThreeChildren(t *testing.T) {
	root := branch([MaxRatios]float32{0.5, 0.5}, leaf(0), leaf(10), leaf(20))
	out, err := run(t, newTree(3), root)
	require.NoError(t, err)
	// (c1,c2) at r1 gives 15, then (c0, 15) at r0 gives 7.5.
	assert.InDelta(t, 7.5, out.V, 1e-5)
}

func TestRunEndpointRatiosCopy(t *testing.T) {
	out, err := run(t, newTree(2), branch([MaxRatios]float32{0}, leaf(3), leaf(9)))
	require.NoError(t, err)
	assert.Equal(t, float32(3), out.V)

	out, err = run(t, newTree(2), branch([MaxRatios]float32{1}, leaf(3), leaf(9)))
	require.NoError(t, err)
	assert.Equal(t, float32(9), out.V)
}

func TestRunErrors(t *testing.T) {
	t.Run("no children", func(t *testing.T) {
		_, err := run(t, newTree(2), branch([MaxRatios]float32{}))
		assert.ErrorIs(t, err, ErrNoChildren)
	})

	t.Run("degenerate ratio", func(t *testing.T) {
		_, err := run(t, newTree(2), branch([MaxRatios]float32{1.5}, leaf(1), leaf(2)))
		assert.ErrorIs(t, err, ErrDegenerateRatio)
	})

	t.Run("negative ratio", func(t *testing.T) {
		_, err := run(t, newTree(2), branch([MaxRatios]float32{-0.2}, leaf(1), leaf(2)))
		assert.ErrorIs(t, err, ErrDegenerateRatio)
	})

	t.Run("too many children for level", func(t *testing.T) {
		_, err := run(t, newTree(2), branch([MaxRatios]float32{0.5, 0.5}, leaf(1), leaf(2), leaf(3)))
		assert.Error(t, err)
	})

	t.Run("leaf without data", func(t *testing.T) {
		_, err := run(t, newTree(2), branch([MaxRatios]float32{0.5}, leaf(1), &calib{}))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	tree := newTree(2, 2)
	root := branch([MaxRatios]float32{}, branch([MaxRatios]float32{}, leaf(1)))

	t.Run("undersized nodes", func(t *testing.T) {
		var out scalar
		err := tree.Run(make([]Node[scalar], 3), make([]scalar, 3), root, &noTrigger{}, &out)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("undersized scratch", func(t *testing.T) {
		var out scalar
		err := tree.Run(make([]Node[scalar], 7), make([]scalar, 1), root, &noTrigger{}, &out)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("nil output", func(t *testing.T) {
		err := tree.Run(make([]Node[scalar], 7), make([]scalar, 3), root, &noTrigger{}, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("nil root", func(t *testing.T) {
		var out scalar
		err := tree.Run(make([]Node[scalar], 7), make([]scalar, 3), nil, &noTrigger{}, &out)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestRunMiscountedSearch(t *testing.T) {
	liar := SearchFunc[scalar, noTrigger](func(parent *Node[scalar], trig *noTrigger, slots []Node[scalar]) int {
		calibSearch(parent, trig, slots)
		return 2
	})
	tree := &Tree[scalar, noTrigger]{
		Levels:     2,
		Operations: []NodeOperation[scalar, noTrigger]{{Search: liar, ChildrenPerNode: 2}},
		Blend:      scalarBlend,
	}
	_, err := run(t, tree, branch([MaxRatios]float32{}, leaf(1)))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRunReusesBuffers(t *testing.T) {
	tree := newTree(2, 2)
	nodes := make([]Node[scalar], tree.NodeCount())
	scratch := make([]scalar, tree.NonLeafCount())

	wide := branch([MaxRatios]float32{0.5},
		branch([MaxRatios]float32{0.5}, leaf(0), leaf(10)),
		branch([MaxRatios]float32{0.5}, leaf(20), leaf(30)),
	)
	narrow := branch([MaxRatios]float32{}, branch([MaxRatios]float32{}, leaf(7)))

	var first, second, again scalar
	require.NoError(t, tree.Run(nodes, scratch, wide, &noTrigger{}, &first))
	require.NoError(t, tree.Run(nodes, scratch, narrow, &noTrigger{}, &second))
	require.NoError(t, tree.Run(nodes, scratch, wide, &noTrigger{}, &again))

	assert.InDelta(t, 15, first.V, 1e-5)
	assert.Equal(t, float32(7), second.V)
	assert.Equal(t, first, again)
}

func TestRunWithHook(t *testing.T) {
	tree := newTree(2)
	nodes := make([]Node[scalar], tree.NodeCount())
	scratch := make([]scalar, tree.NonLeafCount())
	root := branch([MaxRatios]float32{0.5}, leaf(2), leaf(4))

	var out scalar
	err := tree.RunWithHook(nodes, scratch, root, &noTrigger{}, &out, func(p *scalar) error {
		p.V *= 10
		return nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 30, out.V, 1e-4)

	boom := errors.New("boom")
	err = tree.RunWithHook(nodes, scratch, root, &noTrigger{}, &out, func(*scalar) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGuardedBlendIdenticalOperands(t *testing.T) {
	a := scalar{V: 5}
	var out scalar
	require.NoError(t, scalarBlend(&a, &a, 7, &out))
	assert.Equal(t, a, out)
}

func TestAddChildLimit(t *testing.T) {
	var parent Node[scalar]
	var kids [MaxChildren + 1]Node[scalar]
	for i := 0; i < MaxChildren; i++ {
		require.True(t, parent.AddChild(&kids[i], nil, nil))
	}
	assert.False(t, parent.AddChild(&kids[MaxChildren], nil, nil))
	assert.Equal(t, MaxChildren, parent.NumChildren())
	assert.Nil(t, parent.Child(MaxChildren))
	assert.Equal(t, parent.Level+1, parent.Child(0).Level)
}
