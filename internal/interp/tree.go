package interp

import (
	"fmt"

	"github.com/banshee-data/iqinterp/internal/iqutil"
)

// NodeSearch selects the children of one node at one tree level.
//
// Search reads parent.NodeData as the calibration struct valid at the
// parent's depth, resolves the level's trigger regions, attaches the chosen
// regions to parent using the provided slots, and records the blend ratios
// on parent. It returns the number of children added, or 0 on error.
type NodeSearch[P, T any] interface {
	Search(parent *Node[P], trig *T, slots []Node[P]) int
}

// SearchFunc adapts a plain function to NodeSearch.
type SearchFunc[P, T any] func(parent *Node[P], trig *T, slots []Node[P]) int

// Search calls f.
func (f SearchFunc[P, T]) Search(parent *Node[P], trig *T, slots []Node[P]) int {
	return f(parent, trig, slots)
}

// NodeOperation pairs a level's search with its branching factor.
type NodeOperation[P, T any] struct {
	Search          NodeSearch[P, T]
	ChildrenPerNode int
}

// BlendFunc blends a and b into out. out may alias either operand.
type BlendFunc[P any] func(a, b *P, ratio float32, out *P) error

// GuardedBlend wraps a per-field interpolation with the policy every module
// shares: identical operands are copied, a ratio strictly inside (0,1) is
// interpolated, a ratio at 0 or 1 copies that side, anything else fails.
func GuardedBlend[P any](interpolate func(a, b *P, ratio float32, out *P)) BlendFunc[P] {
	return func(a, b *P, ratio float32, out *P) error {
		if a == nil || b == nil || out == nil {
			return ErrInvalidArgument
		}
		switch {
		case a == b:
			*out = *a
		case ratio > 0 && ratio < 1:
			interpolate(a, b, ratio, out)
		case iqutil.FloatEqual(ratio, 0):
			*out = *a
		case iqutil.FloatEqual(ratio, 1):
			*out = *b
		default:
			return fmt.Errorf("ratio %v: %w", ratio, ErrDegenerateRatio)
		}
		return nil
	}
}

// Tree is a module's static interpolation tree description. Levels counts
// the root, so Operations has Levels-1 entries.
type Tree[P, T any] struct {
	Levels     int
	Operations []NodeOperation[P, T]
	Blend      BlendFunc[P]
}

// NodeCount returns the size of the node array the tree needs.
func (t *Tree[P, T]) NodeCount() int {
	total, width := 1, 1
	for _, op := range t.Operations {
		width *= op.ChildrenPerNode
		total += width
	}
	return total
}

// NonLeafCount returns the number of nodes above the leaf level, which is
// also the number of scratch parameter slots the tree needs.
func (t *Tree[P, T]) NonLeafCount() int {
	if len(t.Operations) == 0 {
		return 0
	}
	total, width := 1, 1
	for _, op := range t.Operations[:len(t.Operations)-1] {
		width *= op.ChildrenPerNode
		total += width
	}
	return total
}

// Run resolves one parameter set.
//
// nodes and scratch are caller-owned and must hold at least NodeCount and
// NonLeafCount entries. root is the module's top-level calibration struct.
// On success the resolved parameters are copied to out. On failure out must
// be ignored.
func (t *Tree[P, T]) Run(nodes []Node[P], scratch []P, root any, trig *T, out *P) error {
	return t.RunWithHook(nodes, scratch, root, trig, out, nil)
}

// RunWithHook is Run followed by hook, which is handed the resolved
// parameters once the root blend is complete.
func (t *Tree[P, T]) RunWithHook(nodes []Node[P], scratch []P, root any, trig *T, out *P, hook func(*P) error) error {
	if root == nil || trig == nil || out == nil || t.Blend == nil {
		return ErrInvalidArgument
	}
	if t.Levels < 2 || len(t.Operations) != t.Levels-1 {
		return fmt.Errorf("tree has %d levels and %d operations: %w", t.Levels, len(t.Operations), ErrInvalidArgument)
	}

	total := t.NodeCount()
	nonLeaf := t.NonLeafCount()
	if len(nodes) < total || len(scratch) < nonLeaf {
		return fmt.Errorf("need %d nodes and %d slots, got %d and %d: %w",
			total, nonLeaf, len(nodes), len(scratch), ErrInvalidArgument)
	}

	for i := 0; i < total; i++ {
		var slot *P
		if i < nonLeaf {
			slot = &scratch[i]
		}
		nodes[i].reset(slot)
	}

	nodes[0].valid = true
	nodes[0].NodeData = root
	nodes[0].Level = rootLevel

	if err := t.expand(nodes[:total], trig); err != nil {
		return err
	}
	if err := t.blend(nodes[:nonLeaf]); err != nil {
		return err
	}

	*out = *nodes[0].Data

	if hook != nil {
		return hook(out)
	}
	return nil
}

// expand walks the levels breadth first. Every node at a level owns a fixed
// run of ChildrenPerNode slots at the next level, whether or not it is valid,
// so the layout never depends on which regions were selected.
func (t *Tree[P, T]) expand(nodes []Node[P], trig *T) error {
	levelStart, width := 0, 1

	for lvl, op := range t.Operations {
		if op.Search == nil || op.ChildrenPerNode < 1 || op.ChildrenPerNode > MaxChildren {
			return fmt.Errorf("level %d operation: %w", lvl+1, ErrInvalidArgument)
		}

		childStart := levelStart + width
		for j := 0; j < width; j++ {
			node := &nodes[levelStart+j]
			if !node.valid {
				continue
			}

			first := childStart + j*op.ChildrenPerNode
			slots := nodes[first : first+op.ChildrenPerNode]

			n := op.Search.Search(node, trig, slots)
			if n == 0 {
				return fmt.Errorf("level %d node %d: %w", lvl+1, j, ErrNoChildren)
			}
			if n > op.ChildrenPerNode || n != node.numChildren {
				return fmt.Errorf("level %d node %d reported %d children, attached %d: %w",
					lvl+1, j, n, node.numChildren, ErrInvalidArgument)
			}
		}

		levelStart = childStart
		width *= op.ChildrenPerNode
	}
	return nil
}

// blend visits the non-leaf nodes deepest first, so every child's Data is
// final before its parent reads it.
func (t *Tree[P, T]) blend(nodes []Node[P]) error {
	for i := len(nodes) - 1; i >= 0; i-- {
		node := &nodes[i]
		if !node.valid {
			continue
		}

		for c := 0; c < node.numChildren; c++ {
			if node.children[c].Data == nil {
				return fmt.Errorf("node %d child %d has no data: %w", i, c, ErrInvalidArgument)
			}
		}

		var err error
		switch node.numChildren {
		case 1:
			child := node.children[0]
			if i > 0 {
				node.Data = child.Data
			} else {
				// The root always gets its own copy so calibration data is
				// never handed back to the caller.
				err = t.Blend(child.Data, child.Data, 0, node.Data)
			}
		case 2:
			err = t.Blend(node.children[0].Data, node.children[1].Data, node.Ratio[0], node.Data)
		case 3:
			err = t.Blend(node.children[1].Data, node.children[2].Data, node.Ratio[1], node.Data)
			if err == nil {
				err = t.Blend(node.children[0].Data, node.Data, node.Ratio[0], node.Data)
			}
		default:
			err = ErrNoChildren
		}
		if err != nil {
			return fmt.Errorf("blend node %d (level %d): %w", i, node.Level, err)
		}
	}
	return nil
}
