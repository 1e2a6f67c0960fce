// Package interp is the interpolation tree engine shared by all IQ modules.
//
// A module describes its calibration hierarchy as an ordered table of
// NodeOperations, one per tree level. On every call the engine lays a
// fixed-shape tree over a caller-provided node array, asks each level's
// search to pick the one or two calibration regions that bracket the current
// trigger value, and then blends the selected parameter sets bottom-up into a
// single resolved parameter set.
//
// The engine holds no state between calls and does not log. Everything it
// touches lives in the node and scratch arrays the caller passes in.
package interp

import "errors"

const (
	// MaxChildren is the widest branching any level may use.
	MaxChildren = 3
	// MaxRatios is the number of blend ratios a node can carry.
	MaxRatios = MaxChildren - 1

	rootLevel = 1
)

var (
	// ErrInvalidArgument reports a missing operand or an undersized buffer.
	ErrInvalidArgument = errors.New("interp: invalid argument")
	// ErrDegenerateRatio reports a blend ratio outside [0,1].
	ErrDegenerateRatio = errors.New("interp: degenerate blend ratio")
	// ErrNoChildren reports a search that selected no calibration region.
	ErrNoChildren = errors.New("interp: no child node selected")
)

// Node is one node of the per-call interpolation tree. P is the module's
// resolved parameter type.
type Node[P any] struct {
	valid       bool
	children    [MaxChildren]*Node[P]
	numChildren int

	// Ratio holds the blend coefficient for each child pairing.
	Ratio [MaxRatios]float32
	// NodeData is this node's slice of the calibration tree.
	NodeData any
	// Data is the parameter set this node contributes to its parent. Leaf
	// nodes point straight into calibration data; every other node points at
	// its own scratch slot.
	Data *P
	// Level is the node's depth, starting at 1 for the root.
	Level int
}

// Valid reports whether the node was selected during tree expansion.
func (n *Node[P]) Valid() bool { return n.valid }

// NumChildren returns how many children the search attached.
func (n *Node[P]) NumChildren() int { return n.numChildren }

// Child returns the i-th child, or nil.
func (n *Node[P]) Child(i int) *Node[P] {
	if i < 0 || i >= n.numChildren {
		return nil
	}
	return n.children[i]
}

// AddChild attaches child to n. nodeData is the child's calibration slice.
// data is only given at the leaf-producing level, where it points at the
// region's parameter set; otherwise the child keeps its scratch slot.
// Returns false when n already has MaxChildren children.
func (n *Node[P]) AddChild(child *Node[P], nodeData any, data *P) bool {
	if child == nil || n.numChildren >= MaxChildren {
		return false
	}

	child.valid = true
	child.NodeData = nodeData
	if data != nil {
		child.Data = data
	}
	child.Level = n.Level + 1

	n.children[n.numChildren] = child
	n.numChildren++
	return true
}

func (n *Node[P]) reset(slot *P) {
	*n = Node[P]{Data: slot}
}
