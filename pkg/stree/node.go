// Package stree builds structural trees from arc-annotated sequences.
//
// A structural tree is an ordered, labeled tree over a fixed grammar: seven
// binary operators (crossing, nesting, starting, ending, diamond, meeting,
// concatenation) and a terminal hairpin label, one hairpin per bond.
package stree

import (
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/ordtree"
)

// defaultStackCap is the initial capacity of traversal stacks.
const defaultStackCap = 64

// Node is a structural tree node. Operator nodes have exactly two children;
// hairpins have none.
type Node struct {
	Label    Label   `json:"label"              yaml:"label"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewLeaf returns a childless node.
func NewLeaf(label Label) *Node {
	return &Node{Label: label}
}

// NewNode returns a node with the given children.
func NewNode(label Label, children ...*Node) *Node {
	return &Node{Label: label, Children: children}
}

// Subtrees returns the ordered children. It lets *Node serve the generic
// tree engines.
func (n *Node) Subtrees() []*Node {
	return n.Children
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// subtree below the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}

	stack := make([]*Node, 0, defaultStackCap)
	stack = append(stack, n)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(current) {
			continue
		}

		for idx := len(current.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, current.Children[idx])
		}
	}
}

// Leaves returns the leaves from left to right.
func (n *Node) Leaves() []*Node {
	var leaves []*Node

	n.Walk(func(node *Node) bool {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}

		return true
	})

	return leaves
}

// Hairpins returns the hairpin labels from left to right.
func (n *Node) Hairpins() []Label {
	var labels []Label

	n.Walk(func(node *Node) bool {
		if node.Label.IsHairpin() {
			labels = append(labels, node.Label)
		}

		return true
	})

	return labels
}

// Size returns the number of nodes.
func (n *Node) Size() int {
	size := 0

	n.Walk(func(*Node) bool {
		size++

		return true
	})

	return size
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (n *Node) Height() int {
	if n == nil {
		return 0
	}

	type heightFrame struct {
		node  *Node
		depth int
	}

	height := 0
	stack := []heightFrame{{node: n, depth: 1}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		height = max(height, frame.depth)

		for _, child := range frame.node.Children {
			stack = append(stack, heightFrame{node: child, depth: frame.depth + 1})
		}
	}

	return height
}

// Equal reports whether both trees have the same shape, labels and child
// order.
func (n *Node) Equal(other *Node) bool {
	type pair struct{ a, b *Node }

	stack := []pair{{a: n, b: other}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.a == nil || top.b == nil {
			if top.a != top.b {
				return false
			}

			continue
		}

		if top.a.Label != top.b.Label || len(top.a.Children) != len(top.b.Children) {
			return false
		}

		for idx := range top.a.Children {
			stack = append(stack, pair{a: top.a.Children[idx], b: top.b.Children[idx]})
		}
	}

	return true
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	type cloneFrame struct{ src, dst *Node }

	root := &Node{Label: n.Label}
	stack := []cloneFrame{{src: n, dst: root}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(frame.src.Children) == 0 {
			continue
		}

		frame.dst.Children = make([]*Node, len(frame.src.Children))

		for idx, child := range frame.src.Children {
			frame.dst.Children[idx] = &Node{Label: child.Label}
			stack = append(stack, cloneFrame{src: child, dst: frame.dst.Children[idx]})
		}
	}

	return root
}

// String returns the linearised form ("label", [children]), e.g.
// ("CONC", [("H(1,2)", []), ("H(3,4)", [])]).
func (n *Node) String() string {
	if n == nil {
		return ""
	}

	return ordtree.Linearize(n, func(node *Node) string {
		return node.Label.String()
	})
}

// SimplifiedString is String over the simplified label alphabet.
func (n *Node) SimplifiedString() string {
	if n == nil {
		return ""
	}

	return ordtree.Linearize(n, func(node *Node) string {
		return node.Label.Simplified()
	})
}

// Kinds counts nodes per label kind.
func (n *Node) Kinds() map[Kind]int {
	counts := make(map[Kind]int)

	n.Walk(func(node *Node) bool {
		counts[node.Label.Kind]++

		return true
	})

	return counts
}

// SortedKinds returns the kinds present in the tree in grammar order.
func SortedKinds(counts map[Kind]int) []Kind {
	kinds := make([]Kind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}
