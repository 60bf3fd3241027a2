// Package ordtree provides generic helpers over ordered, rooted trees:
// post-order indexing for dynamic programming over subtrees and forests,
// and the parenthesized linear text form.
package ordtree

import "strings"

// Tree is an ordered tree node type. The zero value of T is never a node;
// engines use it to represent a gap.
type Tree[T any] interface {
	comparable
	Subtrees() []T
}

// Index numbers the nodes of a tree in post-order.
type Index[T Tree[T]] struct {
	// Nodes holds the nodes in post-order; the root is last.
	Nodes []T
	// Children holds, per node, the post-order numbers of its children.
	Children [][]int
	// Leftmost holds, per node, the post-order number of its leftmost leaf.
	Leftmost []int
	// Parent holds, per node, its parent's number or -1 for the root.
	Parent []int
}

type postFrame[T any] struct {
	node     T
	next     int
	children []int
}

// NewIndex builds the post-order index of the tree rooted at root without
// recursion. A zero root yields an empty index.
func NewIndex[T Tree[T]](root T) *Index[T] {
	ix := &Index[T]{}

	var zero T
	if root == zero {
		return ix
	}

	stack := []postFrame[T]{{node: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		subtrees := top.node.Subtrees()
		if top.next < len(subtrees) {
			child := subtrees[top.next]
			top.next++

			stack = append(stack, postFrame[T]{node: child})

			continue
		}

		id := len(ix.Nodes)
		leftmost := id

		if len(top.children) > 0 {
			leftmost = ix.Leftmost[top.children[0]]
		}

		ix.Nodes = append(ix.Nodes, top.node)
		ix.Children = append(ix.Children, top.children)
		ix.Leftmost = append(ix.Leftmost, leftmost)
		ix.Parent = append(ix.Parent, -1)

		for _, child := range top.children {
			ix.Parent[child] = id
		}

		stack = stack[:len(stack)-1]

		if len(stack) > 0 {
			parent := &stack[len(stack)-1]
			parent.children = append(parent.children, id)
		}
	}

	return ix
}

// Len returns the number of nodes.
func (ix *Index[T]) Len() int {
	return len(ix.Nodes)
}

// Root returns the post-order number of the root, or -1 for an empty tree.
func (ix *Index[T]) Root() int {
	return len(ix.Nodes) - 1
}

// KeyRoots returns, in increasing order, the nodes that have a left
// sibling plus the root: for every distinct leftmost leaf, the highest node
// sharing it.
func (ix *Index[T]) KeyRoots() []int {
	highest := make(map[int]int, len(ix.Nodes))
	for id, leftmost := range ix.Leftmost {
		highest[leftmost] = id
	}

	roots := make([]int, 0, len(highest))

	for id, leftmost := range ix.Leftmost {
		if highest[leftmost] == id {
			roots = append(roots, id)
		}
	}

	return roots
}

type linearFrame[T any] struct {
	node T
	next int
}

// Linearize renders the tree as ("label", [children]) with leaves written
// as ("label", []). It walks the tree with an explicit stack.
func Linearize[T Tree[T]](root T, label func(T) string) string {
	var sb strings.Builder

	open := func(node T) {
		sb.WriteString(`("`)
		sb.WriteString(label(node))
		sb.WriteString(`"`)
	}

	open(root)

	stack := []linearFrame[T]{{node: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		children := top.node.Subtrees()

		switch {
		case len(children) == 0:
			sb.WriteString(", [])")
			stack = stack[:len(stack)-1]

			continue
		case top.next == len(children):
			sb.WriteString("])")
			stack = stack[:len(stack)-1]

			continue
		case top.next == 0:
			sb.WriteString(", [")
		default:
			sb.WriteString(", ")
		}

		child := children[top.next]
		top.next++

		open(child)

		stack = append(stack, linearFrame[T]{node: child})
	}

	return sb.String()
}
