package treealign

import (
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/ordtree"
)

// GapSymbol stands for a missing side in the linear form.
const GapSymbol = "-"

// Aligned is a node of an alignment tree. A zero Left or Right is a gap.
type Aligned[T any] struct {
	Left     T
	Right    T
	Children []*Aligned[T]
}

// Subtrees returns the ordered children.
func (n *Aligned[T]) Subtrees() []*Aligned[T] {
	return n.Children
}

// Walk visits the alignment in pre-order.
func (n *Aligned[T]) Walk(fn func(*Aligned[T])) {
	if n == nil {
		return
	}

	stack := []*Aligned[T]{n}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(top)

		for idx := len(top.Children) - 1; idx >= 0; idx-- {
			stack = append(stack, top.Children[idx])
		}
	}
}

// Cost sums dist over every node of the alignment.
func (n *Aligned[T]) Cost(dist func(x, y T) float64) float64 {
	total := 0.0

	n.Walk(func(node *Aligned[T]) {
		total += dist(node.Left, node.Right)
	})

	return total
}

// Format renders the alignment as ("(L,R)", [children]) with GapSymbol in
// place of a missing side. label must accept the zero T.
func Format[T comparable](root *Aligned[T], label func(T) string) string {
	if root == nil {
		return ""
	}

	var zero T

	side := func(node T) string {
		if node == zero {
			return GapSymbol
		}

		return label(node)
	}

	return ordtree.Linearize(root, func(node *Aligned[T]) string {
		return "(" + side(node.Left) + "," + side(node.Right) + ")"
	})
}

// traceTree rebuilds the alignment of the subtrees rooted at u and v.
func (al *aligner[T]) traceTree(u, v int) *Aligned[T] {
	opts := al.treeOptions(u, v)
	cost := al.tree[al.at(u, v)]

	switch cost {
	case opts[0]:
		return &Aligned[T]{
			Left:     al.a.Nodes[u],
			Right:    al.b.Nodes[v],
			Children: al.traceForest(u, v, 0, 0, len(al.a.Children[u]), len(al.b.Children[v])),
		}
	case opts[1]:
		return &Aligned[T]{Left: al.a.Nodes[u], Children: al.traceForestVsTree(u, v)}
	default:
		return &Aligned[T]{Right: al.b.Nodes[v], Children: al.traceTreeVsForest(u, v)}
	}
}

// traceForest rebuilds the alignment of the children s..p-1 of u with the
// children t..q-1 of v.
func (al *aligner[T]) traceForest(u, v, s, t, p, q int) []*Aligned[T] {
	ka, kb := al.a.Children[u], al.b.Children[v]
	f := al.forestTable(u, v, s, t)

	var out []*Aligned[T]

	for p > s || q > t {
		if p == s {
			out = append(out, al.inserted(kb[q-1]))
			q--

			continue
		}

		if q == t {
			out = append(out, al.deleted(ka[p-1]))
			p--

			continue
		}

		x, y := ka[p-1], kb[q-1]
		opts, splitLeft, splitRight := al.cellOptions(f, u, v, s, t, p, q)

		switch f[p-s][q-t] {
		case opts[0]:
			out = append(out, al.deleted(x))
			p--
		case opts[1]:
			out = append(out, al.inserted(y))
			q--
		case opts[2]:
			out = append(out, al.traceTree(x, y))
			p--
			q--
		case opts[3]:
			out = append(out, &Aligned[T]{
				Left:     al.a.Nodes[x],
				Children: al.traceForest(x, v, 0, splitLeft, len(al.a.Children[x]), q),
			})
			p--
			q = splitLeft
		default:
			out = append(out, &Aligned[T]{
				Right:    al.b.Nodes[y],
				Children: al.traceForest(u, y, splitRight, 0, p, len(al.b.Children[y])),
			})
			p = splitRight
			q--
		}
	}

	slices.Reverse(out)

	return out
}

// traceForestVsTree rebuilds the alignment of the children of u with the
// single tree v.
func (al *aligner[T]) traceForestVsTree(u, v int) []*Aligned[T] {
	ka := al.a.Children[u]
	a0, a1 := al.forestVsTree(u, v)

	var out []*Aligned[T]

	p := len(ka)

	for p > 0 {
		x := ka[p-1]
		opts, split := al.forestVsTreeOptions(a0, a1, u, v, p)

		if a1[p] == opts[0] {
			out = append(out, al.deleted(x))
			p--

			continue
		}

		switch a1[p] {
		case opts[1]:
			out = append(out, al.inserted(v))
			out = al.appendDeleted(out, ka[:p])
		case opts[2]:
			out = append(out, al.traceTree(x, v))
			out = al.appendDeleted(out, ka[:p-1])
		case opts[3]:
			out = append(out, &Aligned[T]{Left: al.a.Nodes[x], Children: al.traceForestVsTree(x, v)})
			out = al.appendDeleted(out, ka[:p-1])
		default:
			out = append(out, &Aligned[T]{
				Right:    al.b.Nodes[v],
				Children: al.traceForest(u, v, split, 0, p, len(al.b.Children[v])),
			})
			out = al.appendDeleted(out, ka[:split])
		}

		slices.Reverse(out)

		return out
	}

	out = append(out, al.inserted(v))
	slices.Reverse(out)

	return out
}

// traceTreeVsForest rebuilds the alignment of the single tree u with the
// children of v.
func (al *aligner[T]) traceTreeVsForest(u, v int) []*Aligned[T] {
	kb := al.b.Children[v]
	b0, b1 := al.treeVsForest(u, v)

	var out []*Aligned[T]

	q := len(kb)

	for q > 0 {
		y := kb[q-1]
		opts, split := al.treeVsForestOptions(b0, b1, u, v, q)

		if b1[q] == opts[0] {
			out = append(out, al.inserted(y))
			q--

			continue
		}

		switch b1[q] {
		case opts[1]:
			out = al.appendInserted(out, kb[:q])
			out = append(out, al.deleted(u))
		case opts[2]:
			out = append(out, al.traceTree(u, y))
			out = al.appendInserted(out, kb[:q-1])
		case opts[3]:
			out = append(out, &Aligned[T]{Right: al.b.Nodes[y], Children: al.traceTreeVsForest(u, y)})
			out = al.appendInserted(out, kb[:q-1])
		default:
			out = append(out, &Aligned[T]{
				Left:     al.a.Nodes[u],
				Children: al.traceForest(u, v, 0, split, len(al.a.Children[u]), q),
			})
			out = al.appendInserted(out, kb[:split])
		}

		slices.Reverse(out)

		return out
	}

	out = append(out, al.deleted(u))
	slices.Reverse(out)

	return out
}

// appendDeleted appends the deleted subtrees of ids, last first.
func (al *aligner[T]) appendDeleted(out []*Aligned[T], ids []int) []*Aligned[T] {
	for idx := len(ids) - 1; idx >= 0; idx-- {
		out = append(out, al.deleted(ids[idx]))
	}

	return out
}

// appendInserted appends the inserted subtrees of ids, last first.
func (al *aligner[T]) appendInserted(out []*Aligned[T], ids []int) []*Aligned[T] {
	for idx := len(ids) - 1; idx >= 0; idx-- {
		out = append(out, al.inserted(ids[idx]))
	}

	return out
}

func (al *aligner[T]) deleted(id int) *Aligned[T] {
	return gapSubtree(al.a, id, func(node T) *Aligned[T] { return &Aligned[T]{Left: node} })
}

func (al *aligner[T]) inserted(id int) *Aligned[T] {
	return gapSubtree(al.b, id, func(node T) *Aligned[T] { return &Aligned[T]{Right: node} })
}

// gapSubtree copies the subtree rooted at id, pairing every node with a gap.
func gapSubtree[T ordtree.Tree[T]](ix *ordtree.Index[T], id int, wrap func(T) *Aligned[T]) *Aligned[T] {
	root := wrap(ix.Nodes[id])

	type gapFrame struct {
		id  int
		out *Aligned[T]
	}

	stack := []gapFrame{{id: id, out: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := ix.Children[top.id]
		if len(children) == 0 {
			continue
		}

		top.out.Children = make([]*Aligned[T], len(children))

		for idx, child := range children {
			top.out.Children[idx] = wrap(ix.Nodes[child])
			stack = append(stack, gapFrame{id: child, out: top.out.Children[idx]})
		}
	}

	return root
}
