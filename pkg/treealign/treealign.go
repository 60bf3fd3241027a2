// Package treealign computes optimal alignments of ordered labeled trees
// (Jiang, Wang and Zhang). An alignment overlays both trees on one tree
// whose nodes pair a node of each input, or a node with a gap; its cost is
// the sum of the pair costs.
package treealign

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/ordtree"
)

// DefaultMaxCells bounds the memo table of one alignment.
const DefaultMaxCells = 1 << 26

// ErrTooLarge is returned when the memo table would exceed the cell limit.
var ErrTooLarge = errors.New("alignment table too large")

type options struct {
	maxCells int
}

// Option configures Align.
type Option func(*options)

// WithMaxCells sets the memo cell limit. Zero disables the check.
func WithMaxCells(cells int) Option {
	return func(o *options) {
		o.maxCells = cells
	}
}

// Result is the alignment distance and one optimal alignment.
type Result[T any] struct {
	Distance  float64
	Alignment *Aligned[T]
}

// aligner holds the memo tables for one pair of trees. Nodes are numbered
// in post-order so every subtree pair is solved after the pairs below it.
type aligner[T ordtree.Tree[T]] struct {
	a, b *ordtree.Index[T]
	dist func(x, y T) float64
	n2   int

	delNode, insNode []float64
	delKids, insKids []float64
	delTree, insTree []float64

	tree []float64
	ft1  []float64
	ft2  []float64
	rows [][]float64
	cols [][]float64
}

// Align returns the minimum cost alignment of t1 and t2. dist(x, zero)
// is the cost of aligning x with a gap, dist(zero, y) the cost of
// aligning a gap with y. A zero tree is empty.
func Align[T ordtree.Tree[T]](t1, t2 T, dist func(x, y T) float64, opts ...Option) (*Result[T], error) {
	o := options{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(&o)
	}

	al := newAligner(t1, t2, dist)

	if al.a.Len() == 0 || al.b.Len() == 0 {
		return al.trivial(), nil
	}

	cells := al.cells()
	if o.maxCells > 0 && cells > o.maxCells {
		return nil, fmt.Errorf("%w: %d cells for %dx%d nodes exceed limit %d",
			ErrTooLarge, cells, al.a.Len(), al.b.Len(), o.maxCells)
	}

	al.fill()

	ra, rb := al.a.Root(), al.b.Root()

	return &Result[T]{
		Distance:  al.tree[al.at(ra, rb)],
		Alignment: al.traceTree(ra, rb),
	}, nil
}

func newAligner[T ordtree.Tree[T]](t1, t2 T, dist func(x, y T) float64) *aligner[T] {
	al := &aligner[T]{
		a:    ordtree.NewIndex(t1),
		b:    ordtree.NewIndex(t2),
		dist: dist,
	}

	var zero T

	al.delNode, al.delKids, al.delTree = gapCosts(al.a, func(x T) float64 { return dist(x, zero) })
	al.insNode, al.insKids, al.insTree = gapCosts(al.b, func(y T) float64 { return dist(zero, y) })
	al.n2 = al.b.Len()

	return al
}

// gapCosts returns, per node, the cost of the node against a gap, of its
// children's subtrees against gaps, and of its whole subtree.
func gapCosts[T ordtree.Tree[T]](ix *ordtree.Index[T], cost func(T) float64) (node, kids, whole []float64) {
	node = make([]float64, ix.Len())
	kids = make([]float64, ix.Len())
	whole = make([]float64, ix.Len())

	for id := range ix.Len() {
		node[id] = cost(ix.Nodes[id])

		for _, child := range ix.Children[id] {
			kids[id] += whole[child]
		}

		whole[id] = node[id] + kids[id]
	}

	return node, kids, whole
}

func (al *aligner[T]) trivial() *Result[T] {
	switch {
	case al.a.Len() > 0:
		root := al.a.Root()

		return &Result[T]{Distance: al.delTree[root], Alignment: al.deleted(root)}
	case al.b.Len() > 0:
		root := al.b.Root()

		return &Result[T]{Distance: al.insTree[root], Alignment: al.inserted(root)}
	default:
		return &Result[T]{}
	}
}

// cells counts the memo entries fill will allocate.
func (al *aligner[T]) cells() int {
	sumA, sumB := 0, 0

	for _, kids := range al.a.Children {
		sumA += len(kids) * (len(kids) + 1)
	}

	for _, kids := range al.b.Children {
		sumB += len(kids) * (len(kids) + 1)
	}

	n1, n2 := al.a.Len(), al.b.Len()

	return n1*sumB + n2*sumA + 3*n1*n2
}

func (al *aligner[T]) at(u, v int) int {
	return u*al.n2 + v
}

func (al *aligner[T]) fill() {
	n1, n2 := al.a.Len(), al.b.Len()

	al.tree = make([]float64, n1*n2)
	al.ft1 = make([]float64, n1*n2)
	al.ft2 = make([]float64, n1*n2)
	al.rows = make([][]float64, n1*n2)
	al.cols = make([][]float64, n1*n2)

	for u := range n1 {
		for v := range n2 {
			al.fillPair(u, v)
		}
	}
}

func (al *aligner[T]) fillPair(u, v int) {
	k := al.at(u, v)
	m, n := len(al.a.Children[u]), len(al.b.Children[v])

	if m > 0 && n > 0 {
		row := make([]float64, n*(n+1))

		for t := range n {
			f := al.forestTable(u, v, 0, t)
			for q := t + 1; q <= n; q++ {
				row[t*(n+1)+q] = f[m][q-t]
			}
		}

		col := make([]float64, m*(m+1))

		for s := range m {
			f := al.forestTable(u, v, s, 0)
			for p := s + 1; p <= m; p++ {
				col[s*(m+1)+p] = f[p-s][n]
			}
		}

		al.rows[k], al.cols[k] = row, col
	}

	_, a1 := al.forestVsTree(u, v)
	_, b1 := al.treeVsForest(u, v)

	al.ft1[k], al.ft2[k] = a1[m], b1[n]
	al.tree[k] = slices.Min(al.treeOptions(u, v))
}

func (al *aligner[T]) treeOptions(u, v int) []float64 {
	k := al.at(u, v)

	return []float64{
		al.dist(al.a.Nodes[u], al.b.Nodes[v]) + al.full(u, v),
		al.delNode[u] + al.ft1[k],
		al.insNode[v] + al.ft2[k],
	}
}

// full is the cost of aligning the children of u with the children of v.
func (al *aligner[T]) full(u, v int) float64 {
	n := len(al.b.Children[v])

	return al.rowAt(u, v, 0, n)
}

// rowAt is the cost of aligning all children of x with the children
// t..q-1 of v.
func (al *aligner[T]) rowAt(x, v, t, q int) float64 {
	switch {
	case t == q:
		return al.delKids[x]
	case len(al.a.Children[x]) == 0:
		return al.insRange(v, t, q)
	}

	n := len(al.b.Children[v])

	return al.rows[al.at(x, v)][t*(n+1)+q]
}

// colAt is the cost of aligning the children s..p-1 of u with all
// children of y.
func (al *aligner[T]) colAt(u, y, s, p int) float64 {
	switch {
	case s == p:
		return al.insKids[y]
	case len(al.b.Children[y]) == 0:
		return al.delRange(u, s, p)
	}

	m := len(al.a.Children[u])

	return al.cols[al.at(u, y)][s*(m+1)+p]
}

func (al *aligner[T]) delRange(u, s, p int) float64 {
	total := 0.0
	for _, child := range al.a.Children[u][s:p] {
		total += al.delTree[child]
	}

	return total
}

func (al *aligner[T]) insRange(v, t, q int) float64 {
	total := 0.0
	for _, child := range al.b.Children[v][t:q] {
		total += al.insTree[child]
	}

	return total
}

// forestTable aligns the children s.. of u with the children t.. of v.
// Cell [p-s][q-t] holds the cost for the forests s..p-1 and t..q-1.
func (al *aligner[T]) forestTable(u, v, s, t int) [][]float64 {
	ka, kb := al.a.Children[u], al.b.Children[v]
	m, n := len(ka), len(kb)

	f := make([][]float64, m-s+1)
	for idx := range f {
		f[idx] = make([]float64, n-t+1)
	}

	for p := s + 1; p <= m; p++ {
		f[p-s][0] = f[p-s-1][0] + al.delTree[ka[p-1]]
	}

	for q := t + 1; q <= n; q++ {
		f[0][q-t] = f[0][q-t-1] + al.insTree[kb[q-1]]
	}

	for p := s + 1; p <= m; p++ {
		for q := t + 1; q <= n; q++ {
			cell, _, _ := al.cellOptions(f, u, v, s, t, p, q)
			f[p-s][q-t] = slices.Min(cell[:])
		}
	}

	return f
}

// cellOptions lists the five ways to end the forests s..p-1 and t..q-1:
// drop the last left tree, drop the last right tree, pair both last trees,
// or let one last root take a gap and absorb a suffix of the other forest.
// It also returns the split points of the two absorbing cases.
func (al *aligner[T]) cellOptions(f [][]float64, u, v, s, t, p, q int) ([5]float64, int, int) {
	x, y := al.a.Children[u][p-1], al.b.Children[v][q-1]

	var opts [5]float64

	opts[0] = f[p-1-s][q-t] + al.delTree[x]
	opts[1] = f[p-s][q-1-t] + al.insTree[y]
	opts[2] = f[p-1-s][q-1-t] + al.tree[al.at(x, y)]

	bestLeft, splitLeft := math.Inf(1), t

	for k := t; k <= q; k++ {
		c := f[p-1-s][k-t] + al.rowAt(x, v, k, q)
		if c < bestLeft {
			bestLeft, splitLeft = c, k
		}
	}

	bestRight, splitRight := math.Inf(1), s

	for k := s; k <= p; k++ {
		c := f[k-s][q-1-t] + al.colAt(u, y, k, p)
		if c < bestRight {
			bestRight, splitRight = c, k
		}
	}

	opts[3] = al.delNode[x] + bestLeft
	opts[4] = al.insNode[y] + bestRight

	return opts, splitLeft, splitRight
}

// forestVsTree aligns the children of u with the single tree v. a0[p] is
// the cost of deleting the first p children, a1[p] of aligning them with v.
func (al *aligner[T]) forestVsTree(u, v int) ([]float64, []float64) {
	ka := al.a.Children[u]
	a0 := make([]float64, len(ka)+1)
	a1 := make([]float64, len(ka)+1)

	a1[0] = al.insTree[v]

	for p := 1; p <= len(ka); p++ {
		a0[p] = a0[p-1] + al.delTree[ka[p-1]]
	}

	for p := 1; p <= len(ka); p++ {
		opts, _ := al.forestVsTreeOptions(a0, a1, u, v, p)
		a1[p] = slices.Min(opts[:])
	}

	return a0, a1
}

func (al *aligner[T]) forestVsTreeOptions(a0, a1 []float64, u, v, p int) ([5]float64, int) {
	x := al.a.Children[u][p-1]

	var opts [5]float64

	opts[0] = a1[p-1] + al.delTree[x]
	opts[1] = a0[p] + al.insTree[v]
	opts[2] = a0[p-1] + al.tree[al.at(x, v)]
	opts[3] = a0[p-1] + (al.delNode[x] + al.ft1[al.at(x, v)])

	best, split := math.Inf(1), 0

	for k := range p {
		c := a0[k] + al.colAt(u, v, k, p)
		if c < best {
			best, split = c, k
		}
	}

	opts[4] = al.insNode[v] + best

	return opts, split
}

// treeVsForest aligns the single tree u with the children of v.
func (al *aligner[T]) treeVsForest(u, v int) ([]float64, []float64) {
	kb := al.b.Children[v]
	b0 := make([]float64, len(kb)+1)
	b1 := make([]float64, len(kb)+1)

	b1[0] = al.delTree[u]

	for q := 1; q <= len(kb); q++ {
		b0[q] = b0[q-1] + al.insTree[kb[q-1]]
	}

	for q := 1; q <= len(kb); q++ {
		opts, _ := al.treeVsForestOptions(b0, b1, u, v, q)
		b1[q] = slices.Min(opts[:])
	}

	return b0, b1
}

func (al *aligner[T]) treeVsForestOptions(b0, b1 []float64, u, v, q int) ([5]float64, int) {
	y := al.b.Children[v][q-1]

	var opts [5]float64

	opts[0] = b1[q-1] + al.insTree[y]
	opts[1] = b0[q] + al.delTree[u]
	opts[2] = b0[q-1] + al.tree[al.at(u, y)]
	opts[3] = b0[q-1] + (al.insNode[y] + al.ft2[al.at(u, y)])

	best, split := math.Inf(1), 0

	for k := range q {
		c := b0[k] + al.rowAt(u, v, k, q)
		if c < best {
			best, split = c, k
		}
	}

	opts[4] = al.delNode[u] + best

	return opts, split
}
