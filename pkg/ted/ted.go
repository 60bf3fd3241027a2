// Package ted computes the Zhang-Shasha tree edit distance between ordered
// labeled trees and recovers the edit mapping behind it.
package ted

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/ordtree"
)

// DefaultMaxCells bounds the tree distance table of one comparison.
const DefaultMaxCells = 1 << 26

// ErrTooLarge is returned when the distance tables would exceed the cell limit.
var ErrTooLarge = errors.New("edit distance table too large")

type options struct {
	maxCells int
}

// Option configures Distance.
type Option func(*options)

// WithMaxCells sets the cell limit of the n1 x n2 distance table. Zero
// disables the check.
func WithMaxCells(cells int) Option {
	return func(o *options) {
		o.maxCells = cells
	}
}

// Costs weighs the three edit operations.
type Costs struct {
	Insert float64 `json:"insert" yaml:"insert"`
	Delete float64 `json:"delete" yaml:"delete"`
	Rename float64 `json:"rename" yaml:"rename"`
}

// UnitCosts charges 1 for every operation.
func UnitCosts() Costs {
	return Costs{Insert: 1, Delete: 1, Rename: 1}
}

// Pair is one entry of an edit mapping. A zero Left is an insertion of
// Right; a zero Right is a deletion of Left; otherwise Left is kept or
// renamed to Right.
type Pair[T any] struct {
	Left  T
	Right T
}

// Result is the edit distance and one optimal mapping.
type Result[T any] struct {
	Distance float64
	Mapping  []Pair[T]
}

type engine[T ordtree.Tree[T]] struct {
	a, b   *ordtree.Index[T]
	labelA []string
	labelB []string
	costs  Costs
	td     [][]float64
}

// Distance returns the edit distance between t1 and t2 where nodes are
// compared through label. A zero tree is empty. Trees whose distance table
// would exceed the cell limit fail with ErrTooLarge before it is allocated.
func Distance[T ordtree.Tree[T]](t1, t2 T, label func(T) string, costs Costs, opts ...Option) (Result[T], error) {
	o := options{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(&o)
	}

	e := &engine[T]{
		a:     ordtree.NewIndex(t1),
		b:     ordtree.NewIndex(t2),
		costs: costs,
	}

	e.labelA = labels(e.a, label)
	e.labelB = labels(e.b, label)

	if e.a.Len() == 0 || e.b.Len() == 0 {
		return e.trivial(), nil
	}

	cells := e.a.Len() * e.b.Len()
	if o.maxCells > 0 && cells > o.maxCells {
		return Result[T]{}, fmt.Errorf("%w: %d cells for %dx%d nodes exceed limit %d",
			ErrTooLarge, cells, e.a.Len(), e.b.Len(), o.maxCells)
	}

	e.td = make([][]float64, e.a.Len())
	for i := range e.td {
		e.td[i] = make([]float64, e.b.Len())
	}

	rootsB := e.b.KeyRoots()

	for _, i := range e.a.KeyRoots() {
		for _, j := range rootsB {
			e.forest(i, j)
		}
	}

	return Result[T]{
		Distance: e.td[e.a.Root()][e.b.Root()],
		Mapping:  e.mapping(),
	}, nil
}

func labels[T ordtree.Tree[T]](ix *ordtree.Index[T], label func(T) string) []string {
	out := make([]string, ix.Len())
	for id, node := range ix.Nodes {
		out[id] = label(node)
	}

	return out
}

func (e *engine[T]) trivial() Result[T] {
	var result Result[T]

	for _, node := range e.a.Nodes {
		result.Distance += e.costs.Delete
		result.Mapping = append(result.Mapping, Pair[T]{Left: node})
	}

	for _, node := range e.b.Nodes {
		result.Distance += e.costs.Insert
		result.Mapping = append(result.Mapping, Pair[T]{Right: node})
	}

	return result
}

func (e *engine[T]) rename(i, j int) float64 {
	if e.labelA[i] == e.labelB[j] {
		return 0
	}

	return e.costs.Rename
}

// forest fills the forest distance table of the subtrees rooted at i and j
// and records every tree-to-tree distance it meets in td. Row x stands for
// the forest Leftmost(i)..Leftmost(i)+x-1; row 0 is empty.
func (e *engine[T]) forest(i, j int) [][]float64 {
	li, lj := e.a.Leftmost[i], e.b.Leftmost[j]
	rows, cols := i-li+2, j-lj+2

	fd := make([][]float64, rows)
	for x := range fd {
		fd[x] = make([]float64, cols)
	}

	for x := 1; x < rows; x++ {
		fd[x][0] = fd[x-1][0] + e.costs.Delete
	}

	for y := 1; y < cols; y++ {
		fd[0][y] = fd[0][y-1] + e.costs.Insert
	}

	for x := 1; x < rows; x++ {
		xi := li + x - 1

		for y := 1; y < cols; y++ {
			yj := lj + y - 1
			del := fd[x-1][y] + e.costs.Delete
			ins := fd[x][y-1] + e.costs.Insert

			if e.a.Leftmost[xi] == li && e.b.Leftmost[yj] == lj {
				fd[x][y] = min(del, ins, fd[x-1][y-1]+e.rename(xi, yj))
				e.td[xi][yj] = fd[x][y]

				continue
			}

			px, py := e.a.Leftmost[xi]-li, e.b.Leftmost[yj]-lj
			fd[x][y] = min(del, ins, fd[px][py]+e.td[xi][yj])
		}
	}

	return fd
}

// mapping walks the forest tables back from the two roots. Subtree pairs
// reached through td are queued and traced with their own table.
func (e *engine[T]) mapping() []Pair[T] {
	type edge struct{ left, right int }

	var edges []edge

	stack := [][2]int{{e.a.Root(), e.b.Root()}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j := top[0], top[1]
		li, lj := e.a.Leftmost[i], e.b.Leftmost[j]
		fd := e.forest(i, j)

		x, y := i-li+1, j-lj+1

		for x > 0 || y > 0 {
			if x == 0 {
				edges = append(edges, edge{left: -1, right: lj + y - 1})
				y--

				continue
			}

			if y == 0 {
				edges = append(edges, edge{left: li + x - 1, right: -1})
				x--

				continue
			}

			xi, yj := li+x-1, lj+y-1

			switch {
			case fd[x][y] == fd[x-1][y]+e.costs.Delete:
				edges = append(edges, edge{left: xi, right: -1})
				x--
			case fd[x][y] == fd[x][y-1]+e.costs.Insert:
				edges = append(edges, edge{left: -1, right: yj})
				y--
			case e.a.Leftmost[xi] == li && e.b.Leftmost[yj] == lj:
				edges = append(edges, edge{left: xi, right: yj})
				x--
				y--
			default:
				stack = append(stack, [2]int{xi, yj})
				x, y = e.a.Leftmost[xi]-li, e.b.Leftmost[yj]-lj
			}
		}
	}

	slices.SortFunc(edges, func(p, q edge) int {
		return cmp.Or(cmp.Compare(sortKey(p.left), sortKey(q.left)), cmp.Compare(sortKey(p.right), sortKey(q.right)))
	})

	mapping := make([]Pair[T], 0, len(edges))

	for _, ed := range edges {
		var pair Pair[T]

		if ed.left >= 0 {
			pair.Left = e.a.Nodes[ed.left]
		}

		if ed.right >= 0 {
			pair.Right = e.b.Nodes[ed.right]
		}

		mapping = append(mapping, pair)
	}

	return mapping
}

// sortKey orders gaps after every node.
func sortKey(id int) int {
	if id < 0 {
		return int(^uint(0) >> 1)
	}

	return id
}
