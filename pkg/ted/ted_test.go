package ted_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/ted"
)

type node struct {
	name     string
	children []*node
}

func (n *node) Subtrees() []*node {
	return n.children
}

func tr(name string, children ...*node) *node {
	return &node{name: name, children: children}
}

func name(n *node) string {
	return n.name
}

func size(n *node) int {
	if n == nil {
		return 0
	}

	total := 1
	for _, child := range n.children {
		total += size(child)
	}

	return total
}

// mappingCost prices a mapping the way the engine does.
func mappingCost(mapping []ted.Pair[*node], costs ted.Costs) float64 {
	total := 0.0

	for _, pair := range mapping {
		switch {
		case pair.Left == nil:
			total += costs.Insert
		case pair.Right == nil:
			total += costs.Delete
		case pair.Left.name != pair.Right.name:
			total += costs.Rename
		}
	}

	return total
}

func assertValidMapping(t *testing.T, t1, t2 *node, result ted.Result[*node], costs ted.Costs) {
	t.Helper()

	left := make(map[*node]int)
	right := make(map[*node]int)

	for _, pair := range result.Mapping {
		require.False(t, pair.Left == nil && pair.Right == nil, "empty pair")

		if pair.Left != nil {
			left[pair.Left]++
		}

		if pair.Right != nil {
			right[pair.Right]++
		}
	}

	assert.Len(t, left, size(t1))
	assert.Len(t, right, size(t2))

	for n, count := range left {
		assert.Equal(t, 1, count, "left node %s", n.name)
	}

	for n, count := range right {
		assert.Equal(t, 1, count, "right node %s", n.name)
	}

	assert.InDelta(t, result.Distance, mappingCost(result.Mapping, costs), 1e-9)
}

func TestDistance_ClassicExample(t *testing.T) {
	t.Parallel()

	t1 := tr("f", tr("d", tr("a"), tr("c", tr("b"))), tr("e"))
	t2 := tr("f", tr("c", tr("d", tr("a"), tr("b"))), tr("e"))

	result, err := ted.Distance(t1, t2, name, ted.UnitCosts())
	require.NoError(t, err)

	assert.InDelta(t, 2.0, result.Distance, 1e-9)
	assertValidMapping(t, t1, t2, result, ted.UnitCosts())
}

func TestDistance_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		t1    *node
		t2    *node
		costs ted.Costs
		want  float64
	}{
		{
			name:  "identical",
			t1:    tr("a", tr("b"), tr("c", tr("d"))),
			t2:    tr("a", tr("b"), tr("c", tr("d"))),
			costs: ted.UnitCosts(),
			want:  0,
		},
		{
			name:  "rename leaf",
			t1:    tr("a"),
			t2:    tr("b"),
			costs: ted.UnitCosts(),
			want:  1,
		},
		{
			name:  "rename dearer than delete plus insert",
			t1:    tr("a"),
			t2:    tr("b"),
			costs: ted.Costs{Insert: 1, Delete: 1, Rename: 5},
			want:  2,
		},
		{
			name:  "insert child",
			t1:    tr("a"),
			t2:    tr("a", tr("b")),
			costs: ted.Costs{Insert: 3, Delete: 1, Rename: 1},
			want:  3,
		},
		{
			name:  "delete inner node",
			t1:    tr("r", tr("x", tr("a"), tr("b")), tr("c")),
			t2:    tr("r", tr("a"), tr("b"), tr("c")),
			costs: ted.UnitCosts(),
			want:  1,
		},
		{
			name:  "empty left",
			t1:    nil,
			t2:    tr("a", tr("b")),
			costs: ted.Costs{Insert: 2, Delete: 1, Rename: 1},
			want:  4,
		},
		{
			name:  "empty right",
			t1:    tr("a", tr("b"), tr("c")),
			t2:    nil,
			costs: ted.UnitCosts(),
			want:  3,
		},
		{
			name:  "both empty",
			costs: ted.UnitCosts(),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ted.Distance(tt.t1, tt.t2, name, tt.costs)
			require.NoError(t, err)

			assert.InDelta(t, tt.want, result.Distance, 1e-9)
			assertValidMapping(t, tt.t1, tt.t2, result, tt.costs)
		})
	}
}

func TestDistance_Symmetric(t *testing.T) {
	t.Parallel()

	t1 := tr("r", tr("x", tr("a"), tr("b")), tr("c"))
	t2 := tr("r", tr("a"), tr("y", tr("b"), tr("c")))

	forward, err := ted.Distance(t1, t2, name, ted.UnitCosts())
	require.NoError(t, err)

	backward, err := ted.Distance(t2, t1, name, ted.UnitCosts())
	require.NoError(t, err)

	assert.InDelta(t, 2.0, forward.Distance, 1e-9)
	assert.InDelta(t, forward.Distance, backward.Distance, 1e-9)
}

func TestDistance_IdentityMappingKeepsEveryNode(t *testing.T) {
	t.Parallel()

	t1 := tr("a", tr("b"), tr("c"))

	result, err := ted.Distance(t1, t1, name, ted.UnitCosts())
	require.NoError(t, err)

	require.Len(t, result.Mapping, 3)

	for _, pair := range result.Mapping {
		assert.Same(t, pair.Left, pair.Right)
	}
}

func TestDistance_MaxCells(t *testing.T) {
	t.Parallel()

	t1 := tr("a", tr("b"), tr("c"))

	_, err := ted.Distance(t1, t1, name, ted.UnitCosts(), ted.WithMaxCells(8))
	require.ErrorIs(t, err, ted.ErrTooLarge)

	result, err := ted.Distance(t1, t1, name, ted.UnitCosts(), ted.WithMaxCells(9))
	require.NoError(t, err)
	assert.Zero(t, result.Distance)

	_, err = ted.Distance(t1, t1, name, ted.UnitCosts(), ted.WithMaxCells(0))
	require.NoError(t, err)
}

func TestDistance_MaxCellsIgnoresEmptyTree(t *testing.T) {
	t.Parallel()

	result, err := ted.Distance(nil, tr("a", tr("b")), name, ted.UnitCosts(), ted.WithMaxCells(1))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.Distance, 1e-9)
}
