package stree_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
	"github.com/Sumatoshi-tech/stalign/pkg/stree"
)

func mustSequence(t *testing.T, n int, pairs ...[2]int) *arcseq.Sequence {
	t.Helper()

	bonds := make([]arcseq.Bond, 0, len(pairs))
	for _, pair := range pairs {
		bonds = append(bonds, arcseq.Bond{I: pair[0], J: pair[1]})
	}

	seq, err := arcseq.New(n, bonds)
	require.NoError(t, err)

	return seq
}

func hp(i, j int) *stree.Node {
	return stree.NewLeaf(stree.Hairpin(i, j))
}

func op(kind stree.Kind, children ...*stree.Node) *stree.Node {
	return stree.NewNode(stree.Operator(kind), children...)
}

func TestBuild_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		n     int
		pairs [][2]int
		want  *stree.Node
	}{
		{
			name:  "single hairpin",
			n:     2,
			pairs: [][2]int{{1, 2}},
			want:  hp(1, 2),
		},
		{
			name:  "concatenation",
			n:     4,
			pairs: [][2]int{{1, 2}, {3, 4}},
			want:  op(stree.KindConcatenation, hp(1, 2), hp(3, 4)),
		},
		{
			name:  "crossing pair",
			n:     5,
			pairs: [][2]int{{1, 4}, {2, 5}},
			want:  stree.NewNode(stree.Crossing(1), hp(1, 4), hp(2, 5)),
		},
		{
			name:  "nesting over concatenation",
			n:     6,
			pairs: [][2]int{{1, 6}, {2, 3}, {4, 5}},
			want:  op(stree.KindNesting, op(stree.KindConcatenation, hp(2, 3), hp(4, 5)), hp(1, 6)),
		},
		{
			name:  "nested stem",
			n:     6,
			pairs: [][2]int{{1, 6}, {2, 5}, {3, 4}},
			want:  op(stree.KindNesting, op(stree.KindNesting, hp(3, 4), hp(2, 5)), hp(1, 6)),
		},
		{
			name:  "meeting",
			n:     5,
			pairs: [][2]int{{1, 3}, {3, 5}},
			want:  op(stree.KindMeeting, hp(1, 3), hp(3, 5)),
		},
		{
			name:  "starting",
			n:     5,
			pairs: [][2]int{{1, 3}, {1, 5}},
			want:  op(stree.KindStarting, hp(1, 3), hp(1, 5)),
		},
		{
			name:  "ending",
			n:     5,
			pairs: [][2]int{{1, 5}, {3, 5}},
			want:  op(stree.KindEnding, hp(3, 5), hp(1, 5)),
		},
		{
			name:  "diamond",
			n:     5,
			pairs: [][2]int{{1, 3}, {1, 5}, {3, 5}},
			want:  op(stree.KindDiamond, op(stree.KindMeeting, hp(1, 3), hp(3, 5)), hp(1, 5)),
		},
		{
			name:  "leading unpaired positions",
			n:     7,
			pairs: [][2]int{{4, 7}, {5, 6}},
			want:  op(stree.KindNesting, hp(5, 6), hp(4, 7)),
		},
		{
			name:  "double crossing",
			n:     6,
			pairs: [][2]int{{1, 4}, {2, 5}, {3, 6}},
			want: stree.NewNode(stree.Crossing(2),
				stree.NewNode(stree.Crossing(1), hp(1, 4), hp(2, 5)),
				hp(3, 6)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, err := stree.Build(context.Background(), mustSequence(t, tt.n, tt.pairs...))
			require.NoError(t, err)

			assert.True(t, tt.want.Equal(tree), "want %s\ngot  %s", tt.want, tree)
		})
	}
}

func TestBuild_NoBonds(t *testing.T) {
	t.Parallel()

	_, err := arcseq.New(4, nil)
	require.ErrorIs(t, err, arcseq.ErrNoBonds)

	_, err = stree.Build(context.Background(), nil)
	require.ErrorIs(t, err, stree.ErrNilSequence)
}

func TestBuild_MaxDepth(t *testing.T) {
	t.Parallel()

	seq := nestedStem(t, 5)

	_, err := stree.Build(context.Background(), seq, stree.WithMaxDepth(3))
	require.ErrorIs(t, err, stree.ErrStructureTooLarge)

	tree, err := stree.Build(context.Background(), seq, stree.WithMaxDepth(5))
	require.NoError(t, err)
	assert.Equal(t, 5, tree.Height())
}

func TestBuild_MaxBonds(t *testing.T) {
	t.Parallel()

	_, err := stree.Build(context.Background(), nestedStem(t, 10), stree.WithMaxBonds(9))
	require.ErrorIs(t, err, stree.ErrStructureTooLarge)
}

func TestBuild_DeepStemDoesNotRecurse(t *testing.T) {
	t.Parallel()

	const bonds = 2000

	tree, err := stree.Build(context.Background(), nestedStem(t, bonds))
	require.NoError(t, err)

	assert.Equal(t, bonds, tree.Height())
	assert.Len(t, tree.Hairpins(), bonds)
}

func TestBuild_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := stree.Build(ctx, nestedStem(t, 3))
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuild_RandomStructuresEnumerateEveryBond(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 300 {
		seq := randomMatching(t, rng)

		tree, err := stree.Build(context.Background(), seq)
		require.NoError(t, err, "trial %d: %s", trial, arcseq.Format(seq))

		assertEnumeratesBonds(t, seq, tree)
		assertBinary(t, tree)

		again, err := stree.Build(context.Background(), seq)
		require.NoError(t, err)
		assert.True(t, tree.Equal(again), "trial %d is not idempotent", trial)
	}
}

func TestBuild_RandomMultiPartnerStructures(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(13, 17))
	shared := 0

	for trial := range 300 {
		seq := randomGraph(t, rng)
		if maxDegree(seq) > 1 {
			shared++
		}

		tree, err := stree.Build(context.Background(), seq)
		require.NoError(t, err, "trial %d: %s", trial, arcseq.Format(seq))

		assertEnumeratesBonds(t, seq, tree)
		assertBinary(t, tree)
	}

	assert.Greater(t, shared, 100)
}

func TestBuild_ConcurrentBuildsShareSequence(t *testing.T) {
	t.Parallel()

	seq := mustSequence(t, 10, [2]int{1, 5}, [2]int{2, 7}, [2]int{3, 4}, [2]int{6, 9}, [2]int{8, 10})
	want, err := stree.Build(context.Background(), seq)
	require.NoError(t, err)

	results := make(chan *stree.Node, 8)

	for range 8 {
		go func() {
			tree, buildErr := stree.Build(context.Background(), seq)
			if buildErr != nil {
				results <- nil

				return
			}

			results <- tree
		}()
	}

	for range 8 {
		got := <-results
		require.NotNil(t, got)
		assert.True(t, want.Equal(got))
	}
}

func nestedStem(t *testing.T, bonds int) *arcseq.Sequence {
	t.Helper()

	n := 2 * bonds
	pairs := make([][2]int, 0, bonds)

	for i := 1; i <= bonds; i++ {
		pairs = append(pairs, [2]int{i, n + 1 - i})
	}

	return mustSequence(t, n, pairs...)
}

// randomMatching draws a structure where every position has at most one
// partner; crossings are allowed.
func randomMatching(t *testing.T, rng *rand.Rand) *arcseq.Sequence {
	t.Helper()

	n := 2 + rng.IntN(60)
	positions := rng.Perm(n)
	pairs := make([][2]int, 0, n/2)

	for idx := 0; idx+1 < len(positions); idx += 2 {
		if rng.IntN(4) == 0 && len(pairs) > 0 {
			continue
		}

		pairs = append(pairs, [2]int{positions[idx] + 1, positions[idx+1] + 1})
	}

	if len(pairs) == 0 {
		pairs = append(pairs, [2]int{1, n})
	}

	return mustSequence(t, n, pairs...)
}

// randomGraph draws arbitrary bonds, so positions may have several
// partners and bonds may both cross and share endpoints.
func randomGraph(t *testing.T, rng *rand.Rand) *arcseq.Sequence {
	t.Helper()

	n := 3 + rng.IntN(40)
	draws := 1 + rng.IntN(2*n)
	pairs := make([][2]int, 0, draws)

	for range draws {
		i, j := 1+rng.IntN(n), 1+rng.IntN(n)
		if i != j {
			pairs = append(pairs, [2]int{i, j})
		}
	}

	// A hub bonded to two positions guarantees a multi-partner position.
	hub := 1 + rng.IntN(n)
	pairs = append(pairs, [2]int{hub, hub%n + 1}, [2]int{hub, (hub+1)%n + 1})

	return mustSequence(t, n, pairs...)
}

func maxDegree(seq *arcseq.Sequence) int {
	best := 0
	for i := 1; i <= seq.Len(); i++ {
		best = max(best, seq.Degree(i))
	}

	return best
}

func assertEnumeratesBonds(t *testing.T, seq *arcseq.Sequence, tree *stree.Node) {
	t.Helper()

	hairpins := tree.Hairpins()
	require.Len(t, hairpins, seq.NumBonds())

	seen := make(map[arcseq.Bond]int, len(hairpins))

	for _, label := range hairpins {
		assert.Less(t, label.I, label.J)
		seen[arcseq.Bond{I: label.I, J: label.J}]++
	}

	for _, bond := range seq.Bonds() {
		assert.Equal(t, 1, seen[bond], "bond %s", bond)
	}
}

func assertBinary(t *testing.T, tree *stree.Node) {
	t.Helper()

	tree.Walk(func(node *stree.Node) bool {
		if node.Label.IsHairpin() {
			assert.Empty(t, node.Children)
		} else {
			assert.True(t, node.Label.IsOperator(), "label %v", node.Label)
			assert.Len(t, node.Children, 2)
		}

		return true
	})
}
