package arcseq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
)

func TestNew_NormalizesBonds(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(6, []arcseq.Bond{
		{I: 6, J: 1},
		{I: 2, J: 3},
		{I: 3, J: 2},
		{I: 4, J: 4},
		{I: 4, J: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, seq.Len())
	assert.Equal(t, []arcseq.Bond{{I: 1, J: 6}, {I: 2, J: 3}, {I: 4, J: 5}}, seq.Bonds())
	assert.Equal(t, 3, seq.NumBonds())
	assert.Equal(t, []int{6}, seq.Partners(1))
	assert.Equal(t, []int{5}, seq.Partners(4))
	assert.Equal(t, 0, seq.Degree(7))
	assert.Nil(t, seq.Partners(0))
}

func TestNew_PartnersAreSymmetricAndSorted(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(5, []arcseq.Bond{{I: 3, J: 5}, {I: 1, J: 5}, {I: 1, J: 3}})
	require.NoError(t, err)

	table := seq.PartnerTable()
	require.Len(t, table, 6)
	assert.Empty(t, table[0])
	assert.Equal(t, []int{1, 3}, table[5])
	assert.Equal(t, []int{1, 5}, table[3])
	assert.Equal(t, []int{3, 5}, table[1])

	for i := 1; i <= seq.Len(); i++ {
		for _, j := range table[i] {
			assert.Contains(t, table[j], i)
		}
	}
}

func TestNew_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(4, []arcseq.Bond{{I: 1, J: 4}})
	require.NoError(t, err)

	bonds := seq.Bonds()
	bonds[0].I = 3

	partners := seq.Partners(1)
	partners[0] = 2

	table := seq.PartnerTable()
	table[4][0] = 9

	assert.Equal(t, []arcseq.Bond{{I: 1, J: 4}}, seq.Bonds())
	assert.Equal(t, []int{4}, seq.Partners(1))
	assert.Equal(t, []int{1}, seq.Partners(4))
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length int
		bonds  []arcseq.Bond
		opts   []arcseq.Option
		want   error
	}{
		{name: "zero length", length: 0, bonds: []arcseq.Bond{{I: 1, J: 2}}, want: arcseq.ErrEmptySequence},
		{name: "no bonds", length: 3, want: arcseq.ErrNoBonds},
		{name: "only self pairs", length: 3, bonds: []arcseq.Bond{{I: 2, J: 2}}, want: arcseq.ErrNoBonds},
		{name: "index too large", length: 3, bonds: []arcseq.Bond{{I: 1, J: 4}}, want: arcseq.ErrIndexOutOfRange},
		{name: "index zero", length: 3, bonds: []arcseq.Bond{{I: 0, J: 2}}, want: arcseq.ErrIndexOutOfRange},
		{
			name:   "residue mismatch",
			length: 3,
			bonds:  []arcseq.Bond{{I: 1, J: 3}},
			opts:   []arcseq.Option{arcseq.WithResidues("ACGU")},
			want:   arcseq.ErrResidueMismatch,
		},
		{
			name:   "over max length",
			length: 10,
			bonds:  []arcseq.Bond{{I: 1, J: 10}},
			opts:   []arcseq.Option{arcseq.WithMaxLength(5)},
			want:   arcseq.ErrTooLarge,
		},
		{name: "over default max length", length: arcseq.DefaultMaxLength + 1, bonds: []arcseq.Bond{{I: 1, J: 2}}, want: arcseq.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := arcseq.New(tt.length, tt.bonds, tt.opts...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(4, []arcseq.Bond{{I: 1, J: 4}}, arcseq.WithName("hp"), arcseq.WithResidues("GCGC"))
	require.NoError(t, err)

	assert.Equal(t, "hp", seq.Name())
	assert.Equal(t, "GCGC", seq.Residues())
}

func TestCompareBonds(t *testing.T) {
	t.Parallel()

	assert.Negative(t, arcseq.CompareBonds(arcseq.Bond{I: 1, J: 5}, arcseq.Bond{I: 2, J: 3}))
	assert.Negative(t, arcseq.CompareBonds(arcseq.Bond{I: 1, J: 3}, arcseq.Bond{I: 1, J: 5}))
	assert.Zero(t, arcseq.CompareBonds(arcseq.Bond{I: 1, J: 3}, arcseq.Bond{I: 1, J: 3}))
	assert.Positive(t, arcseq.CompareBonds(arcseq.Bond{I: 4, J: 5}, arcseq.Bond{I: 1, J: 9}))
	assert.Equal(t, "(1,3)", arcseq.Bond{I: 1, J: 3}.String())
}

func TestNew_MaxLength(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(10, []arcseq.Bond{{I: 1, J: 10}}, arcseq.WithMaxLength(10))
	require.NoError(t, err)
	assert.Equal(t, 10, seq.Len())

	seq, err = arcseq.New(arcseq.DefaultMaxLength+1, []arcseq.Bond{{I: 1, J: 2}}, arcseq.WithMaxLength(0))
	require.NoError(t, err)
	assert.Equal(t, arcseq.DefaultMaxLength+1, seq.Len())
}
