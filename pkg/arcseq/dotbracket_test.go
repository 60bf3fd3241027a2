package arcseq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
)

func TestParseDotBracket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		bonds []arcseq.Bond
	}{
		{name: "hairpin", input: "((..))", bonds: []arcseq.Bond{{I: 1, J: 6}, {I: 2, J: 5}}},
		{name: "pseudoknot", input: "([)]", bonds: []arcseq.Bond{{I: 1, J: 3}, {I: 2, J: 4}}},
		{name: "letter pairs", input: "(A)a", bonds: []arcseq.Bond{{I: 1, J: 3}, {I: 2, J: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seq, err := arcseq.ParseDotBracket(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.bonds, seq.Bonds())
			assert.Equal(t, len(tt.input), seq.Len())
		})
	}
}

func TestParseDotBracket_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "unclosed", input: "((.)", want: arcseq.ErrUnbalanced},
		{name: "unopened", input: "(.))", want: arcseq.ErrUnbalanced},
		{name: "unexpected rune", input: "(.*)", want: arcseq.ErrSyntax},
		{name: "no pairs", input: "....", want: arcseq.ErrNoBonds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := arcseq.ParseDotBracket(tt.input)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseDotBracket_UnclosedReportsFirstFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "round before square", input: "A[<{(..", want: `'(' at position 5 is never closed`},
		{name: "square before letters", input: "B.A.[..", want: `'[' at position 5 is never closed`},
		{name: "letters in alphabet order", input: "C..B..A", want: `'A' at position 7 is never closed`},
		{name: "innermost of a family", input: "((.[]", want: `'(' at position 2 is never closed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for range 20 {
				_, err := arcseq.ParseDotBracket(tt.input)
				require.ErrorIs(t, err, arcseq.ErrUnbalanced)
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestFormatDotBracket(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(8, []arcseq.Bond{{I: 1, J: 5}, {I: 3, J: 7}, {I: 6, J: 8}})
	require.NoError(t, err)

	text, err := arcseq.FormatDotBracket(seq)
	require.NoError(t, err)
	assert.Equal(t, "(.[.)(])", text)

	back, err := arcseq.ParseDotBracket(text)
	require.NoError(t, err)
	assert.Equal(t, seq.Bonds(), back.Bonds())
}

func TestFormatDotBracket_MultiPartner(t *testing.T) {
	t.Parallel()

	seq, err := arcseq.New(5, []arcseq.Bond{{I: 1, J: 3}, {I: 3, J: 5}})
	require.NoError(t, err)

	_, err = arcseq.FormatDotBracket(seq)
	require.ErrorIs(t, err, arcseq.ErrNotDotBracket)
}
