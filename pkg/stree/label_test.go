package stree_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/stalign/pkg/stree"
)

func TestLabel_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label      stree.Label
		text       string
		simplified string
	}{
		{stree.Hairpin(1, 8), "H(1,8)", "H"},
		{stree.Crossing(3), "(CROS,3)", "CROS"},
		{stree.Operator(stree.KindNesting), "NEST", "NEST"},
		{stree.Operator(stree.KindStarting), "START", "START"},
		{stree.Operator(stree.KindEnding), "END", "END"},
		{stree.Operator(stree.KindDiamond), "DIAMOND", "DIAMOND"},
		{stree.Operator(stree.KindMeeting), "MEET", "MEET"},
		{stree.Operator(stree.KindConcatenation), "CONC", "CONC"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.text, tt.label.String())
			assert.Equal(t, tt.simplified, tt.label.Simplified())

			parsed, err := stree.ParseLabel(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.label, parsed)
		})
	}
}

func TestLabel_Classification(t *testing.T) {
	t.Parallel()

	assert.True(t, stree.Hairpin(1, 2).IsHairpin())
	assert.False(t, stree.Hairpin(1, 2).IsOperator())
	assert.True(t, stree.Crossing(1).IsOperator())
	assert.True(t, stree.Operator(stree.KindConcatenation).IsOperator())
	assert.False(t, stree.Label{}.IsOperator())
	assert.False(t, stree.Label{}.IsHairpin())
}

func TestParseLabel_Invalid(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "H(1,2", "H(a,2)", "H(12)", "(CROS,x)", "(CROS,1", "LOOP", "INVALID"} {
		_, err := stree.ParseLabel(text)
		require.ErrorIs(t, err, stree.ErrInvalidLabel, "input %q", text)
	}
}

func TestLabel_MarshalInvalid(t *testing.T) {
	t.Parallel()

	_, err := stree.Label{}.MarshalText()
	require.ErrorIs(t, err, stree.ErrInvalidLabel)
}

func TestNode_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	tree := op(stree.KindNesting, stree.NewNode(stree.Crossing(1), hp(2, 5), hp(3, 6)), hp(1, 8))

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"label":"(CROS,1)"`)

	var decoded stree.Node
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, tree.Equal(&decoded))
}

func TestNode_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	tree := op(stree.KindMeeting, hp(1, 3), hp(3, 5))

	data, err := yaml.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), "label: MEET")

	var decoded stree.Node
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.True(t, tree.Equal(&decoded))
}

func TestLabel_UnmarshalYAMLRejectsMapping(t *testing.T) {
	t.Parallel()

	var label stree.Label

	err := yaml.Unmarshal([]byte("kind: 1\n"), &label)
	require.ErrorIs(t, err, stree.ErrInvalidLabel)
}
