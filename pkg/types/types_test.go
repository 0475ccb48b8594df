package types_test

import (
	"testing"

	"github.com/soundprediction/go-relcheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.CheckMode
		wantErr bool
	}{
		{name: "parent-child", input: "parent-child", want: types.ModeParentChild},
		{name: "broader-than", input: "broader-than", want: types.ModeBroaderThan},
		{name: "both", input: "both", want: types.ModeBoth},
		{name: "surrounding whitespace", input: "  both ", want: types.ModeBoth},
		{name: "unknown", input: "sibling", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseCheckMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckModeGates(t *testing.T) {
	assert.True(t, types.ModeParentChild.CyclesEnabled())
	assert.False(t, types.ModeParentChild.ContradictionsEnabled())

	assert.False(t, types.ModeBroaderThan.CyclesEnabled())
	assert.True(t, types.ModeBroaderThan.ContradictionsEnabled())

	assert.True(t, types.ModeBoth.CyclesEnabled())
	assert.True(t, types.ModeBoth.ContradictionsEnabled())
}

func TestCycleString(t *testing.T) {
	c := types.Cycle{Path: []types.CUI{"C001", "C002", "C003"}}
	assert.Equal(t, "C001 -> C002 -> C003", c.String())
	assert.Equal(t, 3, c.Length())
}
