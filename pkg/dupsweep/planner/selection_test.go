package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  Selection
	}{
		{"all", "all", 3, Selection{Mode: ModeAll}},
		{"all uppercase", "  ALL ", 3, Selection{Mode: ModeAll}},
		{"todos", "todos", 3, Selection{Mode: ModeAll}},
		{"none", "none", 3, Selection{Mode: ModeNone}},
		{"empty line", "", 3, Selection{Mode: ModeNone}},
		{"skip", "skip", 3, Selection{Mode: ModeNone}},
		{"single", "2", 3, Selection{Mode: ModeSelect, Indices: []int{2}}},
		{"list", "3,2", 3, Selection{Mode: ModeSelect, Indices: []int{2, 3}}},
		{"spaces", " 2 , 3 ", 3, Selection{Mode: ModeSelect, Indices: []int{2, 3}}},
		{"duplicates collapse", "2,2,3", 3, Selection{Mode: ModeSelect, Indices: []int{2, 3}}},
		{"out of range dropped", "0,2,9", 3, Selection{Mode: ModeSelect, Indices: []int{2}}},
		{"negative dropped", "-1,3", 3, Selection{Mode: ModeSelect, Indices: []int{3}}},
		{"all out of range", "7,8", 3, Selection{Mode: ModeSelect}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.input, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelection_Malformed(t *testing.T) {
	for _, input := range []string{"two", "2,x", "2,,3", "1.5", "yes please"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSelection(input, 3)
			require.Error(t, err)

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, input, inputErr.Input)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "none", ModeNone.String())
	assert.Equal(t, "all", ModeAll.String())
	assert.Equal(t, "select", ModeSelect.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
