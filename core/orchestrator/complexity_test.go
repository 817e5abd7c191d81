package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexityScore(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        float64
	}{
		{"empty", "", 0},
		{"length only", "hello", 0.5},
		{"sequencer", "a and b", 0.7 + 1},
		{"semicolon", "a;b", 0.3 + 1},
		{"extra question marks", "a? b? c?", 0.8 + 2},
		{"multi-step verbs", "summarize and compare", 2.1 + 3},
		{"capped", strings.Repeat("x", 500), MaxComplexity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ComplexityScore(tc.description), 1e-9)
		})
	}
}

func TestAutoModeIsMonotonicInLength(t *testing.T) {
	bases := []string{
		"what is 2 + 2",
		"find go docs and then summarize",
		"x",
	}
	for _, base := range bases {
		previous := ModeSingle
		description := base
		for i := 0; i < 120; i++ {
			score := ComplexityScore(description)
			mode := selectMode(ModeAuto, score, DefaultComplexityThreshold)
			if previous == ModeMulti {
				assert.Equal(t, ModeMulti, mode, "mode flipped back to single at %q", description)
			}
			previous = mode
			// Letters only, so no new signal words or punctuation appear.
			description += "x"
		}
		assert.Equal(t, ModeMulti, previous, "long descriptions should end up multi")
	}
}

func TestSelectMode_ExplicitModesWin(t *testing.T) {
	assert.Equal(t, ModeSingle, selectMode(ModeSingle, MaxComplexity, DefaultComplexityThreshold))
	assert.Equal(t, ModeMulti, selectMode(ModeMulti, 0, DefaultComplexityThreshold))
	assert.Equal(t, ModeMulti, selectMode(ModeAuto, DefaultComplexityThreshold, DefaultComplexityThreshold))
}
