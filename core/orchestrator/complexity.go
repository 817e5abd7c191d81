package orchestrator

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultComplexityThreshold is the score at which auto mode picks multi.
	DefaultComplexityThreshold = 3.0

	// MaxComplexity caps ComplexityScore.
	MaxComplexity = 10.0

	lengthWeight = 0.1
	signalWeight = 1.0
)

var (
	wordPattern = regexp.MustCompile(`[a-z]+`)

	sequencers = map[string]bool{"and": true, "then": true, "also": true}

	multiStepStems = []string{"summar", "compar", "find", "search", "analy"}
)

// ComplexityScore rates how likely a description needs several steps. It is
// the rune length times 0.1 plus one point per signal, capped at
// MaxComplexity. Signals are sequencing words ("and", "then", "also"),
// semicolons, question marks beyond the first, and multi-step verbs
// (summarize, compare, find, search, analyze).
//
// With the signals held fixed the score never decreases as the description
// grows.
func ComplexityScore(description string) float64 {
	lower := strings.ToLower(description)
	score := float64(utf8.RuneCountInString(lower))*lengthWeight + float64(countSignals(lower))*signalWeight
	return math.Min(score, MaxComplexity)
}

func countSignals(lower string) int {
	signals := strings.Count(lower, ";")
	if q := strings.Count(lower, "?"); q > 1 {
		signals += q - 1
	}
	for _, word := range wordPattern.FindAllString(lower, -1) {
		if sequencers[word] {
			signals++
			continue
		}
		for _, stem := range multiStepStems {
			if strings.HasPrefix(word, stem) {
				signals++
				break
			}
		}
	}
	return signals
}

// selectMode resolves auto to single or multi using threshold.
func selectMode(mode Mode, score, threshold float64) Mode {
	if mode != ModeAuto {
		return mode
	}
	if score >= threshold {
		return ModeMulti
	}
	return ModeSingle
}
