package orchestrator

import (
	"context"
	"regexp"
	"strings"
)

// Decomposer splits a task into ordered subtasks for the multi path.
type Decomposer interface {
	Decompose(ctx context.Context, description string) []string
}

// DecomposerFunc adapts a function to Decomposer.
type DecomposerFunc func(ctx context.Context, description string) []string

func (f DecomposerFunc) Decompose(ctx context.Context, description string) []string {
	return f(ctx, description)
}

var (
	sentenceBoundary = regexp.MustCompile(`[.!?]+(\s+|$)|;|\n`)
	clauseBoundary   = regexp.MustCompile(`(?i)\s+(?:and\s+then|then|and)\s+`)
)

// ClauseDecomposer splits on sentence punctuation and semicolons, then on
// "and then", "then" and "and". Punctuation inside numbers such as "3.5" is
// not a boundary. A description made only of separators yields no subtasks.
type ClauseDecomposer struct{}

func (ClauseDecomposer) Decompose(_ context.Context, description string) []string {
	var out []string
	for _, sentence := range sentenceBoundary.Split(description, -1) {
		for _, clause := range clauseBoundary.Split(sentence, -1) {
			if clause = strings.TrimSpace(clause); clause != "" {
				out = append(out, clause)
			}
		}
	}
	return out
}
