package calculator

import (
	"errors"
	"fmt"
)

// Chain tries each evaluator in order. It moves to the next one only when
// the current evaluator reports ErrNotStrict; any other error is final.
type Chain []Evaluator

var _ ExactEvaluator = Chain(nil)

// DefaultChain is the strict evaluator backed by the sandbox fallback.
func DefaultChain() Chain {
	return Chain{StrictEvaluator{}, NewSandboxEvaluator()}
}

func (c Chain) Name() string { return "chain" }

func (c Chain) Evaluate(expression string) (float64, error) {
	value, _, err := c.EvaluateWith(expression)
	return value.Float, err
}

func (c Chain) EvaluateExact(expression string) (Number, error) {
	value, _, err := c.EvaluateWith(expression)
	return value, err
}

// EvaluateWith is EvaluateExact that also returns the name of the evaluator
// that produced the value.
func (c Chain) EvaluateWith(expression string) (Number, string, error) {
	if len(c) == 0 {
		return Number{}, "", errors.New("no evaluator configured")
	}
	var lastErr error
	for _, evaluator := range c {
		value, err := evaluateNumber(evaluator, expression)
		if err == nil {
			return value, evaluator.Name(), nil
		}
		if !errors.Is(err, ErrNotStrict) {
			return Number{}, evaluator.Name(), err
		}
		lastErr = err
	}
	return Number{}, "", fmt.Errorf("no evaluator accepted the expression: %w", lastErr)
}
