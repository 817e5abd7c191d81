package calculator

import "math/big"

// Number is an evaluation result. Int is set for integers a float64 cannot
// hold exactly, such as large factorials; Float is then the nearest float.
type Number struct {
	Float float64
	Int   *big.Int
}

// String renders n the way the calculator reports it.
func (n Number) String() string {
	if n.Int != nil {
		return n.Int.String()
	}
	return Format(n.Float)
}

// ExactEvaluator is an Evaluator that can also return exact integers.
type ExactEvaluator interface {
	Evaluator
	EvaluateExact(expression string) (Number, error)
}

func evaluateNumber(evaluator Evaluator, expression string) (Number, error) {
	if exact, ok := evaluator.(ExactEvaluator); ok {
		return exact.EvaluateExact(expression)
	}
	value, err := evaluator.Evaluate(expression)
	return Number{Float: value}, err
}
