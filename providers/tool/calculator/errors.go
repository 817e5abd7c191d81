package calculator

import "errors"

var (
	// ErrUnsupportedOperator is returned for operators outside the allow-list.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrDivisionByZero is returned when a divisor evaluates to zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNotStrict reports syntax the strict grammar cannot express. It is the
	// only error on which a Chain moves to its next evaluator.
	ErrNotStrict = errors.New("expression is outside the strict grammar")
	// ErrUnknownIdentifier is returned by the sandbox for names outside its environment.
	ErrUnknownIdentifier = errors.New("unknown identifier")
	// ErrNotFinite is returned when a result overflows or is not a real number.
	ErrNotFinite = errors.New("result is not a finite number")
	// ErrInexact is returned when an exact integer too large for a float64
	// would have to be combined with other values.
	ErrInexact = errors.New("result is too large to compute exactly")
	// ErrEmptyExpression is returned for blank input.
	ErrEmptyExpression = errors.New("empty expression")
)
