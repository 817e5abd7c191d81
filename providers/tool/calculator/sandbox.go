package calculator

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/big"
	"regexp"

	"github.com/Knetic/govaluate"
)

// SandboxEvaluator evaluates expressions that use function-call syntax. Only
// the functions and constants in its environment are reachable; every token
// is vetted before evaluation, so there is no ambient scope to escape into.
//
// Names are written with a "math." prefix as in "math.sqrt(2)"; the prefix
// is canonicalised to "math_" before lexing. Every divisor is routed through
// a guard so that a zero divisor fails with ErrDivisionByZero instead of
// producing an infinity.
type SandboxEvaluator struct {
	functions map[string]govaluate.ExpressionFunction
	constants map[string]any
}

var _ ExactEvaluator = (*SandboxEvaluator)(nil)

var mathPrefix = regexp.MustCompile(`\bmath\.`)

// maxFactorial bounds math.factorial so a single call stays cheap.
const maxFactorial = 1000

// NewSandboxEvaluator returns a sandbox exposing math.sqrt, math.pow,
// math.sin, math.cos, math.tan, math.radians, math.degrees, math.log,
// math.log10, math.exp, math.factorial, math.floor, math.ceil, abs, round,
// pow, max, min and the constants math.pi and math.e.
func NewSandboxEvaluator() *SandboxEvaluator {
	return &SandboxEvaluator{
		functions: map[string]govaluate.ExpressionFunction{
			"math_sqrt": unary(func(x float64) (float64, error) {
				if x < 0 {
					return 0, errMathDomain
				}
				return math.Sqrt(x), nil
			}),
			"math_pow":     binary(math.Pow),
			"math_sin":     unary(plain(math.Sin)),
			"math_cos":     unary(plain(math.Cos)),
			"math_tan":     unary(plain(math.Tan)),
			"math_radians": unary(plain(func(x float64) float64 { return x * math.Pi / 180 })),
			"math_degrees": unary(plain(func(x float64) float64 { return x * 180 / math.Pi })),
			"math_log":     logarithm,
			"math_log10": unary(func(x float64) (float64, error) {
				if x <= 0 {
					return 0, errMathDomain
				}
				return math.Log10(x), nil
			}),
			"math_exp":   unary(plain(math.Exp)),
			"math_floor": unary(plain(math.Floor)),
			"math_ceil":  unary(plain(math.Ceil)),
			"abs":        unary(plain(math.Abs)),
			"round":      round,
			"pow":        binary(math.Pow),
			"max":        extreme(math.Max),
			"min":        extreme(math.Min),
		},
		constants: map[string]any{
			"math_pi": math.Pi,
			"math_e":  math.E,
		},
	}
}

func (s *SandboxEvaluator) Name() string { return "sandbox" }

// Evaluate is EvaluateExact reduced to a float64.
func (s *SandboxEvaluator) Evaluate(expression string) (float64, error) {
	value, err := s.EvaluateExact(expression)
	return value.Float, err
}

// EvaluateExact vets and evaluates expression within the sandbox
// environment. A factorial too large for a float64 to hold exactly is
// returned as an exact integer when it is the whole result, and fails with
// ErrInexact when it would feed another operation.
func (s *SandboxEvaluator) EvaluateExact(expression string) (Number, error) {
	state := &evaluation{}
	functions := maps.Clone(s.functions)
	functions["math_factorial"] = state.factorial

	canonical := mathPrefix.ReplaceAllString(expression, "math_")
	compiled, err := govaluate.NewEvaluableExpressionWithFunctions(canonical, functions)
	if err != nil {
		return Number{}, fmt.Errorf("invalid syntax: %w", err)
	}
	if err := s.vet(compiled.Tokens()); err != nil {
		return Number{}, err
	}
	guarded, err := govaluate.NewEvaluableExpressionFromTokens(guardDivisors(compiled.Tokens(), state.divisor))
	if err != nil {
		return Number{}, fmt.Errorf("invalid syntax: %w", err)
	}

	parameters := make(map[string]any, len(s.constants))
	for name, value := range s.constants {
		parameters[name] = value
	}
	result, err := guarded.Evaluate(parameters)
	switch {
	case err == nil:
	case state.divisionByZero:
		return Number{}, ErrDivisionByZero
	case state.inexact:
		return Number{}, ErrInexact
	default:
		return Number{}, err
	}

	switch value := result.(type) {
	case float64:
		value, err := finite(value)
		return Number{Float: value}, err
	case *big.Int:
		approx, _ := new(big.Float).SetInt(value).Float64()
		return Number{Float: approx, Int: value}, nil
	default:
		return Number{}, fmt.Errorf("expression produced %T, not a number", result)
	}
}

// vet accepts numbers, allow-listed functions and constants, commas,
// parentheses, unary minus and the + - * / ** operators. A dotted name such
// as "os.system" lexes as a single variable and is rejected as unknown.
func (s *SandboxEvaluator) vet(tokens []govaluate.ExpressionToken) error {
	for _, tok := range tokens {
		switch tok.Kind {
		case govaluate.NUMERIC, govaluate.FUNCTION, govaluate.SEPARATOR,
			govaluate.CLAUSE, govaluate.CLAUSE_CLOSE:
		case govaluate.VARIABLE:
			name, _ := tok.Value.(string)
			if _, ok := s.constants[name]; !ok {
				return fmt.Errorf("%w: %s", ErrUnknownIdentifier, displayName(name))
			}
		case govaluate.PREFIX:
			if tok.Value != "-" {
				return fmt.Errorf("%w: %v", ErrUnsupportedOperator, tok.Value)
			}
		case govaluate.MODIFIER:
			switch tok.Value {
			case "+", "-", "*", "/", "**":
			default:
				return fmt.Errorf("%w: %v", ErrUnsupportedOperator, tok.Value)
			}
		case govaluate.COMPARATOR, govaluate.LOGICALOP, govaluate.TERNARY:
			return fmt.Errorf("%w: %v", ErrUnsupportedOperator, tok.Value)
		default:
			return fmt.Errorf("unsupported value %v", tok.Value)
		}
	}
	return nil
}

// evaluation records conditions raised inside functions during one
// Evaluate call.
type evaluation struct {
	divisionByZero bool
	inexact        bool
}

// divisor passes its argument through unless it is zero.
func (e *evaluation) divisor(args ...any) (any, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(xs))
	}
	if xs[0] == 0 {
		e.divisionByZero = true
		return nil, ErrDivisionByZero
	}
	return xs[0], nil
}

// factorial accepts non-negative integral values up to maxFactorial. The
// product is computed exactly and returned as a float64 when that is
// lossless, otherwise as a *big.Int.
func (e *evaluation) factorial(args ...any) (any, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(xs))
	}
	x := xs[0]
	if x < 0 || x != math.Trunc(x) {
		return nil, errors.New("factorial() only accepts non-negative integral values")
	}
	if x > maxFactorial {
		return nil, errOverflow
	}
	product := new(big.Int).MulRange(1, int64(x))
	if value, accuracy := new(big.Float).SetInt(product).Float64(); accuracy == big.Exact {
		return value, nil
	}
	e.inexact = true
	return product, nil
}

// guardDivisors wraps the right operand of every "/" in a call to guard.
// The operand is a run of prefix operators followed by a number, variable,
// function call or parenthesised group, extended across any "**" since
// exponentiation binds tighter than division.
func guardDivisors(tokens []govaluate.ExpressionToken, guard govaluate.ExpressionFunction) []govaluate.ExpressionToken {
	out := make([]govaluate.ExpressionToken, 0, len(tokens))
	for i := 0; i < len(tokens); {
		tok := tokens[i]
		out = append(out, tok)
		i++
		if tok.Kind != govaluate.MODIFIER || tok.Value != "/" {
			continue
		}
		end := operandEnd(tokens, i)
		out = append(out,
			govaluate.ExpressionToken{Kind: govaluate.FUNCTION, Value: guard},
			govaluate.ExpressionToken{Kind: govaluate.CLAUSE, Value: "("},
		)
		out = append(out, guardDivisors(tokens[i:end], guard)...)
		out = append(out, govaluate.ExpressionToken{Kind: govaluate.CLAUSE_CLOSE, Value: ")"})
		i = end
	}
	return out
}

// operandEnd returns the index just past the operand that starts at i.
func operandEnd(tokens []govaluate.ExpressionToken, i int) int {
	for i < len(tokens) && tokens[i].Kind == govaluate.PREFIX {
		i++
	}
	if i >= len(tokens) {
		return i
	}
	switch tokens[i].Kind {
	case govaluate.FUNCTION:
		i++
		if i < len(tokens) && tokens[i].Kind == govaluate.CLAUSE {
			i = closingClause(tokens, i) + 1
		}
	case govaluate.CLAUSE:
		i = closingClause(tokens, i) + 1
	default:
		i++
	}
	if i < len(tokens) && tokens[i].Kind == govaluate.MODIFIER && tokens[i].Value == "**" {
		return operandEnd(tokens, i+1)
	}
	return min(i, len(tokens))
}

// closingClause returns the index of the CLAUSE_CLOSE matching the CLAUSE at
// open, or the last index when the clause is unbalanced.
func closingClause(tokens []govaluate.ExpressionToken, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case govaluate.CLAUSE:
			depth++
		case govaluate.CLAUSE_CLOSE:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens) - 1
}

func displayName(name string) string {
	if len(name) > 5 && name[:5] == "math_" {
		return "math." + name[5:]
	}
	return name
}

var (
	errMathDomain = errors.New("math domain error")
	errOverflow   = errors.New("math range error")
)

func plain(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return fn(x), nil }
}

func numbers(args []any) ([]float64, error) {
	out := make([]float64, len(args))
	for i, arg := range args {
		v, ok := arg.(float64)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a number, got %T", i+1, arg)
		}
		out[i] = v
	}
	return out, nil
}

func unary(fn func(float64) (float64, error)) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(xs))
		}
		return fn(xs[0])
	}
}

func binary(fn func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) != 2 {
			return nil, fmt.Errorf("expected 2 arguments, got %d", len(xs))
		}
		return fn(xs[0], xs[1]), nil
	}
}

func extreme(pick func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		xs, err := numbers(args)
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, errors.New("expected at least 1 argument")
		}
		best := xs[0]
		for _, x := range xs[1:] {
			best = pick(best, x)
		}
		return best, nil
	}
}

// logarithm is the natural log, or the log in the given base when a second
// argument is supplied.
func logarithm(args ...any) (any, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 && len(xs) != 2 {
		return nil, fmt.Errorf("expected 1 or 2 arguments, got %d", len(xs))
	}
	if xs[0] <= 0 {
		return nil, errMathDomain
	}
	if len(xs) == 1 {
		return math.Log(xs[0]), nil
	}
	if xs[1] <= 0 || xs[1] == 1 {
		return nil, errMathDomain
	}
	return math.Log(xs[0]) / math.Log(xs[1]), nil
}

// round rounds half to even, optionally to a number of decimal places.
func round(args ...any) (any, error) {
	xs, err := numbers(args)
	if err != nil {
		return nil, err
	}
	switch len(xs) {
	case 1:
		return math.RoundToEven(xs[0]), nil
	case 2:
		scale := math.Pow(10, math.Trunc(xs[1]))
		return math.RoundToEven(xs[0]*scale) / scale, nil
	default:
		return nil, fmt.Errorf("expected 1 or 2 arguments, got %d", len(xs))
	}
}
