package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Evaluator computes the numeric value of an arithmetic expression.
type Evaluator interface {
	Name() string
	Evaluate(expression string) (float64, error)
}

// StrictEvaluator evaluates the closed grammar
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = "-" unary | power
//	power  = atom [ "**" unary ]
//	atom   = number | "(" expr ")"
//
// so "**" is right-associative and binds tighter than unary minus. Any
// other operator fails with ErrUnsupportedOperator; identifiers, calls and
// malformed input fail with ErrNotStrict.
type StrictEvaluator struct{}

var _ Evaluator = StrictEvaluator{}

func (StrictEvaluator) Name() string { return "strict" }

func (StrictEvaluator) Evaluate(expression string) (float64, error) {
	tokens, err := lex(expression)
	if err != nil {
		return 0, err
	}
	p := &parser{tokens: tokens}
	value, err := p.expr()
	if err != nil {
		return 0, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrNotStrict, tok.text, tok.pos)
	}
	return finite(value)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokOperator
	tokLParen
	tokRParen
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

// unsupportedOperators lists operators that are valid arithmetic syntax but
// outside the allow-list, longest first.
var unsupportedOperators = []string{
	"//", "<<", ">>", "<=", ">=", "==", "!=",
	"%", "<", ">", "&", "|", "^", "~", "@", "!",
}

func lex(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
				j := i + 1
				if j < len(input) && (input[j] == '+' || input[j] == '-') {
					j++
				}
				if j < len(input) && isDigit(input[j]) {
					for j < len(input) && isDigit(input[j]) {
						j++
					}
					i = j
				}
			}
			text := input[start:i]
			value, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q", ErrNotStrict, text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, value: value, pos: start})
		case strings.HasPrefix(input[i:], "**"):
			tokens = append(tokens, token{kind: tokOperator, text: "**", pos: i})
			i += 2
		case strings.HasPrefix(input[i:], "//"):
			return nil, fmt.Errorf("%w: //", ErrUnsupportedOperator)
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOperator, text: string(c), pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			for _, op := range unsupportedOperators {
				if strings.HasPrefix(input[i:], op) {
					return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
				}
			}
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrNotStrict, c, i)
		}
	}
	return append(tokens, token{kind: tokEOF, text: "end of expression", pos: len(input)}), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isOperator(ops ...string) bool {
	tok := p.peek()
	if tok.kind != tokOperator {
		return false
	}
	for _, op := range ops {
		if tok.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.isOperator("+", "-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for p.isOperator("*", "/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
			continue
		}
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		left /= right
	}
	return left, nil
}

func (p *parser) unary() (float64, error) {
	if p.isOperator("-") {
		p.next()
		operand, err := p.unary()
		if err != nil {
			return 0, err
		}
		return -operand, nil
	}
	if p.isOperator("+") {
		return 0, fmt.Errorf("%w: unary +", ErrUnsupportedOperator)
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.atom()
	if err != nil {
		return 0, err
	}
	if !p.isOperator("**") {
		return base, nil
	}
	p.next()
	exponent, err := p.unary()
	if err != nil {
		return 0, err
	}
	if base == 0 && exponent < 0 {
		return 0, fmt.Errorf("%w: zero raised to a negative power", ErrDivisionByZero)
	}
	return math.Pow(base, exponent), nil
}

func (p *parser) atom() (float64, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return tok.value, nil
	case tokLParen:
		value, err := p.expr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, fmt.Errorf("%w: expected ) but found %q", ErrNotStrict, closing.text)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("%w: unexpected %q at offset %d", ErrNotStrict, tok.text, tok.pos)
	}
}

// finite rejects infinities and NaN.
func finite(value float64) (float64, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrNotFinite
	}
	return value, nil
}
