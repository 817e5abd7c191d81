package calculator

import (
	"context"
	"fmt"
	"strings"

	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// Name is the registry name of the calculator tool.
const Name = "calculator"

// Input holds the expression to evaluate.
type Input struct {
	Expression string `json:"expression" jsonschema:"description=The mathematical expression to evaluate,required"`
}

// Output carries the trimmed input expression and the formatted result.
type Output struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// Calculator runs the rewrite, evaluate and format pipeline.
type Calculator struct {
	evaluator Evaluator
}

// NewCalculator returns a Calculator using evaluator, or DefaultChain when nil.
func NewCalculator(evaluator Evaluator) *Calculator {
	if evaluator == nil {
		evaluator = DefaultChain()
	}
	return &Calculator{evaluator: evaluator}
}

// New returns the calculator as a registrable tool backed by DefaultChain.
// Callers that send the phrase under "query" instead of "expression" are
// accepted as well.
func New() *tool.FuncTool[Input, Output] {
	return NewCalculator(nil).Tool()
}

// Tool wraps c as a tool.Tool named "calculator".
func (c *Calculator) Tool() *tool.FuncTool[Input, Output] {
	return tool.NewTool(Name, c.Calc,
		tool.WithDescription("Perform basic arithmetic calculations. Accepts arithmetic expressions and phrases like 'the square root of 16' or '15% of 80'."),
		tool.WithAlias("expression", "query"),
	)
}

// Calc evaluates in.Expression. Every failure is returned as an error whose
// message starts with "Calculation error: ".
//
// Example:
//
//	out, err := calculator.NewCalculator(nil).Calc(ctx, calculator.Input{Expression: "50% of 200"})
//	// out.Result == "100"
func (c *Calculator) Calc(ctx context.Context, in Input) (Output, error) {
	observer := observability.ProviderFromContext(ctx)
	expression := strings.TrimSpace(in.Expression)
	observer.Debug(ctx, "Calculator received expression",
		observability.String(observability.AttrExpression, expression))

	if expression == "" {
		return Output{}, calcError(ErrEmptyExpression)
	}

	rewritten, rule := Rewrite(expression)
	if rule != "" {
		observer.Debug(ctx, "Rewrote natural language expression",
			observability.String(observability.AttrRewritten, rewritten),
			observability.String("calculator.rule", rule))
	}

	var (
		value Number
		used  string
		err   error
	)
	if chain, ok := c.evaluator.(Chain); ok {
		value, used, err = chain.EvaluateWith(rewritten)
	} else {
		used = c.evaluator.Name()
		value, err = evaluateNumber(c.evaluator, rewritten)
	}
	if err != nil {
		observer.Debug(ctx, "Calculation failed",
			observability.String(observability.AttrRewritten, rewritten),
			observability.Error(err))
		return Output{}, calcError(err)
	}

	result := value.String()
	observer.Debug(ctx, "Calculation finished",
		observability.String(observability.AttrEvaluator, used),
		observability.String("calculator.result", result))
	return Output{Expression: expression, Result: result}, nil
}

func calcError(err error) error {
	return fmt.Errorf("Calculation error: %w", err)
}
