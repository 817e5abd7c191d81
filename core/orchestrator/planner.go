package orchestrator

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/leofalp/taskrouter/core/parse"
	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// Planner chooses at most one invocation for a (sub)task from the tools in
// catalog. A nil invocation with a nil error means no tool fits.
type Planner interface {
	Plan(ctx context.Context, task string, catalog iter.Seq[tool.Spec]) (*tool.Invocation, error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, task string, catalog iter.Seq[tool.Spec]) (*tool.Invocation, error)

func (f PlannerFunc) Plan(ctx context.Context, task string, catalog iter.Seq[tool.Spec]) (*tool.Invocation, error) {
	return f(ctx, task, catalog)
}

// Tool names the keyword planner routes to.
const (
	CalculatorTool = "calculator"
	SearchTool     = "search"
	WebFetchTool   = "web_fetch"
	FallbackTool   = "dummy_action"
)

var (
	urlPattern = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']+|\bwww\.[^\s<>"']+`)

	arithmeticPattern = regexp.MustCompile(`\d\s*(\*\*|[-+*/^%])\s*[-(.\d]|\(\s*-?\d`)
	mathPhrases       = regexp.MustCompile(`(?i)\b(square root|cube root|to the power|raised to|\d+(\.\d+)?\s*% of|percent of|sine|cosine|tangent|logarithm|natural log|log of|factorial|absolute value|calculate|compute|evaluate)\b`)
	mathLeadIn        = regexp.MustCompile(`(?i)^\s*(please\s+)?(calculate|compute|evaluate|solve|find|what\s+is|what's|whats|how\s+much\s+is)\s+`)

	searchPhrases = regexp.MustCompile(`(?i)\b(search|find|look\s+up|lookup)\b`)
	searchLeadIn  = regexp.MustCompile(`(?i)^\s*(please\s+)?(search(\s+the\s+web)?(\s+for)?|find(\s+out)?(\s+information)?(\s+about|\s+on)?|look\s+up|lookup)\s+`)

	trailingPunctuation = regexp.MustCompile(`[\s?!.]+$`)
)

// KeywordPlanner routes by surface features of the text: URLs go to
// web_fetch, arithmetic and math phrases to calculator, search verbs to
// search, and anything else to dummy_action. A route is only taken when its
// tool is in the catalog.
type KeywordPlanner struct{}

func (KeywordPlanner) Plan(_ context.Context, task string, catalog iter.Seq[tool.Spec]) (*tool.Invocation, error) {
	available := map[string]bool{}
	for spec := range catalog {
		available[strings.ToLower(spec.Name)] = true
	}

	if url := urlPattern.FindString(task); url != "" && available[WebFetchTool] {
		return &tool.Invocation{ToolName: WebFetchTool, Arguments: map[string]any{"url": url}}, nil
	}
	if looksLikeMath(task) && available[CalculatorTool] {
		return &tool.Invocation{ToolName: CalculatorTool, Arguments: map[string]any{"expression": extractExpression(task)}}, nil
	}
	if searchPhrases.MatchString(task) && available[SearchTool] {
		return &tool.Invocation{ToolName: SearchTool, Arguments: map[string]any{"query": extractQuery(task)}}, nil
	}
	if available[FallbackTool] {
		return &tool.Invocation{ToolName: FallbackTool, Arguments: map[string]any{"message": strings.TrimSpace(task)}}, nil
	}
	return nil, nil
}

func looksLikeMath(task string) bool {
	return arithmeticPattern.MatchString(task) || mathPhrases.MatchString(task)
}

// extractExpression drops lead-ins like "calculate" or "what is" and any
// trailing punctuation.
func extractExpression(task string) string {
	expression := mathLeadIn.ReplaceAllString(task, "")
	expression = trailingPunctuation.ReplaceAllString(expression, "")
	if expression = strings.TrimSpace(expression); expression == "" {
		return strings.TrimSpace(task)
	}
	return expression
}

func extractQuery(task string) string {
	query := searchLeadIn.ReplaceAllString(task, "")
	query = trailingPunctuation.ReplaceAllString(query, "")
	if query = strings.TrimSpace(query); query == "" {
		return strings.TrimSpace(task)
	}
	return query
}

const plannerSystemPrompt = `You route user tasks to tools. Call exactly one of the provided tools with arguments that satisfy its parameters. If none of them applies, answer with plain text and call no tool.`

// LLMPlanner asks an ai.Provider to pick a tool from the catalog. When the
// request fails, names a tool outside the catalog or carries arguments that
// cannot be parsed, Fallback plans instead if set.
type LLMPlanner struct {
	Provider ai.Provider
	Model    string
	Fallback Planner
}

// NewLLMPlanner returns an LLMPlanner that falls back to KeywordPlanner.
func NewLLMPlanner(provider ai.Provider, model string) *LLMPlanner {
	return &LLMPlanner{Provider: provider, Model: model, Fallback: KeywordPlanner{}}
}

func (p *LLMPlanner) Plan(ctx context.Context, task string, catalog iter.Seq[tool.Spec]) (*tool.Invocation, error) {
	var descriptions []ai.ToolDescription
	names := map[string]string{}
	for spec := range catalog {
		descriptions = append(descriptions, ai.ToolDescription{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		})
		names[strings.ToLower(spec.Name)] = spec.Name
	}

	resp, err := p.Provider.SendMessage(ctx, ai.ChatRequest{
		Model:            p.Model,
		SystemPrompt:     plannerSystemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: task}},
		Tools:            descriptions,
		ToolChoiceForced: "auto",
	})
	if err != nil {
		return p.fallback(ctx, task, catalog, fmt.Errorf("planner request failed: %w", err))
	}
	if len(resp.ToolCalls) == 0 {
		return nil, nil
	}

	call := resp.ToolCalls[0]
	name, ok := names[strings.ToLower(strings.TrimSpace(call.Function.Name))]
	if !ok {
		return p.fallback(ctx, task, catalog, fmt.Errorf("planner chose %w: %s", tool.ErrUnknownTool, call.Function.Name))
	}
	args, err := parse.Arguments(call.Function.Arguments)
	if err != nil {
		return p.fallback(ctx, task, catalog, fmt.Errorf("planner returned unusable arguments for %s: %w", name, err))
	}
	return &tool.Invocation{ToolName: name, Arguments: args}, nil
}

// fallback plans with p.Fallback after cause, or returns cause when there
// is no fallback.
func (p *LLMPlanner) fallback(ctx context.Context, task string, catalog iter.Seq[tool.Spec], cause error) (*tool.Invocation, error) {
	if p.Fallback == nil {
		return nil, cause
	}
	observability.ProviderFromContext(ctx).Warn(ctx, "LLM planner failed, using fallback planner",
		observability.Error(cause))
	return p.Fallback.Plan(ctx, task, catalog)
}
