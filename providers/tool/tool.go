package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/taskrouter/core/parse"
	"github.com/leofalp/taskrouter/internal/jsonschema"
	"github.com/leofalp/taskrouter/providers/observability"
)

// Spec is the immutable metadata a tool advertises to the registry and to
// upstream planners.
type Spec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Tool is the capability contract. Execute must not panic and reports every
// failure through the returned Result.
type Tool interface {
	Spec() Spec
	Execute(ctx context.Context, args map[string]any) Result
}

// Invocation names a tool and the arguments to pass to it.
type Invocation struct {
	ToolName  string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Handler is a map-in, map-out tool body used by NewFunc.
type Handler func(ctx context.Context, args map[string]any) (map[string]any, error)

type funcTool struct {
	spec    Spec
	handler Handler
}

// NewFunc builds a Tool from a bare handler and an explicit parameter schema.
// The handler receives arguments as given; it owns any fallback for missing
// parameters. A returned error becomes a Failure result.
//
// Example:
//
//	echo := tool.NewFunc("echo", "Repeats its input.",
//	    jsonschema.Object(map[string]*jsonschema.Schema{
//	        "text": jsonschema.Property("string", "Text to repeat"),
//	    }, "text"),
//	    func(ctx context.Context, args map[string]any) (map[string]any, error) {
//	        return map[string]any{"text": args["text"]}, nil
//	    })
func NewFunc(name, description string, parameters *jsonschema.Schema, handler Handler) Tool {
	return &funcTool{
		spec:    Spec{Name: name, Description: description, Parameters: parameters},
		handler: handler,
	}
}

func (f *funcTool) Spec() Spec { return f.spec }

func (f *funcTool) Execute(ctx context.Context, args map[string]any) Result {
	return protect(ctx, f.spec.Name, func() Result {
		if args == nil {
			args = map[string]any{}
		}
		payload, err := f.handler(ctx, args)
		if err != nil {
			return Failure(err)
		}
		return Success(payload)
	})
}

// FuncTool binds a name and description to a strongly-typed Go function. The
// parameter schema is derived from I, arguments are decoded into I and the
// output O is flattened into the result payload.
type FuncTool[I, O any] struct {
	spec     Spec
	aliases  map[string]string
	function func(ctx context.Context, input I) (O, error)
}

type funcToolOptions struct {
	Description string
	Aliases     map[string]string
}

// Option configures a tool created with NewTool.
type Option func(*funcToolOptions)

// WithDescription sets a human-readable description for the tool.
// Planners surface this description when choosing a tool.
func WithDescription(description string) Option {
	return func(o *funcToolOptions) {
		o.Description = description
	}
}

// WithAlias lets alias stand in for param when param is missing or empty.
// This is the fallback for a required parameter that callers sometimes send
// under another name.
func WithAlias(param, alias string) Option {
	return func(o *funcToolOptions) {
		if o.Aliases == nil {
			o.Aliases = map[string]string{}
		}
		o.Aliases[param] = alias
	}
}

// NewTool constructs a [FuncTool] with the given name and typed handler.
//
// Example:
//
//	calc := tool.NewTool("calculator", evaluate,
//	    tool.WithDescription("Perform basic arithmetic calculations"),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...Option) *FuncTool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}
	return &FuncTool[I, O]{
		spec: Spec{
			Name:        name,
			Description: toolOptions.Description,
			Parameters:  jsonschema.Generate[I](),
		},
		aliases:  toolOptions.Aliases,
		function: function,
	}
}

// Spec returns the tool metadata.
func (t *FuncTool[I, O]) Spec() Spec {
	return t.spec
}

// Execute validates and decodes args into I, runs the function and converts
// its output into a Result. Span events are emitted when ctx carries a span.
func (t *FuncTool[I, O]) Execute(ctx context.Context, args map[string]any) Result {
	return protect(ctx, t.spec.Name, func() Result {
		span := observability.SpanFromContext(ctx)
		if span != nil {
			span.AddEvent(observability.EventToolExecutionStart,
				observability.String(observability.AttrToolName, t.spec.Name),
			)
			defer span.AddEvent(observability.EventToolExecutionEnd)
		}

		args = t.applyAliases(args)
		if err := t.spec.Parameters.Validate(args); err != nil {
			return Failure(fmt.Errorf("%w: %w", ErrInvalidArguments, err))
		}
		input, err := parse.Decode[I](args)
		if err != nil {
			return Failure(fmt.Errorf("%w: %w", ErrInvalidArguments, err))
		}

		start := time.Now()
		output, err := t.function(ctx, input)
		if span != nil {
			span.SetAttributes(observability.Duration(observability.AttrToolDuration, time.Since(start)))
		}
		if err != nil {
			if span != nil {
				span.RecordError(err)
			}
			return Failure(err)
		}

		payload, err := toPayload(output)
		if err != nil {
			return Failure(fmt.Errorf("%w: %w", ErrToolInternal, err))
		}
		return Success(payload)
	})
}

func (t *FuncTool[I, O]) applyAliases(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for param, alias := range t.aliases {
		if v, ok := out[param]; ok && v != nil && v != "" {
			continue
		}
		if v, ok := out[alias]; ok {
			out[param] = v
		}
	}
	return out
}

// toPayload flattens a JSON object into a map. Any other JSON value is
// stored under the "result" key.
func toPayload(output any) (map[string]any, error) {
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err == nil && payload != nil {
		return payload, nil
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return map[string]any{"result": value}, nil
}

// protect runs fn and converts a panic into an ErrToolInternal failure.
func protect(ctx context.Context, name string, fn func() Result) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			if span := observability.SpanFromContext(ctx); span != nil {
				span.AddEvent(observability.EventToolPanic, observability.String(observability.AttrToolName, name))
			}
			result = Failure(fmt.Errorf("%w: %s panicked: %v", ErrToolInternal, name, r))
		}
	}()
	return fn()
}
