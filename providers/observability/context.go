package observability

import "context"

type contextKey int

const (
	spanContextKey contextKey = iota
	providerContextKey
)

// SpanFromContext extracts a Span from the context.
// Returns nil if no span is present.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey).(Span)
	return span
}

// ContextWithSpan returns a new context with the given span attached.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanContextKey, span)
}

// ProviderFromContext returns the Provider stored in ctx, or [Nop] when none is set.
func ProviderFromContext(ctx context.Context) Provider {
	if ctx != nil {
		if p, ok := ctx.Value(providerContextKey).(Provider); ok && p != nil {
			return p
		}
	}
	return Nop()
}

// ContextWithProvider returns a new context carrying the given Provider.
func ContextWithProvider(ctx context.Context, provider Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, providerContextKey, provider)
}
