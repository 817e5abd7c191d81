package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/leofalp/taskrouter/providers/observability"
)

// DefaultTimeout bounds a single dispatch when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// Registry maps tool names to tools in registration order and mediates every
// invocation. Names are matched case-insensitively. It is safe for
// concurrent use; lookups take a read lock.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string

	timeout  time.Duration
	observer observability.Provider
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTimeout sets the per-dispatch timeout. Non-positive values disable it.
func WithTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = timeout
	}
}

// WithObserver sets the observability provider used for dispatch spans and
// metrics. Without it the provider stored in the dispatch context is used.
func WithObserver(provider observability.Provider) RegistryOption {
	return func(r *Registry) {
		r.observer = provider
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   make(map[string]Tool),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds t to the registry. It fails with ErrAlreadyRegistered when a
// tool with the same name exists; use Replace to overwrite on purpose.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidArguments)
	}
	name := t.Spec().Name
	k := key(name)
	if k == "" {
		return fmt.Errorf("%w: tool name is empty", ErrInvalidArguments)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[k]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.tools[k] = t
	r.order = append(r.order, k)
	return nil
}

// MustRegister is like Register but panics on error. Intended for wiring at startup.
func (r *Registry) MustRegister(tools ...Tool) {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

// Replace registers t, overwriting any tool with the same name. An
// overwritten tool keeps its original position in the listing order.
func (r *Registry) Replace(t Tool) {
	if t == nil {
		return
	}
	k := key(t.Spec().Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[k]; !exists {
		r.order = append(r.order, k)
	}
	r.tools[k] = t
}

// Unregister removes a tool by name. Returns true if the tool was found and removed.
func (r *Registry) Unregister(name string) bool {
	k := key(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[k]; !exists {
		return false
	}
	delete(r.tools, k)
	for i, n := range r.order {
		if n == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[key(name)]
	return t, ok
}

// Has checks if a tool with the given name exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// List yields the specs of all registered tools in registration order.
// Each iteration takes a fresh snapshot, so the sequence can be ranged over
// repeatedly and is unaffected by registrations made while ranging.
func (r *Registry) List() iter.Seq[Spec] {
	return func(yield func(Spec) bool) {
		r.mu.RLock()
		snapshot := make([]Tool, 0, len(r.order))
		for _, k := range r.order {
			snapshot = append(snapshot, r.tools[k])
		}
		r.mu.RUnlock()

		for _, t := range snapshot {
			if !yield(t.Spec()) {
				return
			}
		}
	}
}

// Dispatch resolves inv.ToolName and executes the tool with inv.Arguments.
//
// An unknown name returns a failure "unknown tool: <name>" without invoking
// anything. Otherwise the tool's Result is passed through unchanged, except
// that a panic or an elapsed timeout is converted into an ErrToolInternal
// failure.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) Result {
	t, ok := r.Get(inv.ToolName)
	if !ok {
		return Failure(fmt.Errorf("%w: %s", ErrUnknownTool, inv.ToolName))
	}

	observer := r.observer
	if observer == nil {
		observer = observability.ProviderFromContext(ctx)
	}
	name := t.Spec().Name

	ctx, span := observer.StartSpan(ctx, observability.SpanToolDispatch,
		observability.String(observability.AttrToolName, name),
	)
	defer span.End()
	ctx = observability.ContextWithProvider(ctx, observer)
	if args, err := json.Marshal(inv.Arguments); err == nil {
		span.SetAttributes(observability.String(observability.AttrToolArguments,
			observability.TruncateString(string(args), observability.DefaultMaxStringLength)))
	}

	start := time.Now()
	result := r.execute(ctx, t, inv.Arguments)
	duration := time.Since(start)

	attrs := []observability.Attribute{
		observability.String(observability.AttrToolName, name),
		observability.String(observability.AttrToolStatus, string(result.Status)),
	}
	observer.Counter(observability.MetricToolDispatchTotal).Add(ctx, 1, attrs...)
	observer.Histogram(observability.MetricToolDispatchDuration).Record(ctx, duration.Seconds(), attrs...)

	span.SetAttributes(
		observability.String(observability.AttrToolStatus, string(result.Status)),
		observability.Duration(observability.AttrToolDuration, duration),
	)
	if result.OK() {
		span.SetStatus(observability.StatusOK, "")
		observer.Debug(ctx, "Tool dispatched", attrs...)
	} else {
		span.SetAttributes(observability.String(observability.AttrToolError, result.Error))
		span.SetStatus(observability.StatusError, result.Error)
		observer.Warn(ctx, "Tool returned an error", append(attrs, observability.String(observability.AttrToolError, result.Error))...)
	}
	return result
}

// execute runs the tool on its own goroutine so that the timeout bounds
// tools that ignore context cancellation.
func (r *Registry) execute(ctx context.Context, t Tool, args map[string]any) Result {
	if args == nil {
		args = map[string]any{}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan Result, 1)
	go func() {
		done <- protect(ctx, t.Spec().Name, func() Result {
			return t.Execute(ctx, args)
		})
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		if span := observability.SpanFromContext(ctx); span != nil {
			span.RecordError(ctx.Err())
		}
		return Failure(fmt.Errorf("%w: %s did not finish: %w", ErrToolInternal, t.Spec().Name, ctx.Err()))
	}
}
