// Package observability defines the tracing, metrics and logging interfaces
// used by the dispatch core and the orchestrator.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into one injectable
// dependency. Backends live in sub-packages: slogobs routes everything
// through log/slog, promobs records metrics in Prometheus. [Combine] stitches
// independent backends together and [Nop] discards everything.
//
// semconv.go holds the attribute keys, span names and metric names shared by
// all components.
package observability
