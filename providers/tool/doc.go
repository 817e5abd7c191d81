// Package tool defines the execution contract shared by every capability the
// orchestrator can call, and the registry that dispatches invocations by name.
//
// A [Tool] exposes a [Spec] (name, description, parameter schema) and an
// Execute operation that always returns a [Result]. Failures never cross the
// boundary as Go errors or panics: they are folded into a Result whose status
// is [StatusError].
//
// Tools are usually built with [NewTool], which derives the parameter schema
// from a typed input struct, or with [NewFunc] for a bare map-based handler.
// The [Registry] keeps tools in registration order, rejects duplicate names,
// bounds each dispatch with a timeout and records spans and metrics through
// the observability provider.
package tool
