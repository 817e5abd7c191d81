// Package ai defines the provider-agnostic chat types and the [Provider]
// interface used by the orchestrator's LLM planner and completer. Each
// provider implementation maps [ChatRequest] and [ChatResponse] to its own
// wire format, keeping the rest of the codebase decoupled from any single
// vendor SDK.
package ai
