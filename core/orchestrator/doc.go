// Package orchestrator turns free-text task descriptions into tool
// invocations and assembles their results into an [ExecutionReport].
//
// A task runs in one of two paths. The single path plans at most one
// invocation; the multi path decomposes the task into ordered subtasks and
// dispatches each through the [tool.Registry], recording failures without
// aborting the remaining steps. The auto mode picks between them using
// [ComplexityScore].
//
// Planning is pluggable through [Planner]: [KeywordPlanner] is deterministic
// and needs no network, [LLMPlanner] asks an [ai.Provider] to choose a tool
// from the registry catalog.
//
// Example:
//
//	registry := tool.NewRegistry()
//	registry.MustRegister(calculator.New(), echo.New())
//	orch := orchestrator.New(registry)
//	report, err := orch.Execute(ctx, "What is 50% of 200?", orchestrator.ModeAuto)
//	// report.Answer == "100"
package orchestrator
