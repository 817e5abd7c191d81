package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- Tool Attributes ---

const (
	// AttrToolName is the name of the tool being executed
	AttrToolName = "tool.name"

	// AttrToolArguments is the serialized invocation arguments
	AttrToolArguments = "tool.arguments"

	// AttrToolStatus is the ToolResult status ("success" or "error")
	AttrToolStatus = "tool.status"

	// AttrToolDuration is the execution duration
	AttrToolDuration = "tool.duration"

	// AttrToolError is the error message if tool execution failed
	AttrToolError = "tool.error"
)

// --- Task Attributes ---

const (
	// AttrTaskID is the identifier assigned to a task at the orchestrator boundary
	AttrTaskID = "task.id"

	// AttrTaskMode is the requested mode ("single", "multi", "auto")
	AttrTaskMode = "task.mode"

	// AttrTaskModeUsed is the mode the orchestrator actually ran
	AttrTaskModeUsed = "task.mode_used"

	// AttrTaskComplexity is the complexity score of the description
	AttrTaskComplexity = "task.complexity"

	// AttrTaskSteps is the number of sub-invocations planned for a task
	AttrTaskSteps = "task.steps"

	// AttrTaskFailedSteps is the number of sub-invocations that failed
	AttrTaskFailedSteps = "task.failed_steps"
)

// --- Evaluator Attributes ---

const (
	// AttrExpression is the expression as received by the calculator
	AttrExpression = "calculator.expression"

	// AttrRewritten is the expression after natural-language rewriting
	AttrRewritten = "calculator.rewritten"

	// AttrEvaluator names the strategy that produced the value ("strict", "sandbox")
	AttrEvaluator = "calculator.evaluator"
)

// --- Memory Attributes ---

const (
	// AttrMemoryTotalRecords is the history size after an append
	AttrMemoryTotalRecords = "memory.total_records"
)

// --- LLM Attributes ---

const (
	// AttrLLMModel is the model a chat request was sent to
	AttrLLMModel = "llm.model"

	// AttrLLMFinishReason is the finish reason of the first choice
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensTotal is the total token usage reported by the API
	AttrLLMTokensTotal = "llm.tokens.total"

	// AttrLLMDuration is the wall time of one send, retries included
	AttrLLMDuration = "llm.duration"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanToolDispatch wraps a single registry dispatch
	SpanToolDispatch = "tool.dispatch"

	// SpanTaskExecute wraps one orchestrator task
	SpanTaskExecute = "task.execute"

	// SpanTaskPlan wraps a planner call
	SpanTaskPlan = "task.plan"

	// SpanLLMRequest wraps one chat completion call, retries included
	SpanLLMRequest = "llm.request"
)

// --- Event Names ---

const (
	// EventToolExecutionStart marks the start of tool execution
	EventToolExecutionStart = "tool.execution.start"

	// EventToolExecutionEnd marks the end of tool execution
	EventToolExecutionEnd = "tool.execution.end"

	// EventToolPanic marks a recovered panic inside a tool
	EventToolPanic = "tool.panic"

	// EventTaskStepDone marks a completed sub-invocation
	EventTaskStepDone = "task.step.done"

	// EventMemoryAppend marks a record appended to history
	EventMemoryAppend = "memory.append"

	// EventMemoryClear marks the history being cleared
	EventMemoryClear = "memory.clear"
)

// --- Metric Names ---

const (
	// MetricToolDispatchTotal counts dispatches by tool and status
	MetricToolDispatchTotal = "tool_dispatch_total"

	// MetricToolDispatchDuration records dispatch latency in seconds
	MetricToolDispatchDuration = "tool_dispatch_duration_seconds"

	// MetricTaskTotal counts tasks by mode used
	MetricTaskTotal = "task_total"

	// MetricTaskComplexity records complexity scores
	MetricTaskComplexity = "task_complexity_score"
)
