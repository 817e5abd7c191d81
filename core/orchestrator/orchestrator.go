package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/taskrouter/internal/utils"
	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/memory"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// DefaultMaxSteps bounds the number of subtasks run in the multi path.
const DefaultMaxSteps = 10

const maxStepSummary = 500

// summaryKeys are the payload fields read, in order, to summarise a result.
var summaryKeys = []string{"result", "summary", "answer", "markdown", "message"}

// Orchestrator decides an execution path for a task and produces its report.
// It is safe for concurrent use when its planner, decomposer and history are.
type Orchestrator struct {
	registry   *tool.Registry
	planner    Planner
	decomposer Decomposer
	completer  ai.Provider
	model      string
	history    memory.Provider
	observer   observability.Provider

	threshold   float64
	defaultMode Mode
	maxSteps    int
	newID       func() string
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPlanner replaces the default KeywordPlanner.
func WithPlanner(planner Planner) Option {
	return func(o *Orchestrator) {
		o.planner = planner
	}
}

// WithDecomposer replaces the default ClauseDecomposer.
func WithDecomposer(decomposer Decomposer) Option {
	return func(o *Orchestrator) {
		o.decomposer = decomposer
	}
}

// WithCompleter sets the provider asked for a direct answer when no tool
// fits a (sub)task.
func WithCompleter(provider ai.Provider, model string) Option {
	return func(o *Orchestrator) {
		o.completer = provider
		o.model = model
	}
}

// WithHistory sets where finished reports are recorded.
func WithHistory(history memory.Provider) Option {
	return func(o *Orchestrator) {
		o.history = history
	}
}

// WithObserver sets the observability provider. Without it the provider in
// the call context is used.
func WithObserver(provider observability.Provider) Option {
	return func(o *Orchestrator) {
		o.observer = provider
	}
}

// WithComplexityThreshold sets the score at which auto mode picks multi.
func WithComplexityThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		o.threshold = threshold
	}
}

// WithDefaultMode sets the mode used when Execute receives an empty mode.
func WithDefaultMode(mode Mode) Option {
	return func(o *Orchestrator) {
		o.defaultMode = mode
	}
}

// WithMaxSteps bounds the multi path. Extra subtasks are dropped.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// New creates an Orchestrator dispatching through registry.
func New(registry *tool.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    registry,
		planner:     KeywordPlanner{},
		decomposer:  ClauseDecomposer{},
		threshold:   DefaultComplexityThreshold,
		defaultMode: ModeAuto,
		maxSteps:    DefaultMaxSteps,
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Registry returns the registry tasks are dispatched through.
func (o *Orchestrator) Registry() *tool.Registry {
	return o.registry
}

// ExecuteTask is the legacy entry point: the mode defaults to single.
func (o *Orchestrator) ExecuteTask(ctx context.Context, description string) (ExecutionReport, error) {
	return o.Execute(ctx, description, ModeSingle)
}

// Execute runs description in mode and returns its report.
//
// A blank description returns ErrEmptyTask without dispatching anything. A
// failing step never makes Execute fail; the only other error is the context
// error when cancellation cut the task short, in which case the partial
// report is returned alongside it.
func (o *Orchestrator) Execute(ctx context.Context, description string, mode Mode) (ExecutionReport, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return ExecutionReport{}, ErrEmptyTask
	}
	if mode == "" {
		mode = o.defaultMode
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return ExecutionReport{}, err
	}
	return o.Run(ctx, Task{ID: o.newID(), Description: description, Mode: mode})
}

// Run executes an already-built task. Task.ID is assigned when empty.
func (o *Orchestrator) Run(ctx context.Context, task Task) (ExecutionReport, error) {
	if strings.TrimSpace(task.Description) == "" {
		return ExecutionReport{}, ErrEmptyTask
	}
	if task.ID == "" {
		task.ID = o.newID()
	}

	observer := o.observer
	if observer == nil {
		observer = observability.ProviderFromContext(ctx)
	}
	ctx = observability.ContextWithProvider(ctx, observer)

	score := ComplexityScore(task.Description)
	modeUsed := selectMode(task.Mode, score, o.threshold)

	ctx, span := observer.StartSpan(ctx, observability.SpanTaskExecute,
		observability.String(observability.AttrTaskID, task.ID),
		observability.String(observability.AttrTaskMode, string(task.Mode)),
		observability.String(observability.AttrTaskModeUsed, string(modeUsed)),
		observability.Float64(observability.AttrTaskComplexity, score),
	)
	defer span.End()

	observer.Info(ctx, "Executing task",
		observability.String(observability.AttrTaskID, task.ID),
		observability.String(observability.AttrTaskModeUsed, string(modeUsed)),
		observability.Float64(observability.AttrTaskComplexity, score))

	report := ExecutionReport{
		TaskID:          task.ID,
		Description:     task.Description,
		ModeUsed:        modeUsed,
		ComplexityScore: score,
	}

	var runErr error
	if modeUsed == ModeMulti {
		runErr = o.runMulti(ctx, &report)
	} else {
		runErr = o.runSingle(ctx, &report)
	}

	failed := report.FailedSteps()
	span.SetAttributes(
		observability.Int(observability.AttrTaskSteps, len(report.Steps)),
		observability.Int(observability.AttrTaskFailedSteps, failed),
	)
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(observability.StatusError, runErr.Error())
	} else {
		span.SetStatus(observability.StatusOK, "")
	}

	modeAttr := observability.String(observability.AttrTaskModeUsed, string(modeUsed))
	observer.Counter(observability.MetricTaskTotal).Add(ctx, 1, modeAttr)
	observer.Histogram(observability.MetricTaskComplexity).Record(ctx, score, modeAttr)

	o.remember(ctx, task, report)
	return report, runErr
}

func (o *Orchestrator) runSingle(ctx context.Context, report *ExecutionReport) error {
	if err := ctx.Err(); err != nil {
		report.Partial = true
		report.Answer = "Task cancelled before it started."
		return err
	}

	step := o.runStep(ctx, 1, report.Description)
	report.Steps = []StepResult{step}
	if step.Result.OK() {
		report.Answer = summarize(step.Result)
	} else {
		report.Answer = "Error: " + step.Result.Error
	}
	return nil
}

func (o *Orchestrator) runMulti(ctx context.Context, report *ExecutionReport) error {
	observer := observability.ProviderFromContext(ctx)

	subtasks := o.decomposer.Decompose(ctx, report.Description)
	if len(subtasks) == 0 {
		subtasks = []string{report.Description}
	}
	if len(subtasks) > o.maxSteps {
		observer.Warn(ctx, "Dropping subtasks beyond the step limit",
			observability.Int(observability.AttrTaskSteps, len(subtasks)),
			observability.Int("task.max_steps", o.maxSteps))
		subtasks = subtasks[:o.maxSteps]
	}

	lines := make([]string, 0, len(subtasks)+1)
	var cancelErr error
	for i, subtask := range subtasks {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}
		step := o.runStep(ctx, i+1, subtask)
		report.Steps = append(report.Steps, step)
		lines = append(lines, stepLine(step))
	}

	if cancelErr != nil {
		report.Partial = true
		lines = append(lines, fmt.Sprintf("Cancelled after %d of %d steps.", len(report.Steps), len(subtasks)))
		observer.Warn(ctx, "Task cancelled",
			observability.Int(observability.AttrTaskSteps, len(report.Steps)),
			observability.Error(cancelErr))
	}
	report.Answer = strings.Join(lines, "\n")
	return cancelErr
}

// runStep plans and dispatches one subtask. Planner errors and the absence
// of a fitting tool are reported as error results, never as Go errors.
func (o *Orchestrator) runStep(ctx context.Context, index int, subtask string) StepResult {
	observer := observability.ProviderFromContext(ctx)
	step := StepResult{Index: index, Subtask: subtask}

	planCtx, planSpan := observer.StartSpan(ctx, observability.SpanTaskPlan)
	invocation, err := o.planner.Plan(planCtx, subtask, o.registry.List())
	if err != nil {
		planSpan.RecordError(err)
	}
	planSpan.End()

	switch {
	case err != nil:
		step.Result = tool.Failure(fmt.Errorf("planning failed: %w", err))
	case invocation == nil:
		step.Result = o.complete(ctx, subtask)
	default:
		step.Invocation = *invocation
		step.Result = o.registry.Dispatch(ctx, *invocation)
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventTaskStepDone,
			observability.Int("task.step", index),
			observability.String(observability.AttrToolName, step.Invocation.ToolName),
			observability.String(observability.AttrToolStatus, string(step.Result.Status)))
	}
	return step
}

// complete answers a subtask without a tool, through the completer when set.
func (o *Orchestrator) complete(ctx context.Context, subtask string) tool.Result {
	if o.completer == nil {
		return tool.Success(map[string]any{
			"answer": fmt.Sprintf("No tool is available for %q.", subtask),
		})
	}
	resp, err := o.completer.SendMessage(ctx, ai.ChatRequest{
		Model:    o.model,
		Messages: []ai.Message{{Role: ai.RoleUser, Content: subtask}},
	})
	if err != nil {
		return tool.Failure(fmt.Errorf("completion failed: %w", err))
	}
	text := resp.Text()
	if text == "" {
		return tool.Failure(errors.New("completion returned no text"))
	}
	return tool.Success(map[string]any{"answer": text})
}

func (o *Orchestrator) remember(ctx context.Context, task Task, report ExecutionReport) {
	if o.history == nil {
		return
	}
	err := o.history.Append(ctx, memory.Record{
		TaskID:          report.TaskID,
		Description:     report.Description,
		Mode:            string(task.Mode),
		ModeUsed:        string(report.ModeUsed),
		ComplexityScore: report.ComplexityScore,
		Answer:          report.Answer,
		Steps:           len(report.Steps),
		FailedSteps:     report.FailedSteps(),
		Partial:         report.Partial,
		CreatedAt:       o.now(),
	})
	if err != nil {
		observability.ProviderFromContext(ctx).Warn(ctx, "Failed to record task history",
			observability.String(observability.AttrTaskID, report.TaskID),
			observability.Error(err))
	}
}

// stepLine renders "[n] <tool>: <summary>" or "[n] <tool>: error: <msg>".
func stepLine(step StepResult) string {
	name := step.Invocation.ToolName
	if name == "" {
		name = "answer"
	}
	if !step.Result.OK() {
		return fmt.Sprintf("[%d] %s: error: %s", step.Index, name, step.Result.Error)
	}
	return fmt.Sprintf("[%d] %s: %s", step.Index, name,
		observability.TruncateString(summarize(step.Result), maxStepSummary))
}

// summarize picks the first readable payload field, falling back to the
// payload as JSON.
func summarize(result tool.Result) string {
	for _, key := range summaryKeys {
		if value, ok := result.Payload[key]; ok {
			if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
				return text
			}
		}
	}
	if len(result.Payload) == 0 {
		return "Done."
	}
	return utils.JSONToString(result.Payload)
}
