package orchestrator

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/taskrouter/internal/jsonschema"
	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/memory/inmemory"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/observability/slogobs"
	"github.com/leofalp/taskrouter/providers/tool"
	"github.com/leofalp/taskrouter/providers/tool/calculator"
	"github.com/leofalp/taskrouter/providers/tool/echo"
)

func newRegistry(t *testing.T, extra ...tool.Tool) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry()
	registry.MustRegister(calculator.New(), echo.New())
	registry.MustRegister(extra...)
	return registry
}

// countingTool returns a tool named name that counts its calls and runs fn.
func countingTool(name string, calls *atomic.Int32, fn func(n int32) (map[string]any, error)) tool.Tool {
	return tool.NewFunc(name, "test tool", jsonschema.Object(nil),
		func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return fn(calls.Add(1))
		})
}

func plannerFor(name string) Planner {
	return PlannerFunc(func(_ context.Context, task string, _ iter.Seq[tool.Spec]) (*tool.Invocation, error) {
		return &tool.Invocation{ToolName: name, Arguments: map[string]any{"task": task}}, nil
	})
}

func TestExecute_SingleCalculator(t *testing.T) {
	orch := New(newRegistry(t))

	tests := []struct {
		task string
		want string
	}{
		{"What is 2 + 3 * 4?", "14"},
		{"Calculate the square root of 144", "12"},
		{"what is 50% of 200", "100"},
		{"compute 10 / 4.", "2.5"},
	}
	for _, tc := range tests {
		t.Run(tc.task, func(t *testing.T) {
			report, err := orch.Execute(context.Background(), tc.task, ModeSingle)
			require.NoError(t, err)
			assert.Equal(t, ModeSingle, report.ModeUsed)
			assert.Equal(t, tc.want, report.Answer)
			require.Len(t, report.Steps, 1)
			assert.Equal(t, CalculatorTool, report.Steps[0].Invocation.ToolName)
			assert.NotEmpty(t, report.TaskID)
		})
	}
}

func TestExecute_SingleFailureIsReadable(t *testing.T) {
	report, err := New(newRegistry(t)).Execute(context.Background(), "10 / 0", ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, "Error: Calculation error: division by zero", report.Answer)
	assert.Equal(t, 1, report.FailedSteps())
}

func TestExecute_FallbackTool(t *testing.T) {
	report, err := New(newRegistry(t)).Execute(context.Background(), "tell me a joke", ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, echo.Completed, report.Answer)
	assert.Equal(t, FallbackTool, report.Steps[0].Invocation.ToolName)
}

func TestExecute_MultiWithOneFailingStep(t *testing.T) {
	orch := New(newRegistry(t))

	report, err := orch.Execute(context.Background(),
		"calculate 2 + 2; calculate 10 / 0; calculate 3 * 3", ModeMulti)
	require.NoError(t, err)

	assert.Equal(t, ModeMulti, report.ModeUsed)
	require.Len(t, report.Steps, 3)
	assert.Equal(t, 1, report.FailedSteps())
	assert.False(t, report.Partial)

	lines := strings.Split(report.Answer, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[1] calculator: 4", lines[0])
	assert.Equal(t, "[2] calculator: error: Calculation error: division by zero", lines[1])
	assert.Equal(t, "[3] calculator: 9", lines[2])
}

func TestExecute_MultiCancellationReturnsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	step := countingTool("step", &calls, func(n int32) (map[string]any, error) {
		if n == 2 {
			cancel()
		}
		return map[string]any{"result": "ok"}, nil
	})
	orch := New(newRegistry(t, step), WithPlanner(plannerFor("step")))

	report, err := orch.Execute(ctx, "first; second; third", ModeMulti)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.True(t, report.Partial)
	assert.Len(t, report.Steps, 2)
	assert.EqualValues(t, 2, calls.Load())
	assert.Contains(t, report.Answer, "[1] step: ok")
	assert.Contains(t, report.Answer, "Cancelled after 2 of 3 steps.")
}

func TestExecute_MultiRespectsMaxSteps(t *testing.T) {
	var calls atomic.Int32
	step := countingTool("step", &calls, func(int32) (map[string]any, error) {
		return map[string]any{"result": "ok"}, nil
	})
	orch := New(newRegistry(t, step), WithPlanner(plannerFor("step")), WithMaxSteps(2))

	report, err := orch.Execute(context.Background(), "a; b; c; d", ModeMulti)
	require.NoError(t, err)
	assert.Len(t, report.Steps, 2)
	assert.EqualValues(t, 2, calls.Load())
}

func TestExecuteTask_LegacyDefaultsAndEmptyTask(t *testing.T) {
	var calls atomic.Int32
	step := countingTool("step", &calls, func(int32) (map[string]any, error) {
		return map[string]any{"result": "ok"}, nil
	})
	history := inmemory.New(10)
	orch := New(newRegistry(t, step), WithPlanner(plannerFor("step")), WithHistory(history))

	_, err := orch.ExecuteTask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTask)
	assert.Zero(t, calls.Load(), "an empty task must not dispatch")
	count, _ := history.Count(context.Background())
	assert.Zero(t, count)

	// Long enough to select multi under auto, but the legacy shape is single.
	report, err := orch.ExecuteTask(context.Background(), "search for go and then summarize it and compare results")
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, report.ModeUsed)
	assert.Len(t, report.Steps, 1)
}

func TestExecute_UnknownToolIsReported(t *testing.T) {
	orch := New(newRegistry(t), WithPlanner(plannerFor("nope")))

	report, err := orch.Execute(context.Background(), "do something", ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, "Error: unknown tool: nope", report.Answer)
	assert.True(t, errors.Is(report.Steps[0].Result.Err(), tool.ErrUnknownTool))
}

func TestExecute_InvalidMode(t *testing.T) {
	_, err := New(newRegistry(t)).Execute(context.Background(), "2 + 2", Mode("parallel"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestExecute_AutoMode(t *testing.T) {
	orch := New(newRegistry(t))

	short, err := orch.Execute(context.Background(), "2 + 2", ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, short.ModeUsed)
	assert.Equal(t, "4", short.Answer)

	long, err := orch.Execute(context.Background(), "calculate 2 + 2 and then calculate 3 * 3", "")
	require.NoError(t, err)
	assert.Equal(t, ModeMulti, long.ModeUsed)
	assert.Equal(t, "[1] calculator: 4\n[2] calculator: 9", long.Answer)
}

func TestExecute_RecordsHistoryAndMetrics(t *testing.T) {
	history := inmemory.New(10)
	observer := slogobs.New(slogobs.WithOutput(io.Discard))
	orch := New(newRegistry(t), WithHistory(history), WithObserver(observer))

	report, err := orch.Execute(context.Background(), "2 + 2", ModeSingle)
	require.NoError(t, err)

	record, err := history.Get(context.Background(), report.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "2 + 2", record.Description)
	assert.Equal(t, "4", record.Answer)
	assert.Equal(t, "single", record.ModeUsed)
	assert.Equal(t, 1, record.Steps)
	assert.False(t, record.CreatedAt.IsZero())

	assert.EqualValues(t, 1, observer.CounterValue(observability.MetricTaskTotal))
	assert.EqualValues(t, 1, observer.CounterValue(observability.MetricToolDispatchTotal))
}

type fakeProvider struct {
	response *ai.ChatResponse
	err      error
	requests []ai.ChatRequest
}

func (f *fakeProvider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	f.requests = append(f.requests, request)
	return f.response, f.err
}

func (f *fakeProvider) IsStopMessage(*ai.ChatResponse) bool { return true }

func TestExecute_CompleterAnswersWhenNoToolFits(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "Paris"}}
	noTool := PlannerFunc(func(context.Context, string, iter.Seq[tool.Spec]) (*tool.Invocation, error) {
		return nil, nil
	})
	orch := New(newRegistry(t), WithPlanner(noTool), WithCompleter(provider, "test-model"))

	report, err := orch.Execute(context.Background(), "capital of France", ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, "Paris", report.Answer)
	require.Len(t, provider.requests, 1)
	assert.Equal(t, "test-model", provider.requests[0].Model)

	withoutCompleter := New(newRegistry(t), WithPlanner(noTool))
	report, err = withoutCompleter.Execute(context.Background(), "capital of France", ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, `No tool is available for "capital of France".`, report.Answer)
}

func TestReport_ComplexityLabel(t *testing.T) {
	assert.Equal(t, "3.5/10", ExecutionReport{ComplexityScore: 3.46}.ComplexityLabel())
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, " single ": ModeSingle, "Multi": ModeMulti} {
		got, err := ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseMode("both")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
