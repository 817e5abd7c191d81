package promobs

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/leofalp/taskrouter/providers/observability"
)

func TestCounter_LabelsFromAttributes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := MustNew(registry)
	ctx := context.Background()

	dispatches := m.Counter(observability.MetricToolDispatchTotal)
	dispatches.Add(ctx, 1,
		observability.String(observability.AttrToolName, "calculator"),
		observability.String(observability.AttrToolStatus, "success"),
		observability.String("ignored", "x"))
	dispatches.Add(ctx, 2,
		observability.String(observability.AttrToolName, "calculator"),
		observability.String(observability.AttrToolStatus, "success"))
	dispatches.Add(ctx, 1,
		observability.String(observability.AttrToolName, "search"),
		observability.String(observability.AttrToolStatus, "error"))

	c := m.counters[observability.MetricToolDispatchTotal]
	if got := testutil.ToFloat64(c.vec.WithLabelValues("calculator", "success")); got != 3 {
		t.Errorf("expected 3 calculator successes, got %v", got)
	}
	if got := testutil.ToFloat64(c.vec.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("expected 1 search error, got %v", got)
	}
}

func TestCounter_IgnoresNegativeDelta(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	m.Counter(observability.MetricTaskTotal).Add(context.Background(), -4,
		observability.String(observability.AttrTaskModeUsed, "single"))

	c := m.counters[observability.MetricTaskTotal]
	if got := testutil.ToFloat64(c.vec.WithLabelValues("single")); got != 0 {
		t.Errorf("expected counter to stay at 0, got %v", got)
	}
}

func TestHistogram_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := MustNew(registry)
	m.Histogram(observability.MetricTaskComplexity).Record(context.Background(), 4.2,
		observability.String(observability.AttrTaskModeUsed, "multi"))

	expected := `
# HELP taskrouter_task_complexity_score Complexity scores of task descriptions.
# TYPE taskrouter_task_complexity_score histogram
taskrouter_task_complexity_score_bucket{mode="multi",le="0.5"} 0
taskrouter_task_complexity_score_bucket{mode="multi",le="1"} 0
taskrouter_task_complexity_score_bucket{mode="multi",le="2"} 0
taskrouter_task_complexity_score_bucket{mode="multi",le="3"} 0
taskrouter_task_complexity_score_bucket{mode="multi",le="4"} 0
taskrouter_task_complexity_score_bucket{mode="multi",le="5"} 1
taskrouter_task_complexity_score_bucket{mode="multi",le="6"} 1
taskrouter_task_complexity_score_bucket{mode="multi",le="8"} 1
taskrouter_task_complexity_score_bucket{mode="multi",le="10"} 1
taskrouter_task_complexity_score_bucket{mode="multi",le="+Inf"} 1
taskrouter_task_complexity_score_sum{mode="multi"} 4.2
taskrouter_task_complexity_score_count{mode="multi"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "taskrouter_task_complexity_score"); err != nil {
		t.Fatal(err)
	}
}

func TestUnknownMetricsAreUnlabelled(t *testing.T) {
	m := MustNew(prometheus.NewRegistry())
	ctx := context.Background()

	m.Counter("custom_total").Add(ctx, 5, observability.String("anything", "x"))
	m.Counter("custom_total").Add(ctx, 1)

	c := m.counters["custom_total"]
	if got := testutil.ToFloat64(c.vec.WithLabelValues()); got != 6 {
		t.Errorf("expected 6, got %v", got)
	}
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := MustNew(registry)
	second, err := New(registry)
	if err != nil {
		t.Fatalf("expected second registration to reuse collectors, got %v", err)
	}

	attrs := []observability.Attribute{observability.String(observability.AttrTaskModeUsed, "auto")}
	first.Counter(observability.MetricTaskTotal).Add(context.Background(), 1, attrs...)
	second.Counter(observability.MetricTaskTotal).Add(context.Background(), 1, attrs...)

	c := first.counters[observability.MetricTaskTotal]
	if got := testutil.ToFloat64(c.vec.WithLabelValues("auto")); got != 2 {
		t.Errorf("expected shared collector total 2, got %v", got)
	}
}
