package promobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/taskrouter/providers/observability"
)

const namespace = "taskrouter"

// label binds a Prometheus label to the attribute key it is read from.
type label struct {
	name    string
	attrKey string
}

type metricDef struct {
	help   string
	labels []label
}

var (
	toolLabels = []label{
		{name: "tool", attrKey: observability.AttrToolName},
		{name: "status", attrKey: observability.AttrToolStatus},
	}

	counterDefs = map[string]metricDef{
		observability.MetricToolDispatchTotal: {
			help:   "Tool dispatches by tool name and result status.",
			labels: toolLabels,
		},
		observability.MetricTaskTotal: {
			help:   "Tasks executed by the orchestrator, by mode used.",
			labels: []label{{name: "mode", attrKey: observability.AttrTaskModeUsed}},
		},
	}

	histogramDefs = map[string]metricDef{
		observability.MetricToolDispatchDuration: {
			help:   "Tool dispatch latency in seconds.",
			labels: toolLabels,
		},
		observability.MetricTaskComplexity: {
			help:   "Complexity scores of task descriptions.",
			labels: []label{{name: "mode", attrKey: observability.AttrTaskModeUsed}},
		},
	}

	complexityBuckets = []float64{0.5, 1, 2, 3, 4, 5, 6, 8, 10}
)

// Metrics is an observability.Metrics backed by Prometheus vectors.
type Metrics struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Metrics = (*Metrics)(nil)

// New registers the well-known collectors with reg and returns the adapter.
// A nil reg uses prometheus.DefaultRegisterer. Collectors that are already
// registered under the same name are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		reg:        reg,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for name, def := range counterDefs {
		if _, err := m.counterLocked(name, def); err != nil {
			return nil, err
		}
	}
	for name, def := range histogramDefs {
		if _, err := m.histogramLocked(name, def); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// Counter returns the counter registered under name, creating an unlabelled
// one when the name is not well known. Registration failures degrade to a
// no-op counter.
func (m *Metrics) Counter(name string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.counterLocked(name, metricDef{help: name})
	if err != nil {
		return observability.Nop().Counter(name)
	}
	return c
}

// Histogram returns the histogram registered under name, creating an
// unlabelled one when the name is not well known.
func (m *Metrics) Histogram(name string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, err := m.histogramLocked(name, metricDef{help: name})
	if err != nil {
		return observability.Nop().Histogram(name)
	}
	return h
}

func (m *Metrics) counterLocked(name string, def metricDef) (*counter, error) {
	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      def.help,
	}, labelNames(def.labels))
	if err := m.reg.Register(vec); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("register counter %s: %w", name, err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register counter %s: existing collector has type %T", name, already.ExistingCollector)
		}
		vec = existing
	}
	c := &counter{vec: vec, labels: def.labels}
	m.counters[name] = c
	return c, nil
}

func (m *Metrics) histogramLocked(name string, def metricDef) (*histogram, error) {
	if h, ok := m.histograms[name]; ok {
		return h, nil
	}
	buckets := prometheus.DefBuckets
	if name == observability.MetricTaskComplexity {
		buckets = complexityBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      def.help,
		Buckets:   buckets,
	}, labelNames(def.labels))
	if err := m.reg.Register(vec); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("register histogram %s: %w", name, err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("register histogram %s: existing collector has type %T", name, already.ExistingCollector)
		}
		vec = existing
	}
	h := &histogram{vec: vec, labels: def.labels}
	m.histograms[name] = h
	return h, nil
}

type counter struct {
	vec    *prometheus.CounterVec
	labels []label
}

func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.labels, attrs)...).Add(float64(value))
}

type histogram struct {
	vec    *prometheus.HistogramVec
	labels []label
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.vec.WithLabelValues(labelValues(h.labels, attrs)...).Observe(value)
}

func labelNames(labels []label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.name
	}
	return names
}

// labelValues picks the attribute for each label in order. Missing
// attributes become empty strings; attributes without a label are dropped.
func labelValues(labels []label, attrs []observability.Attribute) []string {
	values := make([]string, len(labels))
	for i, l := range labels {
		for _, attr := range attrs {
			if attr.Key == l.attrKey {
				values[i] = fmt.Sprint(attr.Value)
			}
		}
	}
	return values
}
