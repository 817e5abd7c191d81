package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/taskrouter/providers/observability"
)

// Observer implements observability.Provider using log/slog.
type Observer struct {
	logger *slog.Logger

	mu       sync.Mutex
	counters map[string]*slogCounter
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// New creates a slog-based observer. Without options the format and level
// come from TASKROUTER_LOG_FORMAT and TASKROUTER_LOG_LEVEL, and output goes
// to stderr.
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithLevel(slog.LevelDebug),
//	)
func New(opts ...Option) *Observer {
	return &Observer{
		logger:   applyOptions(opts...).buildLogger(),
		counters: make(map[string]*slogCounter),
	}
}

// Logger returns the underlying slog.Logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// --- TRACING ---

// StartSpan begins a named span, logs its start at debug level and returns
// a context carrying the span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     append([]observability.Attribute(nil), attrs...),
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", span.logAttrs("span.start")...)
	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger

	mu    sync.Mutex
	attrs []observability.Attribute
	ended bool
}

func (s *slogSpan) logAttrs(event string, extra ...slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(s.attrs)+len(extra)+2)
	out = append(out, slog.String("span", s.name), slog.String("event", event))
	out = append(out, extra...)
	for _, attr := range s.attrs {
		out = append(out, slog.Any(attr.Key, attr.Value))
	}
	return out
}

// End logs the span duration and its accumulated attributes. Only the first call logs.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	attrs := s.logAttrs("span.end", slog.Duration("duration", time.Since(s.startTime)))
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span ended", attrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := "unset"
	switch code {
	case observability.StatusOK:
		status = "ok"
	case observability.StatusError:
		status = "error"
	}
	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, status))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError attaches err to the span and logs it at warn level; the
// span's owner decides whether the failure is worth an error log.
func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "Span error",
		slog.String("span", s.name), slog.String("error", err.Error()))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := []slog.Attr{slog.String("span", s.name), slog.String("event", name)}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- METRICS ---

// Counter returns the named counter, creating it on first use. Each Add
// logs the delta and running total at debug level.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	counter, ok := o.counters[name]
	if !ok {
		counter = &slogCounter{name: name, logger: o.logger}
		o.counters[name] = counter
	}
	return counter
}

// Histogram returns a histogram that logs each observation at debug level.
func (o *Observer) Histogram(name string) observability.Histogram {
	return &slogHistogram{name: name, logger: o.logger}
}

// CounterValue returns the running total of the named counter.
func (o *Observer) CounterValue(name string) int64 {
	o.mu.Lock()
	counter, ok := o.counters[name]
	o.mu.Unlock()
	if !ok {
		return 0
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	return counter.value
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	total := c.value
	c.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", c.name),
		slog.Int64("value", total),
		slog.Int64("delta", value),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", logAttrs...)
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := []slog.Attr{
		slog.String("metric", h.name),
		slog.Float64("value", value),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", logAttrs...)
}

// --- LOGGING ---

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs...)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs ...observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, logAttrs...)
}
