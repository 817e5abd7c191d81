package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/taskrouter/providers/memory"
	"github.com/leofalp/taskrouter/providers/observability"
)

// DefaultCapacity bounds the history when New is called with a non-positive size.
const DefaultCapacity = 1000

// History is a concurrency-safe in-memory task history.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
// Once full, appending drops the oldest record.
type History struct {
	mu       sync.RWMutex
	records  []memory.Record
	capacity int
}

// Ensure History implements memory.Provider at compile time.
var _ memory.Provider = (*History)(nil)

// New returns an empty History holding at most capacity records.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Append stores record at the end of the history.
// When an observability span is present in ctx, an event is recorded with the
// task id and the running total is set as a span attribute.
func (h *History) Append(ctx context.Context, record memory.Record) error {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrTaskID, record.TaskID))
	}

	h.mu.Lock()
	if len(h.records) >= h.capacity {
		drop := len(h.records) - h.capacity + 1
		h.records = append(h.records[:0], h.records[drop:]...)
	}
	h.records = append(h.records, record)
	total := len(h.records)
	h.mu.Unlock()

	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrMemoryTotalRecords, total))
	}
	return nil
}

// Get returns the most recent record for taskID.
func (h *History) Get(_ context.Context, taskID string) (memory.Record, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].TaskID == taskID {
			return h.records[i], nil
		}
	}
	return memory.Record{}, memory.ErrNotFound
}

// Last returns up to the last n records as a new, independent slice.
// Returns an empty, non-nil slice when n is zero or negative.
func (h *History) Last(_ context.Context, n int) ([]memory.Record, error) {
	if n <= 0 {
		return []memory.Record{}, nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n > len(h.records) {
		n = len(h.records)
	}
	out := make([]memory.Record, n)
	copy(out, h.records[len(h.records)-n:])
	return out, nil
}

// Count returns the number of records stored.
func (h *History) Count(_ context.Context) (int, error) {
	h.mu.RLock()
	n := len(h.records)
	h.mu.RUnlock()
	return n, nil
}

// Clear removes all records while retaining the underlying slice capacity.
func (h *History) Clear(ctx context.Context) error {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear)
	}
	h.mu.Lock()
	h.records = h.records[:0]
	h.mu.Unlock()
	return nil
}
