package memory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record has the requested task ID.
var ErrNotFound = errors.New("task not found")

// Record is the stored summary of one executed task.
type Record struct {
	TaskID          string    `json:"task_id"`
	Description     string    `json:"description"`
	Mode            string    `json:"mode"`
	ModeUsed        string    `json:"mode_used"`
	ComplexityScore float64   `json:"complexity_score"`
	Answer          string    `json:"answer"`
	Steps           int       `json:"steps"`
	FailedSteps     int       `json:"failed_steps"`
	Partial         bool      `json:"partial,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Provider stores task history.
type Provider interface {
	Append(ctx context.Context, record Record) error
	Get(ctx context.Context, taskID string) (Record, error)
	// Last returns up to n of the most recent records, oldest first.
	Last(ctx context.Context, n int) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
