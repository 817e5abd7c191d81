package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/taskrouter/providers/tool"
)

// Mode selects how many tool invocations compose one task's answer.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
	ModeAuto   Mode = "auto"
)

var (
	// ErrEmptyTask is returned when the description is blank. Nothing is dispatched.
	ErrEmptyTask = errors.New("task description is empty")

	// ErrInvalidMode is returned for a mode other than single, multi or auto.
	ErrInvalidMode = errors.New("invalid mode")
)

// ParseMode maps a case-insensitive mode name to a Mode. The empty string
// maps to ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeSingle:
		return ModeSingle, nil
	case ModeMulti:
		return ModeMulti, nil
	}
	return "", fmt.Errorf("%w: %q (want single, multi or auto)", ErrInvalidMode, s)
}

// Task is one unit of work submitted to the orchestrator.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Mode        Mode   `json:"mode"`
}

// StepResult is the outcome of one planned invocation. Invocation.ToolName is
// empty when no tool was chosen for the subtask.
type StepResult struct {
	Index      int             `json:"index"`
	Subtask    string          `json:"subtask"`
	Invocation tool.Invocation `json:"invocation"`
	Result     tool.Result     `json:"result"`
}

// ExecutionReport is the structured answer to a task.
type ExecutionReport struct {
	TaskID          string       `json:"task_id"`
	Description     string       `json:"description"`
	Answer          string       `json:"answer"`
	ModeUsed        Mode         `json:"mode_used"`
	ComplexityScore float64      `json:"complexity_score"`
	Steps           []StepResult `json:"steps,omitempty"`
	// Partial is set when cancellation stopped the task before every step ran.
	Partial bool `json:"partial,omitempty"`
}

// FailedSteps counts steps whose result is an error.
func (r ExecutionReport) FailedSteps() int {
	n := 0
	for _, step := range r.Steps {
		if !step.Result.OK() {
			n++
		}
	}
	return n
}

// ComplexityLabel renders the score as "x.y/10".
func (r ExecutionReport) ComplexityLabel() string {
	return fmt.Sprintf("%.1f/10", r.ComplexityScore)
}
