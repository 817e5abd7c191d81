package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/providers/memory"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/tool"
)

// ExecuteRequest is the body of POST /execute.
type ExecuteRequest struct {
	Task string `json:"task"`
	Mode string `json:"mode,omitempty"`
}

// ExecuteResponse is the body returned by POST /execute.
type ExecuteResponse struct {
	Success        bool                      `json:"success"`
	TaskID         string                    `json:"task_id,omitempty"`
	Result         string                    `json:"result,omitempty"`
	ModeUsed       string                    `json:"mode_used,omitempty"`
	TaskComplexity string                    `json:"task_complexity,omitempty"`
	Partial        bool                      `json:"partial,omitempty"`
	Steps          []orchestrator.StepResult `json:"steps,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

// HistoryEntry is one element of GET /history.
type HistoryEntry struct {
	TaskID     string    `json:"task_id"`
	Task       string    `json:"task"`
	Result     string    `json:"result"`
	ModeUsed   string    `json:"mode_used"`
	Complexity float64   `json:"complexity"`
	Partial    bool      `json:"partial,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func errorResponse(c *gin.Context, status int, err error) {
	c.JSON(status, ExecuteResponse{Success: false, Error: err.Error()})
}

func (s *Server) execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err)
		return
	}

	mode := orchestrator.Mode("")
	if req.Mode != "" {
		parsed, err := orchestrator.ParseMode(req.Mode)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err)
			return
		}
		mode = parsed
	}

	ctx := c.Request.Context()
	report, err := s.orchestrator.Execute(ctx, req.Task, mode)
	switch {
	case errors.Is(err, orchestrator.ErrEmptyTask), errors.Is(err, orchestrator.ErrInvalidMode):
		errorResponse(c, http.StatusBadRequest, err)
		return
	case err != nil && !report.Partial:
		observability.ProviderFromContext(ctx).Error(ctx, "Task execution failed", observability.Error(err))
		errorResponse(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, ExecuteResponse{
		Success:        true,
		TaskID:         report.TaskID,
		Result:         report.Answer,
		ModeUsed:       string(report.ModeUsed),
		TaskComplexity: report.ComplexityLabel(),
		Partial:        report.Partial,
		Steps:          report.Steps,
	})
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "history": []HistoryEntry{}})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.Last(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Newest first.
	entries := make([]HistoryEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		entries = append(entries, toEntry(records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": entries})
}

func (s *Server) getHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": memory.ErrNotFound.Error()})
		return
	}
	record, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, memory.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": toEntry(record)})
}

func (s *Server) listTools(c *gin.Context) {
	specs := []tool.Spec{}
	for spec := range s.orchestrator.Registry().List() {
		specs = append(specs, spec)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tools": specs})
}

func toEntry(record memory.Record) HistoryEntry {
	return HistoryEntry{
		TaskID:     record.TaskID,
		Task:       record.Description,
		Result:     record.Answer,
		ModeUsed:   record.ModeUsed,
		Complexity: record.ComplexityScore,
		Partial:    record.Partial,
		CreatedAt:  record.CreatedAt,
	}
}
