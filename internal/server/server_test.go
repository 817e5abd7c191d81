package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/providers/memory/inmemory"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/observability/promobs"
	"github.com/leofalp/taskrouter/providers/tool"
	"github.com/leofalp/taskrouter/providers/tool/calculator"
	"github.com/leofalp/taskrouter/providers/tool/echo"
)

type fixture struct {
	server  *Server
	history *inmemory.History
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	metrics, err := promobs.New(reg)
	require.NoError(t, err)
	observer := observability.Combine(nil, metrics, nil)

	registry := tool.NewRegistry()
	registry.MustRegister(calculator.New(), echo.New())
	history := inmemory.New(10)
	orch := orchestrator.New(registry, orchestrator.WithHistory(history), orchestrator.WithObserver(observer))

	return fixture{
		server:  New(orch, WithHistory(history), WithGatherer(reg), WithObserver(observer)),
		history: history,
	}
}

func (f fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestExecute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/execute", ExecuteRequest{Task: "Calculate the square root of 144", Mode: "single"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ExecuteResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "12", resp.Result)
	assert.Equal(t, "single", resp.ModeUsed)
	assert.Regexp(t, `^\d+\.\d/10$`, resp.TaskComplexity)
	assert.NotEmpty(t, resp.TaskID)
	require.Len(t, resp.Steps, 1)
	assert.Equal(t, "calculator", resp.Steps[0].Invocation.ToolName)
}

func TestExecute_DefaultModeIsAuto(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/execute", map[string]string{"task": "calculate 1 + 1 and then calculate 2 * 3"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ExecuteResponse](t, rec)
	assert.Equal(t, "multi", resp.ModeUsed)
	assert.Equal(t, "[1] calculator: 2\n[2] calculator: 6", resp.Result)
}

func TestExecute_BadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		body     any
		contains string
	}{
		{"empty task", ExecuteRequest{Task: "   "}, "empty"},
		{"invalid mode", ExecuteRequest{Task: "2 + 2", Mode: "parallel"}, "invalid mode"},
		{"malformed body", "not an object", "cannot unmarshal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/execute", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ExecuteResponse](t, rec)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tc.contains)
		})
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)

	for _, task := range []string{"1 + 1", "2 + 2", "3 + 3"} {
		rec := f.do(t, http.MethodPost, "/execute", ExecuteRequest{Task: task, Mode: "single"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Success bool           `json:"success"`
		History []HistoryEntry `json:"history"`
	}](t, rec)
	require.True(t, body.Success)
	require.Len(t, body.History, 2)
	assert.Equal(t, "3 + 3", body.History[0].Task, "newest first")
	assert.Equal(t, "6", body.History[0].Result)
	assert.Equal(t, "2 + 2", body.History[1].Task)

	rec = f.do(t, http.MethodGet, "/history/"+body.History[1].TaskID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":"4"`)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/history/unknown", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/history?limit=zero", nil).Code)
}

func TestTools(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Tools []tool.Spec `json:"tools"`
	}](t, rec)
	require.Len(t, body.Tools, 2)
	assert.Equal(t, calculator.Name, body.Tools[0].Name)
	assert.Equal(t, echo.Name, body.Tools[1].Name)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/execute", ExecuteRequest{Task: "2 + 2", Mode: "single"}).Code)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.True(t, strings.Contains(text, `taskrouter_tool_dispatch_total{status="success",tool="calculator"} 1`), text)
	assert.Contains(t, text, `taskrouter_task_total{mode="single"} 1`)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
