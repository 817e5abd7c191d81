package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/taskrouter/internal/jsonschema"
	"github.com/leofalp/taskrouter/providers/ai"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "calculator", "arguments": "{\"expression\": \"2 + 2\"}"}
			}]
		},
		"finish_reason": "tool_calls"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func newTestProvider(server *httptest.Server) *Provider {
	return New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL + "/v1").
		WithHttpClient(server.Client()).
		WithRetries(2, time.Millisecond)
}

func TestSendMessage_ToolCall(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionBody)
	}))
	defer server.Close()

	resp, err := newTestProvider(server).WithModel("gpt-test").SendMessage(context.Background(), ai.ChatRequest{
		SystemPrompt: "pick a tool",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "what is 2 + 2"}},
		Tools: []ai.ToolDescription{{
			Name:        "calculator",
			Description: "math",
			Parameters: jsonschema.Object(map[string]*jsonschema.Schema{
				"expression": jsonschema.Property("string", "expression"),
			}, "expression"),
		}},
		ToolChoiceForced: "required",
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if captured["model"] != "gpt-test" {
		t.Errorf("expected default model to be applied, got %v", captured["model"])
	}
	if captured["tool_choice"] != "required" {
		t.Errorf("expected tool_choice=required, got %v", captured["tool_choice"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(messages))
	}
	if first, _ := messages[0].(map[string]any); first["role"] != "system" {
		t.Errorf("expected system prompt first, got %v", first)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected one tool call, got %+v", resp.ToolCalls)
	}
	call := resp.ToolCalls[0]
	if call.Function.Name != "calculator" || !strings.Contains(call.Function.Arguments, "2 + 2") {
		t.Errorf("unexpected tool call %+v", call)
	}
	if resp.FinishReason != "tool_calls" || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected response metadata %+v", resp)
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	p := New().WithAPIKey("")
	_, err := p.SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSendMessage_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "x", "choices": [{"message": {"role": "assistant", "content": "done"}, "finish_reason": "stop"}]}`)
	}))
	defer server.Close()

	resp, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Content != "done" || calls.Load() != 3 {
		t.Errorf("unexpected result %q after %d calls", resp.Content, calls.Load())
	}
}

func TestSendMessage_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestSendMessage_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "x", "choices": []}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server).SendMessage(context.Background(), ai.ChatRequest{})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

func TestIsStopMessage(t *testing.T) {
	p := New()
	tests := []struct {
		name string
		msg  *ai.ChatResponse
		want bool
	}{
		{"nil", nil, true},
		{"stop", &ai.ChatResponse{FinishReason: "stop", Content: "x"}, true},
		{"length", &ai.ChatResponse{FinishReason: "length", Content: "x"}, true},
		{"tool calls", &ai.ChatResponse{FinishReason: "tool_calls", ToolCalls: []ai.ToolCall{{}}}, false},
		{"empty", &ai.ChatResponse{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.IsStopMessage(tc.msg); got != tc.want {
				t.Errorf("IsStopMessage() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestToolChoice(t *testing.T) {
	if toolChoice("auto") != "auto" {
		t.Error("expected plain string for auto")
	}
	named, ok := toolChoice("calculator").(goopenai.ToolChoice)
	if !ok || named.Function.Name != "calculator" {
		t.Errorf("expected structured choice for a tool name, got %v", named)
	}
}
