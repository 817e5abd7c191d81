package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/observability/slogobs"
)

type stubProvider struct {
	sleep    time.Duration
	response *ai.ChatResponse
	err      error
	calls    int
}

func (s *stubProvider) SendMessage(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	s.calls++
	select {
	case <-time.After(s.sleep):
		return s.response, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *stubProvider) IsStopMessage(message *ai.ChatResponse) bool {
	return message != nil && message.FinishReason == "stop"
}

func TestWrap_OrderIsOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				order = append(order, name)
				return next(ctx, request)
			}
		}
	}

	stub := &stubProvider{response: &ai.ChatResponse{Content: "ok"}}
	provider := Wrap(stub, tag("a"), nil, tag("b"))

	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(order, ","); got != "a,b" {
		t.Errorf("expected a,b, got %s", got)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", stub.calls)
	}
}

func TestWrap_DelegatesIsStopMessage(t *testing.T) {
	provider := Wrap(&stubProvider{})
	if !provider.IsStopMessage(&ai.ChatResponse{FinishReason: "stop"}) {
		t.Error("expected stop message to be recognised")
	}
}

func TestTimeout_CompletesBeforeDeadline(t *testing.T) {
	provider := Wrap(&stubProvider{response: &ai.ChatResponse{Content: "ok"}}, Timeout(100*time.Millisecond))

	resp, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Content)
	}
}

func TestTimeout_ExceedsDeadline(t *testing.T) {
	provider := Wrap(&stubProvider{sleep: 200 * time.Millisecond}, Timeout(20*time.Millisecond))

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestTimeout_ShorterCallerDeadlineWins(t *testing.T) {
	provider := Wrap(&stubProvider{sleep: 200 * time.Millisecond}, Timeout(150*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.SendMessage(ctx, ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 120*time.Millisecond {
		t.Errorf("expected cancellation near 20ms, elapsed %v", elapsed)
	}
}

func TestTimeout_NonPositiveIsSkipped(t *testing.T) {
	if Timeout(0) != nil {
		t.Error("expected nil middleware for zero timeout")
	}
}

func TestLogging_Success(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&buf), slogobs.WithLevel(slog.LevelDebug), slogobs.WithFormat(slogobs.FormatJSON))
	stub := &stubProvider{response: &ai.ChatResponse{
		Model:        "gpt-test",
		Content:      "hello there",
		FinishReason: "stop",
		Usage:        &ai.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}}

	provider := Wrap(stub, Logging(observer, LogLevelVerbose))
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:    "gpt-test",
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"msg":"LLM send"`,
		`"msg":"LLM send completed"`,
		`"llm.model":"gpt-test"`,
		`"llm.message_count":1`,
		`"llm.first_message_content":"hi"`,
		`"llm.tokens.total":5`,
		`"llm.finish_reason":"stop"`,
		`"llm.response_content":"hello there"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got:\n%s", want, out)
		}
	}
}

func TestLogging_MinimalOmitsContent(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&buf), slogobs.WithLevel(slog.LevelDebug), slogobs.WithFormat(slogobs.FormatJSON))
	stub := &stubProvider{response: &ai.ChatResponse{Model: "m", Content: "secret", FinishReason: "stop"}}

	provider := Wrap(stub, Logging(observer, LogLevelMinimal))
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "private"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, unwanted := range []string{"secret", "private", "finish_reason", "message_count"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("minimal log must not contain %q, got:\n%s", unwanted, out)
		}
	}
}

func TestLogging_Failure(t *testing.T) {
	var buf bytes.Buffer
	observer := slogobs.New(slogobs.WithOutput(&buf), slogobs.WithFormat(slogobs.FormatJSON))
	boom := errors.New("boom")

	provider := Wrap(&stubProvider{err: boom}, Logging(observer, LogLevelStandard))
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "m"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !strings.Contains(buf.String(), `"msg":"LLM send failed"`) {
		t.Errorf("expected failure entry, got:\n%s", buf.String())
	}
}
