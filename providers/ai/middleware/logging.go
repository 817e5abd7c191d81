package middleware

import (
	"context"
	"time"

	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/observability"
)

// LogLevel controls how much detail Logging emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs the model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the first message and the response content, each
	// truncated to 500 characters.
	//
	// WARNING: raw prompt and response text may contain user data. Use only
	// for local debugging.
	LogLevelVerbose
)

const truncateLen = 500

// Logging records a debug entry before each send and an info or error entry
// after it, through observer. A nil observer falls back to the one carried by
// the request context.
func Logging(observer observability.Provider, level LogLevel) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger := observer
			if logger == nil {
				logger = observability.ProviderFromContext(ctx)
			}
			logger.Debug(ctx, "LLM send", requestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.Error(ctx, "LLM send failed",
					observability.String(observability.AttrLLMModel, request.Model),
					observability.Duration(observability.AttrLLMDuration, elapsed),
					observability.Error(err),
				)
				return nil, err
			}

			logger.Info(ctx, "LLM send completed", responseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []observability.Attribute {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, request.Model),
	}
	if level >= LogLevelStandard {
		attrs = append(attrs, observability.Int("llm.message_count", len(request.Messages)))
	}
	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		first := request.Messages[0]
		attrs = append(attrs,
			observability.String("llm.first_message_role", string(first.Role)),
			observability.String("llm.first_message_content", observability.TruncateString(first.Content, truncateLen)),
		)
	}
	return attrs
}

func responseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []observability.Attribute {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, response.Model),
		observability.Duration(observability.AttrLLMDuration, elapsed),
	}
	if response.Usage != nil {
		attrs = append(attrs,
			observability.Int("llm.tokens.prompt", response.Usage.PromptTokens),
			observability.Int("llm.tokens.completion", response.Usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens),
		)
	}
	if level >= LogLevelStandard && response.FinishReason != "" {
		attrs = append(attrs, observability.String(observability.AttrLLMFinishReason, response.FinishReason))
	}
	if level >= LogLevelVerbose && response.Content != "" {
		attrs = append(attrs,
			observability.String("llm.response_content", observability.TruncateString(response.Content, truncateLen)),
		)
	}
	return attrs
}
