package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/taskrouter/providers/ai"
	"github.com/leofalp/taskrouter/providers/observability"
)

const (
	DefaultModel      = goopenai.GPT4oMini
	defaultMaxRetries = 2
)

// ErrMissingAPIKey is returned by SendMessage when no API key is configured.
var ErrMissingAPIKey = errors.New("API key is not set")

// Provider implements ai.Provider over the chat completions endpoint.
type Provider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider configured from OPENAI_API_KEY and
// OPENAI_API_BASE_URL.
func New() *Provider {
	return &Provider{
		apiKey:     os.Getenv("OPENAI_API_KEY"),
		baseURL:    os.Getenv("OPENAI_API_BASE_URL"),
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: defaultMaxRetries,
		backoff:    time.Second,
	}
}

// WithAPIKey sets the API key for the provider
func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API. Empty keeps the SDK default.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	return p
}

// WithModel sets the model used when a request does not name one.
func (p *Provider) WithModel(model string) *Provider {
	if model != "" {
		p.model = model
	}
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *Provider) WithHttpClient(httpClient *http.Client) *Provider {
	p.httpClient = httpClient
	return p
}

// WithRetries sets how many times a retryable failure is retried and the
// initial backoff, which doubles on every attempt.
func (p *Provider) WithRetries(maxRetries int, backoff time.Duration) *Provider {
	p.maxRetries = maxRetries
	p.backoff = backoff
	return p
}

func (p *Provider) client() *goopenai.Client {
	config := goopenai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		config.HTTPClient = p.httpClient
	}
	return goopenai.NewClientWithConfig(config)
}

// SendMessage implements the Provider interface
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if request.Model == "" {
		request.Model = p.model
	}

	observer := observability.ProviderFromContext(ctx)
	ctx, span := observer.StartSpan(ctx, observability.SpanLLMRequest,
		observability.String(observability.AttrLLMModel, request.Model))
	defer span.End()

	client := p.client()
	wireRequest := requestFromGeneric(request)

	var (
		resp goopenai.ChatCompletionResponse
		err  error
	)
	backoff := p.backoff
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		resp, err = client.CreateChatCompletion(ctx, wireRequest)
		if err == nil || !isRetryable(err) || attempt == p.maxRetries {
			break
		}
		observer.Warn(ctx, "Retrying chat completion",
			observability.Int("llm.attempt", attempt+1),
			observability.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "chat completion failed")
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("no choices in response")
		span.RecordError(err)
		return nil, err
	}

	out := responseToGeneric(resp)
	span.SetAttributes(
		observability.String(observability.AttrLLMFinishReason, out.FinishReason),
		observability.Int(observability.AttrLLMTokensTotal, resp.Usage.TotalTokens),
	)
	return out, nil
}

// IsStopMessage reports whether the given chat response should be treated as a stop/end signal.
func (p *Provider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	switch message.FinishReason {
	case string(goopenai.FinishReasonStop), string(goopenai.FinishReasonLength), string(goopenai.FinishReasonContentFilter):
		return true
	}
	return message.Content == "" && len(message.ToolCalls) == 0
}

// isRetryable reports whether err is a rate limit, a server-side failure or
// a transport error without an HTTP status.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
