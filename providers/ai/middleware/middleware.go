package middleware

import (
	"context"

	"github.com/leofalp/taskrouter/providers/ai"
)

// SendFunc sends a chat request and returns the completed response.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware intercepts send calls. It receives the next SendFunc and returns
// one that wraps it.
type Middleware func(next SendFunc) SendFunc

// Wrap returns provider with middlewares applied; middlewares[0] runs first.
// Nil entries are skipped. IsStopMessage is delegated unchanged.
func Wrap(provider ai.Provider, middlewares ...Middleware) ai.Provider {
	var chain SendFunc = provider.SendMessage
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			chain = middlewares[i](chain)
		}
	}
	return &wrapped{Provider: provider, send: chain}
}

type wrapped struct {
	ai.Provider
	send SendFunc
}

func (w *wrapped) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return w.send(ctx, request)
}
