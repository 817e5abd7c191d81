package middleware

import (
	"context"
	"time"

	"github.com/leofalp/taskrouter/providers/ai"
)

// Timeout bounds every send call. A shorter deadline already on the caller's
// context still wins. A non-positive timeout returns nil, which Wrap skips.
func Timeout(timeout time.Duration) Middleware {
	if timeout <= 0 {
		return nil
	}
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
