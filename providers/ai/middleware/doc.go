// Package middleware decorates an [ai.Provider] with cross-cutting behaviour.
//
// A [Middleware] wraps the next [SendFunc] in the chain. [Wrap] applies a
// list of middlewares outermost-first and returns a value that still
// satisfies ai.Provider, so the orchestrator and the LLM planner use a
// wrapped provider exactly like a bare one:
//
//	provider := middleware.Wrap(openai.New(),
//	    middleware.Logging(observer, middleware.LogLevelStandard),
//	    middleware.Timeout(20*time.Second),
//	)
//
// Logging comes first so the duration it records includes time spent
// waiting on the deadline.
package middleware
