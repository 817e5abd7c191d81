// Package server exposes the orchestrator over HTTP with gin.
//
// Routes:
//
//	POST /execute      {"task": "...", "mode": "single|multi|auto"}
//	GET  /history      most recent tasks, ?limit=N
//	GET  /history/:id  one task by id
//	GET  /tools        registered tool specs
//	GET  /metrics      Prometheus exposition
//	GET  /healthz      liveness
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/providers/memory"
	"github.com/leofalp/taskrouter/providers/observability"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	shutdownTimeout     = 10 * time.Second
)

// Server wires HTTP routes to an orchestrator and its history.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	history      memory.Provider
	gatherer     prometheus.Gatherer
	observer     observability.Provider
	engine       *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the /history routes.
func WithHistory(history memory.Provider) Option {
	return func(s *Server) {
		s.history = history
	}
}

// WithGatherer sets what /metrics exposes. Defaults to prometheus.DefaultGatherer.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithObserver sets the provider used for request logs and passed to handlers.
func WithObserver(provider observability.Provider) Option {
	return func(s *Server) {
		s.observer = provider
	}
}

// New builds the gin engine. Call gin.SetMode before New to pick the mode.
func New(orch *orchestrator.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orchestrator: orch,
		gatherer:     prometheus.DefaultGatherer,
		observer:     observability.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())

	engine.POST("/execute", s.execute)
	engine.GET("/history", s.listHistory)
	engine.GET("/history/:id", s.getHistory)
	engine.GET("/tools", s.listTools)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine = engine
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.observer.Info(ctx, "HTTP server listening", observability.String("http.addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.observer.Info(shutdownCtx, "HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// observe attaches the observer to the request context and logs each request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := observability.ContextWithProvider(c.Request.Context(), s.observer)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		s.observer.Debug(ctx, "HTTP request",
			observability.String("http.method", c.Request.Method),
			observability.String("http.path", c.FullPath()),
			observability.Int("http.status", c.Writer.Status()),
			observability.Duration("http.duration", time.Since(start)))
	}
}
