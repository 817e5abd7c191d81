package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/leofalp/taskrouter/internal/server"
)

func serve(ctx context.Context, a *app, addr string) error {
	if a.cfg.Server.Mode != "" {
		gin.SetMode(a.cfg.Server.Mode)
	}
	srv := server.New(a.orchestrator,
		server.WithHistory(a.history),
		server.WithGatherer(a.metrics),
		server.WithObserver(a.observer),
	)
	return srv.ListenAndServe(ctx, addr)
}
