package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/internal/config"
	"github.com/leofalp/taskrouter/providers/ai/middleware"
	"github.com/leofalp/taskrouter/providers/ai/openai"
	"github.com/leofalp/taskrouter/providers/memory/inmemory"
	"github.com/leofalp/taskrouter/providers/observability"
	"github.com/leofalp/taskrouter/providers/observability/promobs"
	"github.com/leofalp/taskrouter/providers/observability/slogobs"
	"github.com/leofalp/taskrouter/providers/tool"
	"github.com/leofalp/taskrouter/providers/tool/calculator"
	"github.com/leofalp/taskrouter/providers/tool/duckduckgo"
	"github.com/leofalp/taskrouter/providers/tool/echo"
	"github.com/leofalp/taskrouter/providers/tool/webfetch"
)

// app holds everything a command needs, built once from the configuration.
type app struct {
	cfg          *config.Config
	observer     observability.Provider
	metrics      *prometheus.Registry
	registry     *tool.Registry
	history      *inmemory.History
	orchestrator *orchestrator.Orchestrator
	debug        bool
}

func (a *app) verbose() bool { return a.debug }

// newApp wires the tools, observability and orchestrator described by cfg.
// Logs go to logOutput; verbose forces debug level.
func newApp(cfg *config.Config, logOutput io.Writer, verbose bool) (*app, error) {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	logs := slogobs.New(
		slogobs.WithLevel(level),
		slogobs.WithFormat(cfg.LogFormat()),
		slogobs.WithOutput(logOutput),
	)

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := promobs.New(metricsRegistry)
	if err != nil {
		return nil, err
	}
	observer := observability.Combine(logs, metrics, logs)

	registry := tool.NewRegistry(tool.WithTimeout(cfg.Tools.Timeout), tool.WithObserver(observer))
	registry.MustRegister(calculator.New(), echo.New())
	if cfg.Tools.EnableNetwork {
		var searchOpts []duckduckgo.Option
		if cfg.Tools.SearchURL != "" {
			searchOpts = append(searchOpts, duckduckgo.WithEndpoint(cfg.Tools.SearchURL))
		}
		registry.MustRegister(duckduckgo.New(searchOpts...), webfetch.New())
	}

	history := inmemory.New(cfg.History.Capacity)
	opts := []orchestrator.Option{
		orchestrator.WithHistory(history),
		orchestrator.WithObserver(observer),
		orchestrator.WithComplexityThreshold(cfg.Orchestrator.ComplexityThreshold),
		orchestrator.WithDefaultMode(cfg.Mode()),
		orchestrator.WithMaxSteps(cfg.Orchestrator.MaxSteps),
	}
	if cfg.LLMEnabled() {
		logLevel := middleware.LogLevelStandard
		if verbose {
			logLevel = middleware.LogLevelVerbose
		}
		provider := middleware.Wrap(
			openai.New().
				WithAPIKey(cfg.LLM.APIKey).
				WithBaseURL(cfg.LLM.BaseURL).
				WithModel(cfg.LLM.Model),
			middleware.Logging(observer, logLevel),
			middleware.Timeout(cfg.LLM.Timeout),
		)
		opts = append(opts, orchestrator.WithCompleter(provider, cfg.LLM.Model))
		if cfg.Orchestrator.Planner == "llm" {
			opts = append(opts, orchestrator.WithPlanner(orchestrator.NewLLMPlanner(provider, cfg.LLM.Model)))
		}
	} else if cfg.Orchestrator.Planner == "llm" {
		logs.Warn(context.Background(), "LLM planner requested without llm.api_key, using keyword planner")
	}

	return &app{
		cfg:          cfg,
		observer:     observer,
		metrics:      metricsRegistry,
		registry:     registry,
		history:      history,
		orchestrator: orchestrator.New(registry, opts...),
		debug:        verbose,
	}, nil
}
