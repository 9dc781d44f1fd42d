// Package app assembles the scoring engine and its collaborators from
// configuration. The CLI, HTTP server and MCP server share one App.
package app

import (
	"context"
	stderrors "errors"
	"fmt"

	"atscore/internal/ai"
	"atscore/internal/benchmark"
	"atscore/internal/config"
	"atscore/internal/engine"
	"atscore/internal/errors"
	"atscore/internal/observability"
)

// App owns everything a front end needs to serve scoring requests
type App struct {
	Config     *config.Config
	Engine     *engine.Engine
	Benchmarks *benchmark.Source
	Semantic   *ai.Service
	Metrics    *observability.Metrics
	Logger     *errors.Logger
}

// New builds the engine from cfg. om may be nil; when set, scoring and
// benchmark fallbacks are recorded on its metrics.
func New(ctx context.Context, cfg *config.Config, om *observability.ObservabilityManager, logger *errors.Logger) (*App, error) {
	semantic, err := ai.NewService(ctx, cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	var (
		source    *benchmark.Source
		retriever *benchmark.Retriever
	)
	if cfg.Benchmark.Enabled {
		source, err = benchmark.OpenSource(ctx, cfg.Benchmark, logger)
		if err != nil {
			_ = semantic.Close()
			return nil, err
		}
		retriever = benchmark.NewRetriever(source.Index, cfg.Benchmark, logger)
	} else {
		logger.Info("Benchmark retrieval disabled, default weights will be used")
	}

	metrics := om.GetMetrics()
	var opts []engine.Option
	if metrics != nil {
		opts = append(opts, engine.WithMetrics(metrics))
		if retriever != nil {
			retriever.OnFallback(metrics.RecordBenchmarkFallback)
		}
	}

	logger.Info("Scoring engine ready",
		"semantic_matching", semantic.Enabled(),
		"benchmark_enabled", retriever.Enabled(),
		"benchmark_source", originOf(source))

	return &App{
		Config:     cfg,
		Engine:     engine.New(cfg.Scoring, semantic.Scorer(), retriever, logger, opts...),
		Benchmarks: source,
		Semantic:   semantic,
		Metrics:    metrics,
		Logger:     logger,
	}, nil
}

// Stats reports engine collaborators for /stats and the CLI
func (a *App) Stats() map[string]any {
	return map[string]any{
		"benchmark": a.Engine.Retriever().Stats(),
		"source":    originOf(a.Benchmarks),
		"semantic":  a.Semantic.Stats(),
	}
}

// Close stops the corpus watcher and releases the embedding service
func (a *App) Close() error {
	return stderrors.Join(a.Benchmarks.Close(), a.Semantic.Close())
}

func originOf(s *benchmark.Source) string {
	if s == nil {
		return "disabled"
	}
	return s.Origin
}
