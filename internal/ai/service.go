package ai

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/skills"
)

// Service owns the embedding provider and cache behind semantic skill matching
type Service struct {
	embedder Embedder
	cache    *EmbeddingCache
	matcher  *SemanticMatcher
	logger   *errors.Logger
}

// NewService creates the semantic matching service. When no embedding provider
// is configured it returns a disabled service whose Scorer is nil.
func NewService(ctx context.Context, cfg config.EmbeddingConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing embedding service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout.String(),
		"max_retries", cfg.MaxRetries,
		"redis_cache", cfg.Cache.RedisURL != "")

	var embedder Embedder
	switch cfg.Provider {
	case "":
		logger.Info("No embedding provider configured, semantic skill matching disabled")
		return &Service{logger: logger}, nil
	case "gemini":
		gemini, err := NewGeminiEmbedder(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		embedder = gemini
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported embedding provider: %s", cfg.Provider), nil)
	}

	return NewServiceWithEmbedder(ctx, embedder, cfg.Cache, logger), nil
}

// NewServiceWithEmbedder wires a service around an existing embedder
func NewServiceWithEmbedder(ctx context.Context, embedder Embedder, cacheCfg config.EmbeddingCacheConfig, logger *errors.Logger) *Service {
	cache := NewEmbeddingCache(ctx, cacheCfg, logger)
	return &Service{
		embedder: embedder,
		cache:    cache,
		matcher:  NewSemanticMatcher(embedder, cache, logger),
		logger:   logger,
	}
}

// Enabled reports whether semantic matching is available
func (s *Service) Enabled() bool {
	return s != nil && s.matcher != nil
}

// Scorer returns the semantic scorer for the skill matcher, or nil when
// semantic matching is disabled
func (s *Service) Scorer() skills.SemanticScorer {
	if !s.Enabled() {
		return nil
	}
	return s.matcher
}

// Stats returns provider and cache statistics
func (s *Service) Stats() map[string]any {
	if !s.Enabled() {
		return map[string]any{"enabled": false}
	}
	stats := map[string]any{
		"enabled": true,
		"model":   s.embedder.Model(),
		"cache":   s.cache.Stats(),
	}
	if g, ok := s.embedder.(*GeminiEmbedder); ok {
		stats["circuit_breaker"] = g.Stats()
	}
	return stats
}

// Close releases the embedder and cache
func (s *Service) Close() error {
	if !s.Enabled() {
		return nil
	}
	cacheErr := s.cache.Close()
	if err := s.embedder.Close(); err != nil {
		return err
	}
	return cacheErr
}
