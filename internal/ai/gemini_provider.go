package ai

import (
	"context"
	"fmt"
	"time"

	"atscore/internal/config"
	atscoreErrors "atscore/internal/errors"
	"atscore/internal/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// GeminiEmbedder implements Embedder with the Gemini embedding API
type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker[[][]float32]
	logger  *atscoreErrors.Logger
}

// Ensure GeminiEmbedder implements Embedder
var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates a Gemini embedding client
func NewGeminiEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *atscoreErrors.Logger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, atscoreErrors.NewConfigError(atscoreErrors.ErrCodeMissingAPIKey,
			"Embedding API key is required (set ATSCORE_EMBEDDING_APIKEY or GEMINI_API_KEY)", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, atscoreErrors.NewAIError(atscoreErrors.ErrCodeEmbeddingFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiEmbedder{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retry:   resilience.DefaultRetryPolicy(cfg.MaxRetries),
		breaker: resilience.NewBreaker[[][]float32]("embedding-"+cfg.Model, cfg.CircuitBreaker, logger),
		logger:  logger,
	}, nil
}

// Model returns the embedding model name
func (g *GeminiEmbedder) Model() string {
	return g.model
}

// Embed returns one vector per text
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("atscore.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.model),
		attribute.Int("ai.texts", len(texts)),
	)

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	vectors, err := g.breaker.Execute(func() ([][]float32, error) {
		v, err := resilience.Retry(ctx, "embed", g.retry, nil, g.logger,
			func(ctx context.Context) ([][]float32, error) {
				callCtx, cancel := context.WithTimeout(ctx, g.timeout)
				defer cancel()

				resp, err := g.client.Models.EmbedContent(callCtx, g.model, contents, nil)
				if err != nil {
					return nil, err
				}
				return embeddingValues(resp, len(texts))
			})
		if err != nil && ctx.Err() != nil {
			return nil, resilience.Abandoned(err)
		}
		return v, err
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, atscoreErrors.NewAIError(atscoreErrors.ErrCodeEmbeddingFailed,
			"Failed to embed skill terms", err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return vectors, nil
}

func embeddingValues(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", got, want)
	}
	out := make([][]float32, want)
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// Stats returns circuit breaker statistics
func (g *GeminiEmbedder) Stats() map[string]any {
	return g.breaker.Stats()
}

// Close releases resources held by the client
func (g *GeminiEmbedder) Close() error {
	return nil
}
