package ai

import (
	"context"
)

// Embedder turns texts into embedding vectors. The result has one vector per
// input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
	Close() error
}
