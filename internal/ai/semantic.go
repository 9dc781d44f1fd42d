package ai

import (
	"context"
	"math"

	atscoreErrors "atscore/internal/errors"
)

// SemanticMatcher scores skill names by the cosine similarity of their
// embeddings. Vectors are cached per model and text.
type SemanticMatcher struct {
	embedder Embedder
	cache    *EmbeddingCache
	logger   *atscoreErrors.Logger
}

// NewSemanticMatcher creates a matcher over embedder. cache may be nil.
func NewSemanticMatcher(embedder Embedder, cache *EmbeddingCache, logger *atscoreErrors.Logger) *SemanticMatcher {
	return &SemanticMatcher{embedder: embedder, cache: cache, logger: logger}
}

// Similarity returns the cosine similarity of a and b clamped to [0,1]
func (s *SemanticMatcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	if a == b {
		return 1, nil
	}
	vectors, err := s.vectors(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return max(0, Cosine(vectors[0], vectors[1])), nil
}

// vectors resolves texts through the cache and embeds only the misses, in a
// single request
func (s *SemanticMatcher) vectors(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missing []string
	var missingIdx []int
	for i, t := range texts {
		keys[i] = CacheKey(s.embedder.Model(), t)
		if v, ok := s.cache.Get(ctx, keys[i]); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	embedded, err := s.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, i := range missingIdx {
		out[i] = embedded[j]
		s.cache.Set(ctx, keys[i], embedded[j])
	}
	s.logger.Debug("Embedded skill terms", "count", len(missing), "model", s.embedder.Model())
	return out, nil
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty, zero or the lengths differ
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
