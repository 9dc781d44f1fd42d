// Package benchmark retrieves industry calibration data for a role: dimension
// weights, score distributions and exemplar phrasing.
//
// Retrieval is best effort. Any failure, timeout or low-confidence hit yields
// types.NoBenchmark and the caller falls back to its configured defaults.
package benchmark

import (
	"context"
	"errors"

	"atscore/internal/types"
)

// ErrProfileNotFound is returned by FetchProfile for unknown IDs
var ErrProfileNotFound = errors.New("benchmark profile not found")

// SearchHit is one result of an index search
type SearchHit struct {
	ProfileID  string
	Similarity float64
}

// Index is the read-only similarity-search contract the retriever relies on.
// Search returns hits ordered by descending similarity.
type Index interface {
	Search(ctx context.Context, query string, topK int) ([]SearchHit, error)
	FetchProfile(ctx context.Context, id string) (types.BenchmarkProfile, error)
}
