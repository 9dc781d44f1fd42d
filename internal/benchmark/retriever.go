package benchmark

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/resilience"
	"atscore/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Fallback reasons reported to the fallback hook and in logs
const (
	ReasonDisabled      = "disabled"
	ReasonNoKey         = "no_lookup_key"
	ReasonNoMatch       = "no_match"
	ReasonLowConfidence = "low_confidence"
	ReasonTimeout       = "timeout"
	ReasonCancelled     = "cancelled"
	ReasonCircuitOpen   = "circuit_open"
	ReasonError         = "error"
)

// Retriever looks up the best benchmark profile for a role. It never returns
// an error: every failure degrades to types.NoBenchmark.
type Retriever struct {
	index         Index
	enabled       bool
	timeout       time.Duration
	topK          int
	minConfidence float64
	breaker       *resilience.Breaker[types.BenchmarkProfile]
	logger        *errors.Logger

	lookups   atomic.Int64
	hits      atomic.Int64
	fallbacks atomic.Int64

	onFallback func(ctx context.Context, reason string)
}

// NewRetriever creates a retriever over index. A nil index or a disabled
// config makes every lookup fall back.
func NewRetriever(index Index, cfg config.BenchmarkConfig, logger *errors.Logger) *Retriever {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Retriever{
		index:         index,
		enabled:       cfg.Enabled && index != nil,
		timeout:       timeout,
		topK:          max(cfg.TopK, 1),
		minConfidence: cfg.MinConfidence,
		breaker:       resilience.NewBreaker[types.BenchmarkProfile]("benchmark-index", cfg.CircuitBreaker, logger),
		logger:        logger,
	}
}

// OnFallback registers fn to be called on every fallback. It must be set
// before the retriever is shared.
func (r *Retriever) OnFallback(fn func(ctx context.Context, reason string)) {
	r.onFallback = fn
}

// Enabled reports whether lookups reach the index
func (r *Retriever) Enabled() bool {
	return r != nil && r.enabled
}

// Lookup returns the best matching profile for role, or NoBenchmark
func (r *Retriever) Lookup(ctx context.Context, role string) types.BenchmarkProfile {
	if r == nil {
		return types.NoBenchmark
	}
	r.lookups.Add(1)

	role = strings.TrimSpace(role)
	switch {
	case !r.enabled:
		return r.fallback(ctx, role, ReasonDisabled, nil)
	case role == "":
		return r.fallback(ctx, role, ReasonNoKey, nil)
	}

	tracer := otel.Tracer("atscore.benchmark")
	ctx, span := tracer.Start(ctx, "benchmark.lookup")
	defer span.End()
	span.SetAttributes(attribute.String("benchmark.role", role))

	if ctx.Err() != nil {
		return r.fallback(ctx, role, ReasonCancelled, ctx.Err())
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	profile, err := r.breaker.Execute(func() (types.BenchmarkProfile, error) {
		p, err := r.best(lookupCtx, role)
		if err != nil && ctx.Err() != nil {
			return p, resilience.Abandoned(err)
		}
		return p, err
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("benchmark.found", false))
		return r.fallback(ctx, role, reasonFor(ctx, err), err)
	}
	if !profile.Found {
		span.SetAttributes(attribute.Bool("benchmark.found", false))
		return r.fallback(ctx, role, ReasonNoMatch, nil)
	}
	span.SetAttributes(
		attribute.Bool("benchmark.found", true),
		attribute.String("benchmark.profile", profile.ID),
		attribute.Float64("benchmark.confidence", profile.Confidence),
	)
	if profile.Confidence < r.minConfidence {
		return r.fallback(ctx, role, ReasonLowConfidence, nil)
	}

	r.hits.Add(1)
	r.logger.Debug("Benchmark profile retrieved",
		"role", role,
		"profile_id", profile.ID,
		"confidence", profile.Confidence)
	return profile
}

// best runs the search off the calling goroutine so a slow index cannot hold
// the caller past the deadline
func (r *Retriever) best(ctx context.Context, role string) (types.BenchmarkProfile, error) {
	type result struct {
		profile types.BenchmarkProfile
		err     error
	}
	done := make(chan result, 1)

	go func() {
		hits, err := r.index.Search(ctx, role, r.topK)
		if err != nil {
			done <- result{err: fmt.Errorf("benchmark search failed: %w", err)}
			return
		}
		if len(hits) == 0 {
			done <- result{profile: types.NoBenchmark}
			return
		}
		p, err := r.index.FetchProfile(ctx, hits[0].ProfileID)
		if err != nil {
			done <- result{err: fmt.Errorf("benchmark profile fetch failed: %w", err)}
			return
		}
		p.Found = true
		p.Confidence = min(max(hits[0].Similarity, 0), 1)
		done <- result{profile: p}
	}()

	select {
	case res := <-done:
		return res.profile, res.err
	case <-ctx.Done():
		return types.NoBenchmark, ctx.Err()
	}
}

func reasonFor(parent context.Context, err error) string {
	switch {
	case parent.Err() != nil:
		return ReasonCancelled
	case resilience.IsOpen(err):
		return ReasonCircuitOpen
	case stderrors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	}
	return ReasonError
}

func (r *Retriever) fallback(ctx context.Context, role, reason string, err error) types.BenchmarkProfile {
	r.fallbacks.Add(1)
	switch reason {
	case ReasonDisabled, ReasonNoKey, ReasonCancelled:
		r.logger.Debug("Benchmark lookup skipped", "role", role, "reason", reason)
	case ReasonTimeout, ReasonCircuitOpen, ReasonError:
		args := []any{"role", role, "reason", reason}
		if err != nil {
			args = append(args, "error", err.Error())
		}
		r.logger.Warn("Benchmark unavailable, using default weights (degraded mode)", args...)
	default:
		r.logger.Info("No usable benchmark, using default weights", "role", role, "reason", reason)
	}
	if r.onFallback != nil {
		r.onFallback(ctx, reason)
	}
	return types.NoBenchmark
}

// Search queries the index directly and resolves each hit to its profile
// summary. Unlike Lookup it reports errors.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]types.BenchmarkSearchResult, error) {
	if r == nil || r.index == nil {
		return nil, fmt.Errorf("benchmark index is not configured")
	}
	if topK <= 0 {
		topK = r.topK
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hits, err := r.index.Search(ctx, query, topK)
	if err != nil {
		return nil, indexError("Benchmark search failed", err)
	}
	results := make([]types.BenchmarkSearchResult, 0, len(hits))
	for _, h := range hits {
		p, err := r.index.FetchProfile(ctx, h.ProfileID)
		if err != nil {
			return nil, indexError("Benchmark profile fetch failed", err).WithContext("profile_id", h.ProfileID)
		}
		results = append(results, types.BenchmarkSearchResult{
			ProfileID:    h.ProfileID,
			RoleCategory: p.RoleCategory,
			Industry:     p.Industry,
			Similarity:   h.Similarity,
		})
	}
	return results, nil
}

// indexError classifies a failed index call as a network error
func indexError(message string, err error) *errors.AppError {
	code := errors.ErrCodeBenchmarkDown
	if stderrors.Is(err, context.DeadlineExceeded) {
		code = errors.ErrCodeNetworkTimeout
	}
	return errors.NewNetworkError(code, message, err)
}

// Healthy reports whether lookups can reach the index. A tripped breaker
// means every lookup currently falls back.
func (r *Retriever) Healthy() bool {
	return r == nil || r.breaker.IsHealthy()
}

// Stats returns lookup counters and breaker state
func (r *Retriever) Stats() map[string]any {
	if r == nil {
		return map[string]any{"enabled": false}
	}
	stats := map[string]any{
		"enabled":         r.enabled,
		"lookups":         r.lookups.Load(),
		"hits":            r.hits.Load(),
		"fallbacks":       r.fallbacks.Load(),
		"timeout":         r.timeout.String(),
		"circuit_breaker": r.breaker.Stats(),
	}
	if sized, ok := r.index.(interface{ Len() int }); ok {
		stats["profiles"] = sized.Len()
	}
	return stats
}

// NewSession returns a lookup memo for one scoring request
func (r *Retriever) NewSession() *Session {
	return &Session{retriever: r, entries: make(map[string]*sessionEntry)}
}

// Session memoizes lookups for a single scoring request. Concurrent fetches
// for the same role share one lookup.
type Session struct {
	retriever *Retriever
	mu        sync.Mutex
	entries   map[string]*sessionEntry
}

type sessionEntry struct {
	done    chan struct{}
	profile types.BenchmarkProfile
}

// Profile returns the full profile for role
func (s *Session) Profile(ctx context.Context, role string) types.BenchmarkProfile {
	key := strings.ToLower(strings.TrimSpace(role))

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &sessionEntry{done: make(chan struct{})}
		s.entries[key] = e
		s.mu.Unlock()

		e.profile = s.retriever.Lookup(ctx, role)
		close(e.done)
		return e.profile
	}
	s.mu.Unlock()

	select {
	case <-e.done:
		return e.profile
	case <-ctx.Done():
		return types.NoBenchmark
	}
}

// Fetch returns the part of the role's profile relevant to dim
func (s *Session) Fetch(ctx context.Context, role string, dim types.Dimension) types.BenchmarkProfile {
	return Partial(s.Profile(ctx, role), dim)
}

// Partial narrows p to a single dimension. The result shares no maps with p.
func Partial(p types.BenchmarkProfile, dim types.Dimension) types.BenchmarkProfile {
	if !p.Found {
		return types.NoBenchmark
	}
	out := types.BenchmarkProfile{
		ID:           p.ID,
		RoleCategory: p.RoleCategory,
		Industry:     p.Industry,
		AverageScore: p.AverageScore,
		TopScore:     p.TopScore,
		Confidence:   p.Confidence,
		Found:        true,
	}
	if w, ok := p.Weights[dim]; ok {
		out.Weights = map[types.Dimension]float64{dim: w}
	}
	if d, ok := p.Distributions[dim]; ok {
		out.Distributions = map[types.Dimension]types.Distribution{dim: d}
	}
	if ex := p.Exemplars[dim]; len(ex) > 0 {
		out.Exemplars = map[types.Dimension][]string{dim: append([]string(nil), ex...)}
	}
	return out
}
