// Package engine runs a complete scoring request: skill matching, the four
// dimension scorers in parallel, aggregation, benchmark comparison and
// recommendations.
package engine

import (
	"context"
	"time"

	"atscore/internal/benchmark"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/recommend"
	"atscore/internal/scoring"
	"atscore/internal/skills"
	"atscore/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Metrics receives per-request measurements
type Metrics interface {
	RecordScore(ctx context.Context, report *types.ScoreReport, duration time.Duration)
	RecordScoreError(ctx context.Context, err error)
}

// Engine is safe for concurrent use. Nothing request-specific is stored on it.
type Engine struct {
	matcher    *skills.Matcher
	scorers    []scoring.Scorer
	aggregator *scoring.Aggregator
	generator  *recommend.Generator
	retriever  *benchmark.Retriever
	logger     *errors.Logger
	metrics    Metrics

	now   func() time.Time
	newID func() string
}

// Option customises an Engine
type Option func(*Engine)

// WithMetrics records every scoring run on m
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the result timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the result ID source
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine. semantic and retriever may be nil.
func New(cfg config.ScoringConfig, semantic skills.SemanticScorer, retriever *benchmark.Retriever, logger *errors.Logger, opts ...Option) *Engine {
	matcher := skills.NewMatcher(cfg, semantic, logger)

	e := &Engine{
		matcher: matcher,
		scorers: []scoring.Scorer{
			scoring.NewSkillsScorer(cfg, matcher),
			scoring.NewExperienceScorer(cfg, matcher.Canonicalizer()),
			scoring.NewEducationScorer(cfg),
			scoring.NewFormatScorer(cfg),
		},
		aggregator: scoring.NewAggregator(cfg),
		generator:  recommend.NewGenerator(cfg),
		retriever:  retriever,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retriever returns the benchmark retriever, which may be nil
func (e *Engine) Retriever() *benchmark.Retriever {
	return e.retriever
}

// Canonicalizer returns the canonicalizer used for skill matching
func (e *Engine) Canonicalizer() *skills.Canonicalizer {
	return e.matcher.Canonicalizer()
}

// Score evaluates resume against jd. The only error it returns for valid
// input is the context error, and only when the caller has cancelled.
func (e *Engine) Score(ctx context.Context, resume *types.StructuredResume, jd *types.StructuredJobDescription) (*types.ScoreReport, error) {
	switch {
	case resume == nil:
		return nil, e.fail(ctx, errors.NewInvalidInput("resume is required"))
	case jd == nil:
		return nil, e.fail(ctx, errors.NewInvalidInput("job description is required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, e.fail(ctx, err)
	}

	start := time.Now()
	tracer := otel.Tracer("atscore.engine")
	ctx, span := tracer.Start(ctx, "engine.score")
	defer span.End()

	role := jd.BenchmarkKey()
	session := e.retriever.NewSession() // a nil retriever yields NoBenchmark

	scores := make([]types.DimensionScore, len(e.scorers))
	profiles := make([]types.BenchmarkProfile, len(e.scorers))

	var g errgroup.Group
	for i, s := range e.scorers {
		g.Go(func() error {
			profiles[i] = session.Fetch(ctx, role, s.Dimension())
			scores[i] = s.Score(ctx, resume, jd)
			return nil
		})
	}
	_ = g.Wait() // scorers never fail

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return nil, e.fail(ctx, err)
	}

	benchmarkWeights := make(map[types.Dimension]float64)
	byDimension := make(map[types.Dimension]types.BenchmarkProfile)
	benchmarkUsed := false
	for i, p := range profiles {
		if !p.Found {
			continue
		}
		d := e.scorers[i].Dimension()
		byDimension[d] = p
		if w, ok := p.Weights[d]; ok && w > 0 {
			benchmarkWeights[d] = w
			benchmarkUsed = true
		}
	}

	result := e.aggregator.Aggregate(scores, benchmarkWeights)
	result.ID = e.newID()
	result.Timestamp = e.now().UTC()
	result.BenchmarkUsed = benchmarkUsed

	var matches []types.SkillMatch
	if ds, ok := result.Dimension(types.DimensionSkills); ok {
		matches = ds.Matches
	}

	comparison := benchmark.Compare(session.Profile(ctx, role), result.Overall)

	report := &types.ScoreReport{
		Result:  result,
		Matches: matches,
		Recommendations: e.generator.Generate(recommend.Input{
			Result:   result,
			Matches:  matches,
			Profiles: byDimension,
			Resume:   resume,
			Job:      jd,
		}),
		Comparison: &comparison,
	}

	duration := time.Since(start)
	span.SetAttributes(
		attribute.String("score.id", result.ID),
		attribute.Float64("score.overall", result.Overall),
		attribute.Bool("score.benchmark_used", benchmarkUsed),
		attribute.Int("score.recommendations", len(report.Recommendations)),
	)
	e.logger.Info("Resume scored",
		"id", result.ID,
		"overall", result.Overall,
		"confidence", result.Confidence,
		"benchmark_used", benchmarkUsed,
		"recommendations", len(report.Recommendations),
		"duration_ms", duration.Milliseconds())
	if e.metrics != nil {
		e.metrics.RecordScore(ctx, report, duration)
	}
	return report, nil
}

func (e *Engine) fail(ctx context.Context, err error) error {
	if e.metrics != nil {
		e.metrics.RecordScoreError(ctx, err)
	}
	return err
}

// Match runs the skill matcher on its own
func (e *Engine) Match(ctx context.Context, required, preferred, resume []string) types.MatchReport {
	matches := e.matcher.Match(ctx, required, preferred, resume)
	report := types.MatchReport{Matches: matches, Missing: []string{}}
	for _, m := range matches {
		if m.Requirement.Category == types.CategoryRequired && !m.Matched() {
			report.Missing = append(report.Missing, m.Requirement.Canonical)
		}
	}
	return report
}

// Canonicalize returns the canonical term for each raw skill name
func (e *Engine) Canonicalize(terms []string) types.CanonicalizeOutput {
	c := e.matcher.Canonicalizer()
	out := types.CanonicalizeOutput{Terms: make([]types.SkillTerm, 0, len(terms))}
	for i, raw := range terms {
		out.Terms = append(out.Terms, c.Term(raw, types.SourceResume, "", i))
	}
	return out
}
