package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"atscore/internal/config"
	atscoreErrors "atscore/internal/errors"
	"atscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for atscore. A nil *Metrics records nothing.
type Metrics struct {
	// Scoring metrics
	ScoringDuration metric.Float64Histogram
	ScoresTotal     metric.Int64Counter
	ScoreErrors     metric.Int64Counter
	OverallScore    metric.Float64Histogram
	DimensionScore  metric.Float64Histogram

	// Benchmark retrieval metrics
	BenchmarkFallbacks metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter

	settings config.CustomMetricsConfig
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter, settings config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}
	var err error

	if m.ScoringDuration, err = meter.Float64Histogram(
		"atscore_scoring_duration_seconds",
		metric.WithDescription("Time spent scoring one resume"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create scoring duration metric: %w", err)
	}

	if m.ScoresTotal, err = meter.Int64Counter(
		"atscore_scores_total",
		metric.WithDescription("Total number of completed scoring runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create scores total metric: %w", err)
	}

	if m.ScoreErrors, err = meter.Int64Counter(
		"atscore_score_errors_total",
		metric.WithDescription("Total number of scoring runs that returned an error"),
	); err != nil {
		return nil, fmt.Errorf("failed to create score errors metric: %w", err)
	}

	if m.OverallScore, err = meter.Float64Histogram(
		"atscore_overall_score",
		metric.WithDescription("Distribution of overall ATS scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create overall score metric: %w", err)
	}

	if m.DimensionScore, err = meter.Float64Histogram(
		"atscore_dimension_score",
		metric.WithDescription("Distribution of per-dimension scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create dimension score metric: %w", err)
	}

	if m.BenchmarkFallbacks, err = meter.Int64Counter(
		"atscore_benchmark_fallbacks_total",
		metric.WithDescription("Total number of benchmark lookups that degraded to default weights"),
	); err != nil {
		return nil, fmt.Errorf("failed to create benchmark fallbacks metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"atscore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordScore records a completed scoring run
func (m *Metrics) RecordScore(ctx context.Context, report *types.ScoreReport, duration time.Duration) {
	if m == nil || report == nil || !m.settings.Scoring.Enabled {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("benchmark_used", report.Result.BenchmarkUsed))

	if m.settings.Scoring.TrackSuccessRates {
		m.ScoresTotal.Add(ctx, 1, attrs)
	}
	if m.settings.Scoring.TrackDuration {
		m.ScoringDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if m.settings.Scoring.TrackScores {
		m.OverallScore.Record(ctx, report.Result.Overall, attrs)
		for _, ds := range report.Result.Dimensions {
			m.DimensionScore.Record(ctx, ds.Score, metric.WithAttributes(attribute.String("dimension", string(ds.Dimension))))
		}
	}
}

// RecordScoreError records a scoring run that failed
func (m *Metrics) RecordScoreError(ctx context.Context, err error) {
	if m == nil || err == nil || !m.settings.Scoring.Enabled || !m.settings.Scoring.TrackSuccessRates {
		return
	}
	// the caller's context may already be cancelled; the counter must still record
	m.ScoreErrors.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("reason", errorReason(err))))
}

// RecordBenchmarkFallback records a benchmark lookup that returned no profile.
// Its signature matches benchmark.Retriever.OnFallback.
func (m *Metrics) RecordBenchmarkFallback(ctx context.Context, reason string) {
	if m == nil || !m.settings.Benchmark.Enabled || !m.settings.Benchmark.TrackFallbacks {
		return
	}
	m.BenchmarkFallbacks.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRateLimitHit records a request rejected by the rate limiter
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	if m == nil || !m.settings.Infrastructure.Enabled || !m.settings.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

func errorReason(err error) string {
	switch {
	case stderrors.Is(err, context.Canceled):
		return "cancelled"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	}
	var appErr *atscoreErrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "internal"
}
