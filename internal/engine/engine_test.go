package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"atscore/internal/benchmark"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func months(n int) *int { return &n }

func dataAnalystJob() *types.StructuredJobDescription {
	return &types.StructuredJobDescription{
		Title:               "Data Analyst",
		RequiredSkills:      []string{"python", "sql"},
		MinExperienceMonths: 24,
		RequiredEducation:   types.EducationBachelor,
	}
}

func strongResume() *types.StructuredResume {
	parse := 0.95
	return &types.StructuredResume{
		Contact:    types.ContactInfo{Name: "Ada Byron", Email: "ada@example.com", Phone: "+44 20 7946 0000"},
		Skills:     []string{"Python", "SQL", "Excel"},
		Experience: []types.ExperienceEntry{{Title: "Data Analyst", DurationMonths: months(36), Description: "SQL and Python reporting"}},
		Education:  []types.EducationEntry{{Degree: "Master of Science", Field: "Statistics"}},
		Summary:    "Analyst with three years of experience.",
		Format: types.FormatSignals{
			Sections: map[string]bool{
				types.SectionContact: true, types.SectionSummary: true, types.SectionExperience: true,
				types.SectionEducation: true, types.SectionSkills: true,
			},
			WordCount:       480,
			PageCount:       1,
			ParseConfidence: &parse,
		},
	}
}

func weakResume() *types.StructuredResume {
	return &types.StructuredResume{
		Skills:     []string{"excel"},
		Experience: []types.ExperienceEntry{{Title: "Office Assistant", DurationMonths: months(6)}},
	}
}

func benchmarkConfig() config.BenchmarkConfig {
	return config.BenchmarkConfig{Enabled: true, Timeout: time.Second, TopK: 3, MinConfidence: 0.2}
}

func newEngine(t *testing.T, index benchmark.Index, opts ...Option) *Engine {
	t.Helper()
	logger := errors.NewNopLogger()
	var retriever *benchmark.Retriever
	if index != nil {
		retriever = benchmark.NewRetriever(index, benchmarkConfig(), logger)
	}
	return New(config.DefaultScoringConfig(), nil, retriever, logger, opts...)
}

func dimension(t *testing.T, r types.ATSScoreResult, d types.Dimension) types.DimensionScore {
	t.Helper()
	ds, ok := r.Dimension(d)
	require.True(t, ok, "dimension %s", d)
	return ds
}

func TestScoreStrongCandidate(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))

	report, err := e.Score(context.Background(), strongResume(), dataAnalystJob())
	require.NoError(t, err)
	r := report.Result

	assert.Equal(t, 100.0, dimension(t, r, types.DimensionSkills).Score)
	assert.Equal(t, 100.0, dimension(t, r, types.DimensionExperience).Score)
	assert.Equal(t, 100.0, dimension(t, r, types.DimensionEducation).Score)
	assert.InDelta(t, 100, r.Overall, 0.5)
	assert.True(t, r.BenchmarkUsed)
	assert.InDelta(t, 0.45, r.Weights[types.DimensionSkills], 1e-9)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.Timestamp.IsZero())

	for _, rec := range report.Recommendations {
		assert.NotEqual(t, types.DimensionSkills, rec.Dimension)
	}
	require.NotNil(t, report.Comparison)
	assert.Equal(t, "technology", report.Comparison.Industry)
	assert.Equal(t, benchmark.StandingTop, report.Comparison.Standing)
}

func TestScoreWeakCandidate(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))

	report, err := e.Score(context.Background(), weakResume(), dataAnalystJob())
	require.NoError(t, err)
	r := report.Result

	skills := dimension(t, r, types.DimensionSkills)
	assert.Less(t, skills.Score, 50.0)
	require.Len(t, report.Matches, 2)
	for _, m := range report.Matches {
		assert.Equal(t, types.MatchMissing, m.Kind)
	}
	assert.Less(t, dimension(t, r, types.DimensionExperience).Score, 30.0)
	assert.Zero(t, dimension(t, r, types.DimensionEducation).Score)

	require.GreaterOrEqual(t, len(report.Recommendations), 2)
	top := []string{report.Recommendations[0].Skill, report.Recommendations[1].Skill}
	assert.ElementsMatch(t, []string{"python", "sql"}, top)
	assert.True(t, report.Recommendations[0].Enriched)
}

// blockingIndex never answers until released
type blockingIndex struct {
	release chan struct{}
}

func (b *blockingIndex) Search(ctx context.Context, query string, topK int) ([]benchmark.SearchHit, error) {
	<-b.release
	return nil, nil
}

func (b *blockingIndex) FetchProfile(ctx context.Context, id string) (types.BenchmarkProfile, error) {
	<-b.release
	return types.NoBenchmark, benchmark.ErrProfileNotFound
}

func TestScoreWhenRetrieverTimesOut(t *testing.T) {
	index := &blockingIndex{release: make(chan struct{})}
	t.Cleanup(func() { close(index.release) })

	logger := errors.NewNopLogger()
	cfg := benchmarkConfig()
	cfg.Timeout = 20 * time.Millisecond
	e := New(config.DefaultScoringConfig(), nil, benchmark.NewRetriever(index, cfg, logger), logger)

	start := time.Now()
	report, err := e.Score(context.Background(), strongResume(), dataAnalystJob())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, report.Result.BenchmarkUsed)
	defaults := config.DefaultScoringConfig().Weights
	for _, d := range types.Dimensions {
		assert.InDelta(t, defaults.Get(d), report.Result.Weights[d], 1e-9)
	}
	assert.Equal(t, "general", report.Comparison.Industry)
}

func TestScoreWithoutRetriever(t *testing.T) {
	e := newEngine(t, nil)
	report, err := e.Score(context.Background(), strongResume(), dataAnalystJob())
	require.NoError(t, err)
	assert.False(t, report.Result.BenchmarkUsed)
	assert.InDelta(t, 0.40, report.Result.Weights[types.DimensionSkills], 1e-9)
}

func TestScoreRejectsNilInput(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.Score(context.Background(), nil, dataAnalystJob())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = e.Score(context.Background(), strongResume(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestScoreToleratesEmptyInput(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))
	report, err := e.Score(context.Background(), &types.StructuredResume{}, &types.StructuredJobDescription{})
	require.NoError(t, err)

	r := report.Result
	assert.GreaterOrEqual(t, r.Overall, 0.0)
	assert.LessOrEqual(t, r.Overall, 100.0)
	assert.LessOrEqual(t, r.Interval.Lower, r.Overall)
	assert.GreaterOrEqual(t, r.Interval.Upper, r.Overall)
	assert.Len(t, r.Dimensions, 4)
	assert.False(t, r.BenchmarkUsed)
}

func TestScoreDegradesOnUnrecognisedEducation(t *testing.T) {
	var resume types.StructuredResume
	require.NoError(t, json.Unmarshal([]byte(`{"skills":["Python","SQL"],"education":[{"level":"Some College"}]}`), &resume))
	var jd types.StructuredJobDescription
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Data Analyst","requiredSkills":["python","sql"],"requiredEducation":"Any degree"}`), &jd))

	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))
	report, err := e.Score(context.Background(), &resume, &jd)
	require.NoError(t, err)

	edu, ok := report.Result.Dimension(types.DimensionEducation)
	require.True(t, ok)
	assert.InDelta(t, 0.4, edu.Confidence, 1e-9)
	assert.Equal(t, "Any degree", edu.Evidence[0].Expected)
	assert.GreaterOrEqual(t, report.Result.Interval.Lower, 0.0)
	assert.LessOrEqual(t, report.Result.Interval.Upper, 100.0)
}

func TestScoreCancelledByCaller(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Score(ctx, strongResume(), dataAnalystJob())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.IsInvalidInput(err))
}

func TestScoreIsDeterministic(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()),
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "fixed-id" }),
	)

	first, err := e.Score(context.Background(), weakResume(), dataAnalystJob())
	require.NoError(t, err)
	for range 5 {
		again, err := e.Score(context.Background(), weakResume(), dataAnalystJob())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScoreDoesNotMutateInputs(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))
	resume, jd := strongResume(), dataAnalystJob()
	jd.PreferredSkills = []string{"Tableau"}

	resumeCopy, jdCopy := strongResume(), dataAnalystJob()
	jdCopy.PreferredSkills = []string{"Tableau"}

	_, err := e.Score(context.Background(), resume, jd)
	require.NoError(t, err)
	assert.Equal(t, resumeCopy, resume)
	assert.Equal(t, jdCopy, jd)
}

func TestScoreConcurrentRequests(t *testing.T) {
	e := newEngine(t, benchmark.NewMemoryIndex(benchmark.DefaultProfiles()))
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resume := strongResume()
			if i%2 == 0 {
				resume = weakResume()
			}
			report, err := e.Score(context.Background(), resume, dataAnalystJob())
			assert.NoError(t, err)
			assert.Len(t, report.Result.Dimensions, 4)
		}()
	}
	wg.Wait()
}

type recordingMetrics struct {
	mu     sync.Mutex
	scores int
	errs   int
}

func (m *recordingMetrics) RecordScore(context.Context, *types.ScoreReport, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores++
}

func (m *recordingMetrics) RecordScoreError(context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs++
}

func TestScoreRecordsMetrics(t *testing.T) {
	metrics := &recordingMetrics{}
	e := newEngine(t, nil, WithMetrics(metrics))

	_, err := e.Score(context.Background(), strongResume(), dataAnalystJob())
	require.NoError(t, err)
	_, err = e.Score(context.Background(), nil, nil)
	require.Error(t, err)

	assert.Equal(t, 1, metrics.scores)
	assert.Equal(t, 1, metrics.errs)
}

func TestMatch(t *testing.T) {
	e := newEngine(t, nil)
	report := e.Match(context.Background(), []string{"JavaScript", "Go", "Rust"}, []string{"Docker"}, []string{"JS", "golang", "docker"})

	require.Len(t, report.Matches, 4)
	assert.Equal(t, types.MatchAlias, report.Matches[0].Kind)
	assert.Equal(t, []string{"rust"}, report.Missing)
	assert.Equal(t, types.CategoryPreferred, report.Matches[3].Requirement.Category)
}

func TestCanonicalize(t *testing.T) {
	e := newEngine(t, nil)
	out := e.Canonicalize([]string{"K8s", "Python Programming"})
	require.Len(t, out.Terms, 2)
	assert.Equal(t, "kubernetes", out.Terms[0].Canonical)
	assert.Equal(t, "python", out.Terms[1].Canonical)
}

func BenchmarkScore(b *testing.B) {
	logger := errors.NewNopLogger()
	retriever := benchmark.NewRetriever(benchmark.NewMemoryIndex(benchmark.DefaultProfiles()), benchmarkConfig(), logger)
	e := New(config.DefaultScoringConfig(), nil, retriever, logger)
	resume, jd := strongResume(), dataAnalystJob()
	ctx := context.Background()

	for b.Loop() {
		_, _ = e.Score(ctx, resume, jd)
	}
}
