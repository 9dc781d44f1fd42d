package benchmark

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.BenchmarkConfig {
	return config.BenchmarkConfig{
		Enabled:       true,
		Timeout:       time.Second,
		TopK:          3,
		MinConfidence: 0.2,
	}
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()
	require.Len(t, profiles, 5)

	for _, p := range profiles {
		t.Run(p.ID, func(t *testing.T) {
			sum := 0.0
			for _, w := range p.Weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
			for _, d := range types.Dimensions {
				assert.NotEmpty(t, p.Exemplars[d], "exemplars for %s", d)
				assert.Contains(t, p.Distributions, d)
			}
			assert.Less(t, p.AverageScore, p.TopScore)
			assert.False(t, p.Found)
		})
	}
}

func TestMemoryIndexSearch(t *testing.T) {
	idx := NewMemoryIndex(DefaultProfiles())
	ctx := context.Background()

	tests := []struct {
		query   string
		wantID  string
		wantSim float64
	}{
		{"Data Analyst", "technology-data", 1},
		{"Senior Software Engineer", "technology-software", 1},
		{"Registered Nurse", "healthcare-clinical", 0.5},
		{"Marketing Manager", "general", 1},
		{"Tax Accountant", "finance-analysis", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits, err := idx.Search(ctx, tt.query, 3)
			require.NoError(t, err)
			require.NotEmpty(t, hits)
			assert.Equal(t, tt.wantID, hits[0].ProfileID)
			assert.InDelta(t, tt.wantSim, hits[0].Similarity, 1e-9)
			for i := 1; i < len(hits); i++ {
				assert.LessOrEqual(t, hits[i].Similarity, hits[i-1].Similarity)
			}
		})
	}

	t.Run("no overlap", func(t *testing.T) {
		hits, err := idx.Search(ctx, "underwater basket weaving", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("stop words only", func(t *testing.T) {
		hits, err := idx.Search(ctx, "Senior and Lead", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Search(cctx, "data analyst", 3)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemoryIndexFetchAndReplace(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(DefaultProfiles())

	p, err := idx.FetchProfile(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, "general professional", p.RoleCategory)

	_, err = idx.FetchProfile(ctx, "nope")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	idx.Replace([]types.BenchmarkProfile{{ID: "welding", RoleCategory: "welding fabrication"}})
	assert.Equal(t, 1, idx.Len())
	hits, err := idx.Search(ctx, "Welder fabrication", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "welding", hits[0].ProfileID)
}

func TestParseCorpusValidation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not json", `{`, "failed to decode"},
		{"no profiles", `{"profiles": []}`, "no profiles"},
		{"missing id", `{"profiles": [{"roleCategory": "x"}]}`, "id is required"},
		{"missing role", `{"profiles": [{"id": "x"}]}`, "roleCategory is required"},
		{"duplicate id", `{"profiles": [{"id": "x", "roleCategory": "a"}, {"id": "x", "roleCategory": "b"}]}`, "duplicate profile id"},
		{"negative weight", `{"profiles": [{"id": "x", "roleCategory": "a", "weights": {"skills": -1}}]}`, "must not be negative"},
		{"unknown dimension", `{"profiles": [{"id": "x", "roleCategory": "a", "weights": {"charisma": 1}}]}`, "unknown dimension"},
		{"average above top", `{"profiles": [{"id": "x", "roleCategory": "a", "averageScore": 90, "topScore": 80}]}`, "average <= top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCorpus([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("found and confidence are reset", func(t *testing.T) {
		c, err := ParseCorpus([]byte(`{"profiles": [{"id": "x", "roleCategory": "a", "found": true, "confidence": 0.9}]}`))
		require.NoError(t, err)
		assert.False(t, c.Profiles[0].Found)
		assert.Zero(t, c.Profiles[0].Confidence)
	})
}

func writeCorpus(t *testing.T, path string, profiles ...types.BenchmarkProfile) {
	t.Helper()
	data, err := json.Marshal(Corpus{Profiles: profiles})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestLoadCorpusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	writeCorpus(t, path, types.BenchmarkProfile{ID: "legal", RoleCategory: "legal counsel", Industry: "legal"})

	profiles, err := LoadCorpusFile(path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "legal", profiles[0].ID)

	_, err = LoadCorpusFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read benchmark corpus")
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE benchmark_profiles (id TEXT PRIMARY KEY, payload TEXT NOT NULL)`)
	require.NoError(t, err)

	payload, err := json.Marshal(types.BenchmarkProfile{
		ID:           "ignored",
		RoleCategory: "logistics coordinator",
		Industry:     "logistics",
		Weights:      map[types.Dimension]float64{types.DimensionExperience: 0.5, types.DimensionSkills: 0.5},
		AverageScore: 60,
		TopScore:     82,
	})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO benchmark_profiles (id, payload) VALUES (?, ?)`, "logistics", string(payload))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	profiles, err := LoadSQLite(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "logistics", profiles[0].ID)
	assert.Equal(t, 0.5, profiles[0].Weights[types.DimensionExperience])

	t.Run("missing table", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.db")
		edb, err := sql.Open("sqlite", empty)
		require.NoError(t, err)
		_, err = edb.Exec(`CREATE TABLE other (id TEXT)`)
		require.NoError(t, err)
		require.NoError(t, edb.Close())

		_, err = LoadSQLite(context.Background(), empty)
		assert.ErrorContains(t, err, "querying benchmark profiles")
	})
}

func TestOpenSource(t *testing.T) {
	logger := errors.NewNopLogger()

	src, err := OpenSource(context.Background(), config.BenchmarkConfig{}, logger)
	require.NoError(t, err)
	assert.Equal(t, "embedded", src.Origin)
	assert.Equal(t, 5, src.Index.Len())
	assert.NoError(t, src.Close())

	_, err = OpenSource(context.Background(), config.BenchmarkConfig{CorpusPath: filepath.Join(t.TempDir(), "none.json")}, logger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

// stubIndex lets tests control search behaviour
type stubIndex struct {
	*MemoryIndex
	searches atomic.Int32
	err      error
	block    chan struct{}
}

func (s *stubIndex) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	s.searches.Add(1)
	if s.block != nil {
		<-s.block // ignores ctx on purpose
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryIndex.Search(ctx, query, topK)
}

func newStub() *stubIndex {
	return &stubIndex{MemoryIndex: NewMemoryIndex(DefaultProfiles())}
}

func TestRetrieverLookup(t *testing.T) {
	ctx := context.Background()
	logger := errors.NewNopLogger()

	t.Run("found", func(t *testing.T) {
		r := NewRetriever(newStub(), testConfig(), logger)
		p := r.Lookup(ctx, "Data Analyst")
		assert.True(t, p.Found)
		assert.Equal(t, "technology-data", p.ID)
		assert.Equal(t, 1.0, p.Confidence)
	})

	tests := []struct {
		name   string
		index  Index
		cfg    func(*config.BenchmarkConfig)
		role   string
		reason string
	}{
		{"no match", newStub(), nil, "underwater basket weaving", ReasonNoMatch},
		{"low confidence", newStub(), func(c *config.BenchmarkConfig) { c.MinConfidence = 0.6 }, "Registered Nurse", ReasonLowConfidence},
		{"disabled", newStub(), func(c *config.BenchmarkConfig) { c.Enabled = false }, "Data Analyst", ReasonDisabled},
		{"nil index", nil, nil, "Data Analyst", ReasonDisabled},
		{"blank role", newStub(), nil, "   ", ReasonNoKey},
		{"index error", &stubIndex{MemoryIndex: NewMemoryIndex(nil), err: fmt.Errorf("connection refused")}, nil, "Data Analyst", ReasonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			r := NewRetriever(tt.index, cfg, logger)
			var reasons []string
			r.OnFallback(func(_ context.Context, reason string) { reasons = append(reasons, reason) })

			p := r.Lookup(ctx, tt.role)
			assert.Equal(t, types.NoBenchmark, p)
			assert.Equal(t, []string{tt.reason}, reasons)
			assert.EqualValues(t, 1, r.Stats()["fallbacks"])
		})
	}
}

func TestRetrieverTimeout(t *testing.T) {
	stub := newStub()
	stub.block = make(chan struct{})
	t.Cleanup(func() { close(stub.block) })

	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	r := NewRetriever(stub, cfg, errors.NewNopLogger())
	var reason string
	r.OnFallback(func(_ context.Context, rs string) { reason = rs })

	start := time.Now()
	p := r.Lookup(context.Background(), "Data Analyst")
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, p.Found)
	assert.Equal(t, ReasonTimeout, reason)
}

func TestRetrieverCallerCancelled(t *testing.T) {
	stub := newStub()
	stub.block = make(chan struct{})
	t.Cleanup(func() { close(stub.block) })

	r := NewRetriever(stub, testConfig(), errors.NewNopLogger())
	var reason string
	r.OnFallback(func(_ context.Context, rs string) { reason = rs })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	p := r.Lookup(ctx, "Data Analyst")
	assert.False(t, p.Found)
	assert.Equal(t, ReasonCancelled, reason)
}

func TestRetrieverCircuitBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	stub := &stubIndex{MemoryIndex: NewMemoryIndex(nil), err: fmt.Errorf("index offline")}
	r := NewRetriever(stub, cfg, errors.NewNopLogger())
	var reasons []string
	r.OnFallback(func(_ context.Context, reason string) { reasons = append(reasons, reason) })

	for range 3 {
		r.Lookup(context.Background(), "Data Analyst")
	}
	assert.Equal(t, []string{ReasonError, ReasonError, ReasonCircuitOpen}, reasons)
	assert.EqualValues(t, 2, stub.searches.Load())
}

func TestRetrieverCancelledLookupsKeepBreakerClosed(t *testing.T) {
	cfg := testConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
	stub := newStub()
	stub.block = make(chan struct{})
	r := NewRetriever(stub, cfg, errors.NewNopLogger())
	var reasons []string
	r.OnFallback(func(_ context.Context, reason string) { reasons = append(reasons, reason) })

	for range 3 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		p := r.Lookup(ctx, "Data Analyst")
		cancel()
		assert.False(t, p.Found)
	}

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, r.Lookup(gone, "Data Analyst").Found)

	close(stub.block)
	assert.Equal(t, []string{ReasonCancelled, ReasonCancelled, ReasonCancelled, ReasonCancelled}, reasons)
	assert.True(t, r.Healthy())

	p := r.Lookup(context.Background(), "Data Analyst")
	assert.True(t, p.Found)
	assert.Equal(t, "technology-data", p.ID)
	assert.Equal(t, "closed", r.Stats()["circuit_breaker"].(map[string]any)["state"])
}

func TestSessionSharesLookups(t *testing.T) {
	stub := newStub()
	r := NewRetriever(stub, testConfig(), errors.NewNopLogger())
	session := r.NewSession()

	var wg sync.WaitGroup
	results := make([]types.BenchmarkProfile, len(types.Dimensions))
	for i, d := range types.Dimensions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = session.Fetch(context.Background(), "Data Analyst", d)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, stub.searches.Load())
	for i, d := range types.Dimensions {
		p := results[i]
		require.True(t, p.Found)
		assert.Len(t, p.Weights, 1)
		assert.Contains(t, p.Weights, d)
		assert.Len(t, p.Exemplars, 1)
		assert.NotEmpty(t, p.Exemplars[d])
	}

	// a new session looks up again
	r.NewSession().Profile(context.Background(), "data analyst")
	assert.EqualValues(t, 2, stub.searches.Load())
}

func TestPartialDoesNotShareMaps(t *testing.T) {
	full := DefaultProfiles()[0]
	full.Found = true

	p := Partial(full, types.DimensionSkills)
	p.Weights[types.DimensionSkills] = 99
	p.Exemplars[types.DimensionSkills][0] = "changed"

	assert.NotEqual(t, 99.0, full.Weights[types.DimensionSkills])
	assert.NotEqual(t, "changed", full.Exemplars[types.DimensionSkills][0])
	assert.Equal(t, types.NoBenchmark, Partial(types.NoBenchmark, types.DimensionSkills))
}

func TestRetrieverSearch(t *testing.T) {
	r := NewRetriever(newStub(), testConfig(), errors.NewNopLogger())
	results, err := r.Search(context.Background(), "data analyst", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "technology-data", results[0].ProfileID)
	assert.Equal(t, "technology", results[0].Industry)

	_, err = NewRetriever(nil, testConfig(), nil).Search(context.Background(), "x", 1)
	assert.Error(t, err)
}

// slowIndex answers only when its context ends
type slowIndex struct{ *MemoryIndex }

func (s slowIndex) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRetrieverSearchErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	tests := []struct {
		name     string
		index    Index
		wantCode string
	}{
		{"index down", &stubIndex{MemoryIndex: NewMemoryIndex(nil), err: fmt.Errorf("connection refused")}, errors.ErrCodeBenchmarkDown},
		{"index too slow", slowIndex{NewMemoryIndex(nil)}, errors.ErrCodeNetworkTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRetriever(tt.index, cfg, errors.NewNopLogger())
			_, err := r.Search(context.Background(), "data analyst", 3)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestCompare(t *testing.T) {
	tech := types.BenchmarkProfile{Industry: "technology", RoleCategory: "software engineering", AverageScore: 75, TopScore: 90, Found: true}

	tests := []struct {
		name     string
		profile  types.BenchmarkProfile
		score    float64
		want     float64
		standing string
	}{
		{"top performer", tech, 95, 90, StandingTop},
		{"exactly top", tech, 90, 90, StandingTop},
		{"above average", tech, 82.5, 70, StandingAboveAverage},
		{"exactly average", tech, 75, 50, StandingAboveAverage},
		{"below average", tech, 37.5, 25, StandingBelowAverage},
		{"zero", tech, 0, 0, StandingBelowAverage},
		{"no profile uses general baseline", types.NoBenchmark, 65, 50, StandingAboveAverage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.profile, tt.score)
			assert.InDelta(t, tt.want, got.Percentile, 1e-9)
			assert.Equal(t, tt.standing, got.Standing)
			assert.Equal(t, tt.score, got.Score)
		})
	}

	assert.Equal(t, "general", Compare(types.NoBenchmark, 50).Industry)
}

func TestCorpusWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.json")
	writeCorpus(t, path, types.BenchmarkProfile{ID: "legal", RoleCategory: "legal counsel"})

	load := func() ([]types.BenchmarkProfile, error) { return LoadCorpusFile(path) }
	profiles, err := load()
	require.NoError(t, err)
	idx := NewMemoryIndex(profiles)

	w := NewCorpusWatcher(path, 10*time.Millisecond, load, idx, errors.NewNopLogger())
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start())

	writeCorpus(t, path,
		types.BenchmarkProfile{ID: "legal", RoleCategory: "legal counsel"},
		types.BenchmarkProfile{ID: "retail", RoleCategory: "retail store"},
	)
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-w.Reloaded():
	case <-time.After(5 * time.Second):
		t.Fatal("corpus was not reloaded")
	}
	assert.Equal(t, 2, idx.Len())

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestCorpusWatcherKeepsProfilesOnBadReload(t *testing.T) {
	idx := NewMemoryIndex(DefaultProfiles())
	w := NewCorpusWatcher("unused.json", 0, func() ([]types.BenchmarkProfile, error) {
		return nil, fmt.Errorf("truncated file")
	}, idx, errors.NewNopLogger())

	w.reload()
	assert.Equal(t, 5, idx.Len())
	select {
	case <-w.Reloaded():
		t.Fatal("failed reload must not signal")
	default:
	}
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	idx := NewMemoryIndex(DefaultProfiles())
	ctx := context.Background()
	for b.Loop() {
		_, _ = idx.Search(ctx, "Senior Backend Software Engineer", 3)
	}
}
