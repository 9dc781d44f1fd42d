package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps LoadConfig from picking up files or variables from the host
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ATSCORE_EMBEDDING_APIKEY", "")
	t.Setenv("ATSCORE_EMBEDDING_PROVIDER", "")
	t.Setenv("ATSCORE_SERVER_APIKEYS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultScoringConfig().Weights, cfg.Scoring.Weights)
	assert.Equal(t, 0.85, cfg.Scoring.FuzzyThreshold)
	assert.Equal(t, 150, cfg.Scoring.Format.MinWords)
	assert.True(t, cfg.Benchmark.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Benchmark.Timeout)
	assert.Equal(t, 3, cfg.Benchmark.TopK)
	assert.Equal(t, "text-embedding-004", cfg.Embedding.Model)
	assert.Empty(t, cfg.Embedding.Provider)
	assert.False(t, cfg.SemanticEnabled())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "json", cfg.App.DefaultFormat)
	assert.Equal(t, "secret", cfg.Vault.Mount)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("ATSCORE_SCORING_FUZZYTHRESHOLD", "0.9")
	t.Setenv("ATSCORE_SERVER_PORT", "9999")
	t.Setenv("ATSCORE_SERVER_APIKEYS", "alpha, beta")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Scoring.FuzzyThreshold)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-key", cfg.Embedding.APIKey)
	assert.Equal(t, "gemini", cfg.Embedding.Provider)
	assert.True(t, cfg.SemanticEnabled())
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "atscore.yaml")
	content := `
scoring:
  weights:
    skills: 0.5
    experience: 0.5
    education: 0
    format: 0
  aliases:
    tableau desktop: tableau
benchmark:
  enabled: false
app:
  logLevel: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Scoring.Weights.Skills)
	assert.Zero(t, cfg.Scoring.Weights.Format)
	assert.Equal(t, "tableau", cfg.Scoring.Aliases["tableau desktop"])
	assert.False(t, cfg.Benchmark.Enabled)
	// defaults still apply to keys the file does not set
	assert.Equal(t, 0.80, cfg.Scoring.SemanticThreshold)
	assert.True(t, cfg.Observability.ConsoleOutput)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("ATSCORE_SCORING_WEIGHTS_SKILLS", "-1")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight for skills must not be negative")
}

func TestScoringConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr string
	}{
		{"defaults", func(*ScoringConfig) {}, ""},
		{"all weights zero", func(s *ScoringConfig) { s.Weights = DimensionWeights{} }, "at least one dimension weight"},
		{"fuzzy threshold zero", func(s *ScoringConfig) { s.FuzzyThreshold = 0 }, "fuzzyThreshold"},
		{"fuzzy threshold one is allowed", func(s *ScoringConfig) { s.FuzzyThreshold = 1 }, ""},
		{"semantic threshold above one", func(s *ScoringConfig) { s.SemanticThreshold = 1.2 }, "semanticThreshold"},
		{"target above 100", func(s *ScoringConfig) { s.Targets.Format = 120 }, "target for format"},
		{"min words above max", func(s *ScoringConfig) { s.Format.MinWords = 2000 }, "word bounds"},
		{"zero pages", func(s *ScoringConfig) { s.Format.MaxPages = 0 }, "maxPages"},
		{"max half width below base", func(s *ScoringConfig) { s.Interval.MaxHalfWidth = 1 }, "half widths"},
		{"no requirement minimum", func(s *ScoringConfig) { s.MinRequirementCount = 0 }, "minRequirementCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScoringConfig()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Scoring:   DefaultScoringConfig(),
			Benchmark: BenchmarkConfig{Enabled: true, Timeout: time.Second, TopK: 3, MinConfidence: 0.2},
			Server:    ServerConfig{Port: "8080"},
			App:       AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text"}},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Embedding.Provider = "openai"
	assert.ErrorContains(t, cfg.Validate(), "unsupported embedding provider")

	cfg = valid()
	cfg.Benchmark.Timeout = 0
	assert.ErrorContains(t, cfg.Validate(), "benchmark timeout")

	cfg = valid()
	cfg.Benchmark.Enabled = false
	cfg.Benchmark.Timeout = 0
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.App.DefaultFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "invalid default format")

	cfg = valid()
	cfg.Server.Port = ""
	assert.ErrorContains(t, cfg.Validate(), "server port")
}

func TestDimensionWeights(t *testing.T) {
	w := DefaultScoringConfig().Weights
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.Equal(t, 0.25, w.Get(types.DimensionExperience))
	assert.Zero(t, w.Get(types.Dimension("charisma")))

	m := w.AsMap()
	assert.Len(t, m, 4)
	assert.Equal(t, 0.15, m[types.DimensionFormat])
}
