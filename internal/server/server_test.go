package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atscore/internal/app"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreBody = `{
  "resume": {
    "skills": ["Python", "SQL", "Excel"],
    "experience": [{"title": "Data Analyst", "durationMonths": 36}],
    "education": [{"degree": "Bachelor of Science", "field": "Statistics"}]
  },
  "jobDescription": {
    "title": "Data Analyst",
    "requiredSkills": ["python", "sql"],
    "minExperienceMonths": 24,
    "requiredEducation": "bachelor"
  }
}`

func testAppConfig() *config.Config {
	cfg := &config.Config{Scoring: config.DefaultScoringConfig()}
	cfg.Benchmark.Enabled = true
	cfg.Benchmark.TopK = 3
	cfg.Benchmark.MinConfidence = 0.2
	cfg.Benchmark.Timeout = time.Second
	return cfg
}

func newTestServer(t *testing.T, mutate func(*ServerConfig)) *Server {
	t.Helper()
	logger := errors.NewNopLogger()
	cfg := testAppConfig()

	a, err := app.New(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	sc := ServerConfig{Version: "test", MaxRequestSize: 1 << 20}
	if mutate != nil {
		mutate(&sc)
	}
	s := NewServer(cfg, sc, logger)
	s.App = a
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, true, body["benchmark"].(map[string]any)["enabled"])
}

func TestHealthBeforeEngineIsBuilt(t *testing.T) {
	s := NewServer(testAppConfig(), ServerConfig{Version: "test"}, errors.NewNopLogger())

	rec := do(t, s.Handler(nil), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	h := newTestServer(t, func(sc *ServerConfig) {
		sc.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 60, BurstCapacity: 5, ByIP: true}
	}).Handler(nil)

	rec := do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "engine")
	assert.Equal(t, 5.0, body["rate_limiting"].(map[string]any)["burst_capacity"])
}

func TestScoreEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/score", scoreBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report types.ScoreReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Result.BenchmarkUsed)
	assert.Greater(t, report.Result.Overall, 80.0)
	assert.Len(t, report.Result.Dimensions, 4)
	require.NotNil(t, report.Comparison)
}

func TestScoreEndpointAsText(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/score?format=text", scoreBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.NotEmpty(t, rec.Body.String())
}

func TestScoreEndpointRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		body      string
		headers   map[string]string
		wantError string
	}{
		{
			name:      "missing job",
			target:    "/api/v1/score",
			body:      `{"resume": {"skills": ["go"]}}`,
			wantError: "Invalid request",
		},
		{
			name:      "malformed json",
			target:    "/api/v1/score",
			body:      `{"resume": `,
			wantError: "Invalid request body",
		},
		{
			name:      "wrong content type",
			target:    "/api/v1/score",
			body:      scoreBody,
			headers:   map[string]string{"Content-Type": "text/plain"},
			wantError: "Invalid request body",
		},
		{
			name:      "schema violation",
			target:    "/api/v1/score",
			body:      `{"resume": {"skills": [1]}, "jobDescription": {"requiredSkills": ["go"]}}`,
			wantError: errors.ErrCodeSchemaViolation,
		},
		{
			name:      "unknown format",
			target:    "/api/v1/score?format=pdf",
			body:      scoreBody,
			wantError: "Invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, nil).Handler(nil)

			rec := do(t, h, http.MethodPost, tt.target, tt.body, tt.headers)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
		})
	}
}

func TestScoreSchemaViolationDetails(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/score",
		`{"resume": {"experience": [{"company": "Acme"}]}, "jobDescription": {"requiredSkills": ["go"]}}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeError(t, rec)
	details, ok := resp.Details.([]any)
	require.True(t, ok, "details should list violations")
	require.NotEmpty(t, details)
	assert.Equal(t, "experience.0", details[0].(map[string]any)["field"])
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestServer(t, func(sc *ServerConfig) { sc.MaxRequestSize = 16 }).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/score", scoreBody, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestMatchEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/match",
		`{"required": ["JavaScript", "Go", "Rust"], "resumeSkills": ["JS", "golang", "docker"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report types.MatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Matches, 3)
	assert.Equal(t, []string{"rust"}, report.Missing)
}

func TestMatchEndpointValidation(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/match", `{"required": [], "resumeSkills": ["go"]}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeError(t, rec)
	assert.Equal(t, "Invalid request", resp.Error)
	details := resp.Details.([]any)
	assert.Equal(t, "MatchRequest.Required", details[0].(map[string]any)["field"])
}

func TestCanonicalizeEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodPost, "/api/v1/canonicalize?format=text", `{"terms": ["K8s", "Python Programming"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "K8s -> kubernetes\nPython Programming -> python\n", rec.Body.String())
}

func TestBenchmarkSearchEndpoint(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	rec := do(t, h, http.MethodGet, "/api/v1/benchmarks?q=data+analyst&topK=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out types.BenchmarkSearchOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "data analyst", out.Query)
	require.NotEmpty(t, out.Results)
	assert.LessOrEqual(t, len(out.Results), 2)
	assert.Equal(t, "technology-data", out.Results[0].ProfileID)
}

func TestBenchmarkSearchEndpointValidation(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)

	for _, target := range []string{
		"/api/v1/benchmarks",
		"/api/v1/benchmarks?q=" + strings.Repeat("a", 201),
		"/api/v1/benchmarks?q=analyst&topK=0",
		"/api/v1/benchmarks?q=analyst&topK=many",
	} {
		rec := do(t, h, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, func(sc *ServerConfig) { sc.APIKeys = []string{"secret-key-123"} }).Handler(nil)
	body := `{"terms": ["go"]}`

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/canonicalize", body, tt.headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	// health stays public
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", nil).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := newTestServer(t, func(sc *ServerConfig) {
		sc.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	}).Handler(nil)
	body := `{"terms": ["go"]}`

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/canonicalize", body, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/canonicalize", body, nil).Code)
	rec := do(t, h, http.MethodPost, "/api/v1/canonicalize", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// a different client has its own bucket
	other := do(t, h, http.MethodPost, "/api/v1/canonicalize", body, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil).Handler(nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/score", "", nil).Code)
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"bearer token", map[string]string{"Authorization": "Bearer k2"}, true, false, "api:k2"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 198.51.100.4"}, false, true, "ip:198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.9"}, false, true, "ip:198.51.100.9"},
		{"disabled", map[string]string{"X-API-Key": "k1"}, false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(req, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
