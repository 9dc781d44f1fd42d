package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"atscore/internal/formatters"
)

// healthHandler reports liveness plus the state of the benchmark
// retriever and the semantic matcher. A tripped benchmark breaker is
// "degraded" but still 200: scoring continues on default weights.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "atscore",
		"version": s.Version,
	}

	if s.App == nil {
		response["status"] = "starting"
		writeJSON(w, response, http.StatusServiceUnavailable)
		return
	}

	retriever := s.App.Engine.Retriever()
	benchmarkHealthy := retriever.Healthy()
	response["benchmark"] = map[string]any{
		"enabled": retriever.Enabled(),
		"healthy": benchmarkHealthy,
	}
	response["semantic_matching"] = map[string]any{
		"enabled": s.App.Semantic.Enabled(),
	}

	if !benchmarkHealthy {
		response["status"] = "degraded"
	}

	writeJSON(w, response, http.StatusOK)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atscore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.App != nil {
		response["engine"] = s.App.Stats()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, response, http.StatusOK)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeFormatted renders data through the formatter registry. JSON goes
// out as application/json, text and markdown as text/plain.
func writeFormatted(w http.ResponseWriter, data any, format string) {
	out, err := formatters.GlobalRegistry.Format(data, format)
	if err != nil {
		writeErrorResponse(w, "Formatting failed", err.Error(), http.StatusInternalServerError)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func writeJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeErrorResponseWithDetails(w, error, message, nil, statusCode)
}

func writeErrorResponseWithDetails(w http.ResponseWriter, error, message string, details any, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:   error,
		Message: message,
		Details: details,
	}, statusCode)
}
