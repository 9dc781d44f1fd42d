package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"atscore/internal/common"
	atscoreErrors "atscore/internal/errors"
	"atscore/internal/formatters"
	"atscore/internal/observability"
	"atscore/internal/schemas"
	"atscore/internal/types"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// createScoreHandler scores one resume against one job description
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("atscore.api").Start(r.Context(), "api.score")
		defer span.End()

		format, ok := s.outputFormat(w, r)
		if !ok {
			return
		}

		var req ScoreRequest
		if !s.decodeAndValidate(w, r, span, &req) {
			return
		}

		resume, err := schemas.DecodeResume(req.Resume)
		if err != nil {
			s.writeAppError(w, span, err)
			return
		}
		jd, err := schemas.DecodeJob(req.Job)
		if err != nil {
			s.writeAppError(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_skills", len(resume.Skills)),
			attribute.Int("request.required_skills", len(jd.RequiredSkills)),
			attribute.String("request.role", jd.BenchmarkKey()),
		)

		report, err := s.App.Engine.Score(ctx, resume, jd)
		if err != nil {
			s.writeAppError(w, span, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Float64("ats.overall", report.Result.Overall),
			attribute.Bool("ats.benchmark_used", report.Result.BenchmarkUsed),
		)
		writeFormatted(w, report, format)
	}
}

// createMatchHandler runs skill matching without scoring
func (s *Server) createMatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("atscore.api").Start(r.Context(), "api.match")
		defer span.End()

		format, ok := s.outputFormat(w, r)
		if !ok {
			return
		}

		var req MatchRequest
		if !s.decodeAndValidate(w, r, span, &req) {
			return
		}

		report := s.App.Engine.Match(ctx, req.Required, req.Preferred, req.Resume)
		span.SetAttributes(
			attribute.Int("match.requirements", len(report.Matches)),
			attribute.Int("match.missing", len(report.Missing)),
		)
		writeFormatted(w, report, format)
	}
}

// createCanonicalizeHandler returns canonical forms for raw skill terms
func (s *Server) createCanonicalizeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("atscore.api").Start(r.Context(), "api.canonicalize")
		defer span.End()

		format, ok := s.outputFormat(w, r)
		if !ok {
			return
		}

		var req CanonicalizeRequest
		if !s.decodeAndValidate(w, r, span, &req) {
			return
		}

		writeFormatted(w, s.App.Engine.Canonicalize(req.Terms), format)
	}
}

// createBenchmarkSearchHandler queries the benchmark index directly
func (s *Server) createBenchmarkSearchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("atscore.api").Start(r.Context(), "api.benchmarks")
		defer span.End()

		format, ok := s.outputFormat(w, r)
		if !ok {
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if err := s.validate.Var(query, "required,max=200"); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid query", "q must be 1-200 characters", http.StatusBadRequest)
			return
		}

		topK := 0
		if raw := r.URL.Query().Get("topK"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 50 {
				writeErrorResponse(w, "Invalid topK", "topK must be an integer between 1 and 50", http.StatusBadRequest)
				return
			}
			topK = n
		}

		retriever := s.App.Engine.Retriever()
		if retriever == nil {
			writeErrorResponse(w, "Benchmarks disabled", "benchmark retrieval is not configured", http.StatusServiceUnavailable)
			return
		}

		results, err := retriever.Search(ctx, query, topK)
		if err != nil {
			span.RecordError(err)
			s.Logger.LogError(err, "Benchmark search failed", "query", query)
			writeErrorResponse(w, "Benchmark search failed", err.Error(), http.StatusBadGateway)
			return
		}
		span.SetAttributes(attribute.Int("benchmark.results", len(results)))
		writeFormatted(w, types.BenchmarkSearchOutput{Query: query, Results: results}, format)
	}
}

// outputFormat reads ?format=, defaulting to json
func (s *Server) outputFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := r.URL.Query().Get("format")
	if format == "" {
		return "json", true
	}
	var supported []string
	if s.AppConfig != nil {
		supported = s.AppConfig.App.SupportedFormats
	}
	if len(supported) == 0 {
		supported = formatters.GlobalRegistry.GetSupportedFormats()
	}
	if err := common.ValidateOutputFormat(format, supported); err != nil {
		writeErrorResponse(w, "Invalid format", err.Error(), http.StatusBadRequest)
		return "", false
	}
	return format, true
}

// decodeAndValidate parses the JSON body into v and runs struct validation.
// It writes the error response and returns false on failure.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, span trace.Span, v any) bool {
	if err := parseJSONRequest(r, v); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponseWithDetails(w, "Invalid request", "request failed validation", validationMessages(err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeAppError maps engine and decoding errors to HTTP responses
func (s *Server) writeAppError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)

	var appErr *atscoreErrors.AppError
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		span.SetAttributes(attribute.String("error.type", "cancelled"))
		writeErrorResponse(w, "Request cancelled", err.Error(), http.StatusServiceUnavailable)
	case stderrors.As(err, &appErr) && appErr.Type == atscoreErrors.ErrorTypeValidation:
		span.SetAttributes(attribute.String("error.type", "validation"))
		var details any
		var ve *schemas.ValidationError
		if stderrors.As(err, &ve) {
			details = ve.Errors
		}
		writeErrorResponseWithDetails(w, appErr.Code, appErr.Message, details, http.StatusBadRequest)
	default:
		span.SetAttributes(attribute.String("error.type", "internal"))
		s.Logger.LogError(err, "Request failed")
		writeErrorResponse(w, "Internal error", "the request could not be processed", http.StatusInternalServerError)
	}
}

// validationMessages turns validator errors into field messages
func validationMessages(err error) []schemas.FieldError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []schemas.FieldError{{Field: "(root)", Message: err.Error()}}
	}
	out := make([]schemas.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param())
		}
		out = append(out, schemas.FieldError{Field: fe.Namespace(), Message: msg})
	}
	return out
}
