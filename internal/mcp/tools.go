package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"atscore/internal/schemas"
	"atscore/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScoreInput is the input schema for score_resume
type ScoreInput struct {
	Resume         map[string]any `json:"resume" jsonschema:"structured resume: contact, skills, experience, education, summary, format" validate:"required"`
	JobDescription map[string]any `json:"jobDescription" jsonschema:"structured job description: title, roleCategory, requiredSkills, preferredSkills, minExperienceMonths, requiredEducation" validate:"required"`
}

// ScoreOutput is a condensed score report
type ScoreOutput struct {
	ID              string                     `json:"id"`
	Overall         float64                    `json:"overall"`
	Interval        types.ConfidenceInterval   `json:"interval"`
	Confidence      float64                    `json:"confidence"`
	BenchmarkUsed   bool                       `json:"benchmarkUsed"`
	Dimensions      []DimensionOutput          `json:"dimensions"`
	Missing         []string                   `json:"missingSkills"`
	Recommendations []types.Recommendation     `json:"recommendations"`
	Comparison      *types.BenchmarkComparison `json:"comparison,omitempty"`
}

// DimensionOutput is one dimension's score and weight
type DimensionOutput struct {
	Dimension  string  `json:"dimension"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
}

// MatchInput is the input schema for match_skills
type MatchInput struct {
	Required     []string `json:"required" jsonschema:"skills the job requires" validate:"required,min=1,max=200,dive,required,max=100"`
	Preferred    []string `json:"preferred,omitempty" jsonschema:"nice-to-have skills" validate:"omitempty,max=200,dive,required,max=100"`
	ResumeSkills []string `json:"resumeSkills,omitempty" jsonschema:"skills listed on the resume" validate:"max=500,dive,max=100"`
}

// MatchOutput lists how each requirement was met
type MatchOutput struct {
	Matches []MatchEntry `json:"matches"`
	Missing []string     `json:"missing"`
}

// MatchEntry is one requirement and the resume skill that met it
type MatchEntry struct {
	Requirement string  `json:"requirement"`
	Preferred   bool    `json:"preferred"`
	MatchedBy   string  `json:"matchedBy,omitempty"`
	Kind        string  `json:"kind"`
	Similarity  float64 `json:"similarity"`
}

// CanonicalizeInput is the input schema for canonicalize_skills
type CanonicalizeInput struct {
	Terms []string `json:"terms" jsonschema:"raw skill terms to normalize" validate:"required,min=1,max=500,dive,required,max=100"`
}

// SearchInput is the input schema for search_benchmarks
type SearchInput struct {
	Query string `json:"query" jsonschema:"role or industry to look up" validate:"required,max=200"`
	TopK  int    `json:"topK,omitempty" jsonschema:"maximum number of profiles to return (default from config)" validate:"omitempty,min=1,max=50"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "score_resume",
		Description: "Score a structured resume against a structured job description. Returns the overall ATS score with a confidence interval, per-dimension scores, missing skills and prioritized recommendations.",
		Annotations: readOnly,
	}, s.handleScore)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "match_skills",
		Description: "Match resume skills against required and preferred job skills using canonical names, aliases and fuzzy matching.",
		Annotations: readOnly,
	}, s.handleMatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "canonicalize_skills",
		Description: "Normalize raw skill terms to their canonical names, for example K8s to kubernetes.",
		Annotations: readOnly,
	}, s.handleCanonicalize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_benchmarks",
		Description: "Search the industry benchmark corpus for role profiles.",
		Annotations: readOnly,
	}, s.handleSearch)
}

func (s *Server) handleScore(ctx context.Context, _ *mcp.CallToolRequest, input ScoreInput) (*mcp.CallToolResult, ScoreOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, ScoreOutput{}, fmt.Errorf("invalid input: %w", err)
	}

	resume, err := decodeDocument(input.Resume, schemas.DecodeResume)
	if err != nil {
		return nil, ScoreOutput{}, err
	}
	jd, err := decodeDocument(input.JobDescription, schemas.DecodeJob)
	if err != nil {
		return nil, ScoreOutput{}, err
	}

	report, err := s.app.Engine.Score(ctx, resume, jd)
	if err != nil {
		return nil, ScoreOutput{}, err
	}
	return nil, summarize(report), nil
}

func (s *Server) handleMatch(ctx context.Context, _ *mcp.CallToolRequest, input MatchInput) (*mcp.CallToolResult, MatchOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, MatchOutput{}, fmt.Errorf("invalid input: %w", err)
	}

	report := s.app.Engine.Match(ctx, input.Required, input.Preferred, input.ResumeSkills)
	output := MatchOutput{
		Matches: make([]MatchEntry, len(report.Matches)),
		Missing: report.Missing,
	}
	for i, m := range report.Matches {
		output.Matches[i] = matchEntry(m)
	}
	return nil, output, nil
}

func (s *Server) handleCanonicalize(_ context.Context, _ *mcp.CallToolRequest, input CanonicalizeInput) (*mcp.CallToolResult, types.CanonicalizeOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, types.CanonicalizeOutput{}, fmt.Errorf("invalid input: %w", err)
	}
	return nil, s.app.Engine.Canonicalize(input.Terms), nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, types.BenchmarkSearchOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, types.BenchmarkSearchOutput{}, fmt.Errorf("invalid input: %w", err)
	}

	results, err := s.app.Engine.Retriever().Search(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, types.BenchmarkSearchOutput{}, err
	}
	return nil, types.BenchmarkSearchOutput{Query: input.Query, Results: results}, nil
}

// decodeDocument re-encodes a tool argument and runs it through the same
// schema validation as CLI files and HTTP bodies.
func decodeDocument[T any](doc map[string]any, decode func([]byte) (*T, error)) (*T, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decode(data)
}

func summarize(report *types.ScoreReport) ScoreOutput {
	r := report.Result
	out := ScoreOutput{
		ID:              r.ID,
		Overall:         r.Overall,
		Interval:        r.Interval,
		Confidence:      r.Confidence,
		BenchmarkUsed:   r.BenchmarkUsed,
		Dimensions:      make([]DimensionOutput, len(r.Dimensions)),
		Missing:         []string{},
		Recommendations: report.Recommendations,
		Comparison:      report.Comparison,
	}
	for i, d := range r.Dimensions {
		out.Dimensions[i] = DimensionOutput{
			Dimension:  string(d.Dimension),
			Score:      d.Score,
			Confidence: d.Confidence,
			Weight:     r.Weights[d.Dimension],
		}
	}
	for _, m := range report.Matches {
		if m.Requirement.Category == types.CategoryRequired && !m.Matched() {
			out.Missing = append(out.Missing, m.Requirement.Canonical)
		}
	}
	if out.Recommendations == nil {
		out.Recommendations = []types.Recommendation{}
	}
	return out
}

func matchEntry(m types.SkillMatch) MatchEntry {
	e := MatchEntry{
		Requirement: m.Requirement.Canonical,
		Preferred:   m.Requirement.Category == types.CategoryPreferred,
		Kind:        string(m.Kind),
		Similarity:  m.Similarity,
	}
	if m.Resume != nil {
		e.MatchedBy = m.Resume.Original
	}
	return e
}
