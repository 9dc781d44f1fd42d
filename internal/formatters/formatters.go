// Package formatters renders engine outputs as json, text or markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"atscore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "MatchReport", &MatchTextFormatter{})
	registry.RegisterFormatter("markdown", "MatchReport", &MatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "BenchmarkSearchOutput", &BenchmarkTextFormatter{})
	registry.RegisterFormatter("markdown", "BenchmarkSearchOutput", &BenchmarkMarkdownFormatter{})
	registry.RegisterFormatter("text", "CanonicalizeOutput", &CanonicalizeTextFormatter{})
	registry.RegisterFormatter("markdown", "CanonicalizeOutput", &CanonicalizeTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreReport, *types.ScoreReport:
		return "ScoreReport"
	case types.MatchReport, *types.MatchReport:
		return "MatchReport"
	case types.BenchmarkSearchOutput, *types.BenchmarkSearchOutput:
		return "BenchmarkSearchOutput"
	case types.CanonicalizeOutput, *types.CanonicalizeOutput:
		return "CanonicalizeOutput"
	default:
		return "any"
	}
}

// deref accepts T or *T
func deref[T any](data any) (T, error) {
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("expected %T, got %T", zero, data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreTextFormatter handles text formatting for score reports
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	report, err := deref[types.ScoreReport](data)
	if err != nil {
		return "", err
	}
	result := report.Result

	var output strings.Builder

	output.WriteString("=== ATS SCORE ===\n")
	fmt.Fprintf(&output, "Overall: %.1f/100 (%.1f - %.1f)\n", result.Overall, result.Interval.Lower, result.Interval.Upper)
	fmt.Fprintf(&output, "Confidence: %.0f%%\n", result.Confidence*100)
	if result.BenchmarkUsed {
		output.WriteString("Weights: benchmark-calibrated\n")
	} else {
		output.WriteString("Weights: default\n")
	}
	output.WriteString("\n")

	output.WriteString("=== DIMENSIONS ===\n")
	for _, ds := range result.Dimensions {
		fmt.Fprintf(&output, "%-11s %5.1f  (weight %.2f, confidence %.0f%%)\n",
			ds.Dimension, ds.Score, result.Weights[ds.Dimension], ds.Confidence*100)
	}
	output.WriteString("\n")

	if len(report.Matches) > 0 {
		output.WriteString("=== SKILLS ===\n")
		for _, m := range report.Matches {
			output.WriteString(matchLine(m))
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	if report.Comparison != nil {
		c := report.Comparison
		output.WriteString("=== BENCHMARK ===\n")
		fmt.Fprintf(&output, "Industry: %s (%s)\n", c.Industry, c.RoleCategory)
		fmt.Fprintf(&output, "Average: %.0f  Top: %.0f  Percentile: %.0f\n", c.AverageScore, c.TopScore, c.Percentile)
		fmt.Fprintf(&output, "Standing: %s\n\n", c.Standing)
	}

	if len(report.Recommendations) > 0 {
		output.WriteString("=== RECOMMENDATIONS ===\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&output, "%d. [%s, +%.1f] %s\n", rec.Priority, rec.Dimension, rec.Impact, rec.Action)
		}
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreMarkdownFormatter handles markdown formatting for score reports
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	report, err := deref[types.ScoreReport](data)
	if err != nil {
		return "", err
	}
	result := report.Result

	var output strings.Builder

	output.WriteString("# ATS Score Report\n\n")
	fmt.Fprintf(&output, "**Overall:** %.1f/100 (interval %.1f - %.1f)\n\n", result.Overall, result.Interval.Lower, result.Interval.Upper)
	fmt.Fprintf(&output, "**Confidence:** %.0f%%\n\n", result.Confidence*100)

	output.WriteString("## Dimensions\n\n")
	output.WriteString("| Dimension | Score | Weight | Confidence |\n")
	output.WriteString("|-----------|-------|--------|------------|\n")
	for _, ds := range result.Dimensions {
		fmt.Fprintf(&output, "| %s | %.1f | %.2f | %.0f%% |\n", ds.Dimension, ds.Score, result.Weights[ds.Dimension], ds.Confidence*100)
	}
	output.WriteString("\n")

	if len(report.Matches) > 0 {
		output.WriteString("## Skills\n\n")
		for _, m := range report.Matches {
			fmt.Fprintf(&output, "- %s\n", matchLine(m))
		}
		output.WriteString("\n")
	}

	if report.Comparison != nil {
		c := report.Comparison
		output.WriteString("## Benchmark\n\n")
		fmt.Fprintf(&output, "- **Industry:** %s (%s)\n", c.Industry, c.RoleCategory)
		fmt.Fprintf(&output, "- **Average / Top:** %.0f / %.0f\n", c.AverageScore, c.TopScore)
		fmt.Fprintf(&output, "- **Percentile:** %.0f (%s)\n\n", c.Percentile, c.Standing)
	}

	if len(report.Recommendations) > 0 {
		output.WriteString("## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&output, "%d. **%s** (+%.1f): %s\n", rec.Priority, rec.Dimension, rec.Impact, rec.Action)
		}
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

// MatchTextFormatter handles text formatting for match reports
type MatchTextFormatter struct{}

func (mtf *MatchTextFormatter) Format(data any) (string, error) {
	report, err := deref[types.MatchReport](data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("=== SKILL MATCHES ===\n")
	for _, m := range report.Matches {
		output.WriteString(matchLine(m))
		output.WriteString("\n")
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(&output, "\nMissing required: %s\n", strings.Join(report.Missing, ", "))
	}
	return output.String(), nil
}

func (mtf *MatchTextFormatter) SupportedType() string {
	return "MatchReport"
}

// MatchMarkdownFormatter handles markdown formatting for match reports
type MatchMarkdownFormatter struct{}

func (mmf *MatchMarkdownFormatter) Format(data any) (string, error) {
	report, err := deref[types.MatchReport](data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Skill Matches\n\n")
	output.WriteString("| Requirement | Category | Kind | Resume term | Similarity |\n")
	output.WriteString("|-------------|----------|------|-------------|------------|\n")
	for _, m := range report.Matches {
		resume := "-"
		if m.Resume != nil {
			resume = m.Resume.Original
		}
		fmt.Fprintf(&output, "| %s | %s | %s | %s | %.2f |\n",
			m.Requirement.Original, m.Requirement.Category, m.Kind, resume, m.Similarity)
	}
	if len(report.Missing) > 0 {
		output.WriteString("\n## Missing Required Skills\n\n")
		for _, s := range report.Missing {
			fmt.Fprintf(&output, "- %s\n", s)
		}
	}
	return output.String(), nil
}

func (mmf *MatchMarkdownFormatter) SupportedType() string {
	return "MatchReport"
}

// BenchmarkTextFormatter handles text formatting for benchmark searches
type BenchmarkTextFormatter struct{}

func (btf *BenchmarkTextFormatter) Format(data any) (string, error) {
	out, err := deref[types.BenchmarkSearchOutput](data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== BENCHMARKS FOR %q ===\n", out.Query)
	if len(out.Results) == 0 {
		output.WriteString("No matching profiles\n")
	}
	for i, r := range out.Results {
		fmt.Fprintf(&output, "%d. %s (%s, %s) similarity %.2f\n", i+1, r.ProfileID, r.RoleCategory, r.Industry, r.Similarity)
	}
	return output.String(), nil
}

func (btf *BenchmarkTextFormatter) SupportedType() string {
	return "BenchmarkSearchOutput"
}

// BenchmarkMarkdownFormatter handles markdown formatting for benchmark searches
type BenchmarkMarkdownFormatter struct{}

func (bmf *BenchmarkMarkdownFormatter) Format(data any) (string, error) {
	out, err := deref[types.BenchmarkSearchOutput](data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	fmt.Fprintf(&output, "# Benchmarks for \"%s\"\n\n", out.Query)
	output.WriteString("| Profile | Role category | Industry | Similarity |\n")
	output.WriteString("|---------|---------------|----------|------------|\n")
	for _, r := range out.Results {
		fmt.Fprintf(&output, "| %s | %s | %s | %.2f |\n", r.ProfileID, r.RoleCategory, r.Industry, r.Similarity)
	}
	return output.String(), nil
}

func (bmf *BenchmarkMarkdownFormatter) SupportedType() string {
	return "BenchmarkSearchOutput"
}

// CanonicalizeTextFormatter lists raw terms with their canonical form
type CanonicalizeTextFormatter struct{}

func (ctf *CanonicalizeTextFormatter) Format(data any) (string, error) {
	out, err := deref[types.CanonicalizeOutput](data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	for _, term := range out.Terms {
		fmt.Fprintf(&output, "%s -> %s\n", term.Original, term.Canonical)
	}
	return output.String(), nil
}

func (ctf *CanonicalizeTextFormatter) SupportedType() string {
	return "CanonicalizeOutput"
}

func matchLine(m types.SkillMatch) string {
	switch {
	case !m.Matched():
		return fmt.Sprintf("[missing]   %s (%s)", m.Requirement.Original, m.Requirement.Category)
	case m.Kind == types.MatchExact:
		return fmt.Sprintf("[exact]     %s (%s)", m.Requirement.Original, m.Requirement.Category)
	default:
		return fmt.Sprintf("[%s]%s%s via %q (%s, %.2f)", m.Kind, strings.Repeat(" ", max(1, 10-len(m.Kind))),
			m.Requirement.Original, m.Resume.Original, m.Requirement.Category, m.Similarity)
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
