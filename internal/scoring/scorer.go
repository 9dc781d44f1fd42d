// Package scoring computes the per-dimension scores of a resume against a job
// description and folds them into an overall ATS score.
//
// Every scorer is total: missing or partial input lowers the score and the
// confidence but never produces an error.
package scoring

import (
	"context"

	"atscore/internal/types"
)

// Evidence factor names shared with the recommendation generator
const (
	FactorRequiredMatched  = "required skills matched"
	FactorExperienceMonths = "total experience months"
	FactorDatedEntries     = "entries with explicit duration"
	FactorShortfall        = "experience shortfall months"
	FactorRelevantEntries  = "entries mentioning a required skill"
	FactorEducationLevel   = "education level"
	FactorFieldOfStudy     = "field of study"
	FactorParseConfidence  = "parse confidence"
	FactorWordCount        = "word count"
	FactorPageCount        = "page count"
	FactorSectionPrefix    = "section "
	FactorContactPrefix    = "contact "
)

// Scorer evaluates one dimension
type Scorer interface {
	Dimension() types.Dimension
	Score(ctx context.Context, resume *types.StructuredResume, jd *types.StructuredJobDescription) types.DimensionScore
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampScore(v float64) float64 {
	return clamp(v, 0, 100)
}
