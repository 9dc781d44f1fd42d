package scoring

import (
	"context"
	"fmt"
	"strings"

	"atscore/internal/config"
	"atscore/internal/skills"
	"atscore/internal/types"
)

// ExperienceScorer compares the total known experience with the required
// minimum
type ExperienceScorer struct {
	canon        *skills.Canonicalizer
	neutralScore float64
}

// NewExperienceScorer creates an experience scorer. canon is used to spot
// required skills in position titles and descriptions.
func NewExperienceScorer(cfg config.ScoringConfig, canon *skills.Canonicalizer) *ExperienceScorer {
	return &ExperienceScorer{canon: canon, neutralScore: cfg.NeutralScore}
}

// Dimension implements Scorer
func (s *ExperienceScorer) Dimension() types.Dimension {
	return types.DimensionExperience
}

// Score implements Scorer
func (s *ExperienceScorer) Score(_ context.Context, resume *types.StructuredResume, jd *types.StructuredJobDescription) types.DimensionScore {
	entries := resume.Experience
	required := max(jd.MinExperienceMonths, 0)

	actual, dated := 0, 0
	for _, e := range entries {
		if e.DurationMonths != nil {
			dated++
			actual += max(*e.DurationMonths, 0)
		}
	}

	var score float64
	switch {
	case required > 0:
		score = clampScore(100 * float64(actual) / float64(required))
	case len(entries) > 0:
		score = 100
	default:
		score = s.neutralScore
	}

	confidence := 0.0
	if len(entries) > 0 {
		confidence = float64(dated) / float64(len(entries))
	}

	evidence := []types.Evidence{
		{
			Factor:   FactorExperienceMonths,
			Expected: fmt.Sprintf("%d", required),
			Actual:   fmt.Sprintf("%d", actual),
			Passed:   actual >= required,
		},
		{
			Factor:   FactorDatedEntries,
			Expected: fmt.Sprintf("%d", len(entries)),
			Actual:   fmt.Sprintf("%d", dated),
			Passed:   dated == len(entries),
		},
	}
	if required > 0 && actual < required {
		evidence = append(evidence, types.Evidence{
			Factor: FactorShortfall,
			Actual: fmt.Sprintf("%d", required-actual),
		})
	}
	if relevant := s.relevantEntries(entries, jd.RequiredSkills); len(jd.RequiredSkills) > 0 {
		evidence = append(evidence, types.Evidence{
			Factor:   FactorRelevantEntries,
			Expected: "at least 1",
			Actual:   fmt.Sprintf("%d", relevant),
			Passed:   relevant > 0,
		})
	}

	return types.DimensionScore{
		Dimension:  types.DimensionExperience,
		Score:      score,
		Confidence: confidence,
		Evidence:   evidence,
	}
}

// relevantEntries counts entries whose title or description mentions one of
// the required skills
func (s *ExperienceScorer) relevantEntries(entries []types.ExperienceEntry, required []string) int {
	terms := make([]string, 0, len(required))
	for _, r := range required {
		if c := s.canon.Canonicalize(r); c != "" {
			terms = append(terms, c)
		}
	}
	if len(terms) == 0 {
		return 0
	}

	count := 0
	for _, e := range entries {
		text := " " + s.canon.Normalize(e.Title+" "+e.Description) + " "
		for _, t := range terms {
			if strings.Contains(text, " "+t+" ") {
				count++
				break
			}
		}
	}
	return count
}
