package scoring

import (
	"context"
	"strings"

	"atscore/internal/config"
	"atscore/internal/skills"
	"atscore/internal/types"
)

// EducationScorer compares the highest degree held with the required level and
// checks the field of study against the preferred fields
type EducationScorer struct {
	penaltyPerLevel      float64
	fieldMismatchPenalty float64
}

// NewEducationScorer creates an education scorer
func NewEducationScorer(cfg config.ScoringConfig) *EducationScorer {
	return &EducationScorer{
		penaltyPerLevel:      cfg.EducationPenaltyPerLevel,
		fieldMismatchPenalty: cfg.FieldMismatchPenalty,
	}
}

// Dimension implements Scorer
func (s *EducationScorer) Dimension() types.Dimension {
	return types.DimensionEducation
}

// Score implements Scorer
func (s *EducationScorer) Score(_ context.Context, resume *types.StructuredResume, jd *types.StructuredJobDescription) types.DimensionScore {
	required := jd.RequiredEducation
	held := HighestLevel(resume.Education)

	score := 100.0
	if held < required {
		score = clampScore(100 - s.penaltyPerLevel*float64(required-held))
	}

	expected := required.Label()
	if jd.UnrecognisedEducation != "" {
		expected = jd.UnrecognisedEducation
	}
	evidence := []types.Evidence{{
		Factor:   FactorEducationLevel,
		Expected: expected,
		Actual:   held.Label(),
		Passed:   held >= required,
	}}

	if len(jd.PreferredFields) > 0 {
		related := fieldRelated(resume.Education, jd.PreferredFields)
		evidence = append(evidence, types.Evidence{
			Factor:   FactorFieldOfStudy,
			Expected: strings.Join(jd.PreferredFields, ", "),
			Actual:   strings.Join(fields(resume.Education), ", "),
			Passed:   related,
		})
		if held >= required && !related {
			score = clampScore(score - s.fieldMismatchPenalty)
		}
	}

	return types.DimensionScore{
		Dimension:  types.DimensionEducation,
		Score:      score,
		Confidence: educationConfidence(resume.Education, jd),
		Evidence:   evidence,
	}
}

// HighestLevel returns the highest recognised level across entries
func HighestLevel(entries []types.EducationEntry) types.EducationLevel {
	highest := types.EducationNone
	for _, e := range entries {
		highest = max(highest, e.ResolvedLevel())
	}
	return highest
}

// educationConfidence is 1 when there is nothing to verify and at most
// unreadableRequirementConfidence when the requirement text was not understood.
// Otherwise it grows with the share of entries whose level is recognised and,
// when fields are preferred, drops with the share of entries that omit the field.
func educationConfidence(entries []types.EducationEntry, jd *types.StructuredJobDescription) float64 {
	if jd.UnrecognisedEducation != "" {
		return min(unreadableRequirementConfidence, entryConfidence(entries, jd))
	}
	if jd.RequiredEducation == types.EducationNone && len(jd.PreferredFields) == 0 {
		return 1
	}
	return entryConfidence(entries, jd)
}

const unreadableRequirementConfidence = 0.5

func entryConfidence(entries []types.EducationEntry, jd *types.StructuredJobDescription) float64 {
	if len(entries) == 0 {
		return 0.3
	}

	recognised, withField := 0, 0
	for _, e := range entries {
		if e.ResolvedLevel() != types.EducationNone {
			recognised++
		}
		if strings.TrimSpace(e.Field) != "" {
			withField++
		}
	}
	n := float64(len(entries))
	confidence := 0.4 + 0.6*float64(recognised)/n
	if len(jd.PreferredFields) > 0 {
		confidence -= 0.1 * (n - float64(withField)) / n
	}
	return clamp(confidence, 0, 1)
}

func fields(entries []types.EducationEntry) []string {
	var out []string
	for _, e := range entries {
		if f := strings.TrimSpace(e.Field); f != "" {
			out = append(out, f)
		}
	}
	return out
}

var fieldNormalizer = skills.NewCanonicalizer()

// fieldRelated reports whether any entry field equals, contains, or shares
// enough words with a preferred field
func fieldRelated(entries []types.EducationEntry, preferred []string) bool {
	for _, f := range fields(entries) {
		have := fieldNormalizer.Normalize(f)
		for _, p := range preferred {
			want := fieldNormalizer.Normalize(p)
			if have == "" || want == "" {
				continue
			}
			if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
				return true
			}
			if skills.TokenOverlap(have, want) >= 0.3 {
				return true
			}
		}
	}
	return false
}
