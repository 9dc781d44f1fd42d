package scoring

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/skills"
	"atscore/internal/types"
)

// SkillsScorer scores how well the resume skills cover the requirement terms
type SkillsScorer struct {
	matcher             *skills.Matcher
	preferredWeight     float64
	neutralScore        float64
	minRequirementCount int
}

// NewSkillsScorer creates a skills scorer around matcher
func NewSkillsScorer(cfg config.ScoringConfig, matcher *skills.Matcher) *SkillsScorer {
	return &SkillsScorer{
		matcher:             matcher,
		preferredWeight:     cfg.PreferredWeight,
		neutralScore:        cfg.NeutralScore,
		minRequirementCount: max(cfg.MinRequirementCount, 1),
	}
}

// Dimension implements Scorer
func (s *SkillsScorer) Dimension() types.Dimension {
	return types.DimensionSkills
}

// Score implements Scorer. The returned DimensionScore carries the matches.
func (s *SkillsScorer) Score(ctx context.Context, resume *types.StructuredResume, jd *types.StructuredJobDescription) types.DimensionScore {
	matches := s.matcher.Match(ctx, jd.RequiredSkills, jd.PreferredSkills, resume.Skills)
	return s.ScoreMatches(matches, len(jd.RequiredSkills))
}

// Credit is how much a match counts towards the skills score: 1 for exact and
// alias matches, the similarity for fuzzy and semantic ones, 0 when missing.
func Credit(m types.SkillMatch) float64 {
	switch m.Kind {
	case types.MatchExact, types.MatchAlias:
		return 1
	case types.MatchFuzzy, types.MatchSemantic:
		return clamp(m.Similarity, 0, 1)
	}
	return 0
}

// ScoreMatches scores a precomputed match list. declared is the number of
// required terms as written in the job description, blanks and duplicates
// included.
func (s *SkillsScorer) ScoreMatches(matches []types.SkillMatch, declared int) types.DimensionScore {
	var reqCredit, prefCredit float64
	var reqCount, prefCount, reqMatched int
	evidence := make([]types.Evidence, 0, len(matches)+1)

	for _, m := range matches {
		credit := Credit(m)
		actual := ""
		if m.Resume != nil {
			actual = m.Resume.Original
		}
		evidence = append(evidence, types.Evidence{
			Factor:   fmt.Sprintf("%s skill %s (%s)", m.Requirement.Category, m.Requirement.Canonical, m.Kind),
			Expected: m.Requirement.Original,
			Actual:   actual,
			Passed:   m.Matched(),
			Weight:   credit,
		})

		switch m.Requirement.Category {
		case types.CategoryPreferred:
			prefCount++
			prefCredit += credit
		default:
			reqCount++
			reqCredit += credit
			if m.Matched() {
				reqMatched++
			}
		}
	}

	base := s.neutralScore
	if reqCount > 0 {
		base = 100 * reqCredit / float64(reqCount)
	}
	bonus := 0.0
	if prefCount > 0 {
		bonus = s.preferredWeight * 100 * prefCredit / float64(prefCount)
	}

	confidence := 0.0
	if declared > 0 {
		specificity := float64(reqCount) / float64(declared)
		coverage := min(1, float64(reqCount)/float64(s.minRequirementCount))
		confidence = clamp(specificity*coverage, 0, 1)
	}

	evidence = append(evidence, types.Evidence{
		Factor:   FactorRequiredMatched,
		Expected: fmt.Sprintf("%d", reqCount),
		Actual:   fmt.Sprintf("%d", reqMatched),
		Passed:   reqMatched == reqCount,
	})

	return types.DimensionScore{
		Dimension:  types.DimensionSkills,
		Score:      clampScore(base + bonus),
		Confidence: confidence,
		Matches:    matches,
		Evidence:   evidence,
	}
}
