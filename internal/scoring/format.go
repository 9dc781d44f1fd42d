package scoring

import (
	"context"
	"fmt"
	"strings"

	"atscore/internal/config"
	"atscore/internal/types"
)

// sectionWeights are the relative weights of the expected sections within the
// section check
var sectionWeights = []struct {
	name   string
	weight float64
}{
	{types.SectionContact, 0.2},
	{types.SectionSummary, 0.2},
	{types.SectionExperience, 0.3},
	{types.SectionEducation, 0.2},
	{types.SectionSkills, 0.1},
}

// contactWeights are the relative weights of the contact fields
var contactWeights = []struct {
	name   string
	weight float64
	get    func(types.ContactInfo) string
}{
	{"email", 0.4, func(c types.ContactInfo) string { return c.Email }},
	{"phone", 0.4, func(c types.ContactInfo) string { return c.Phone }},
	{"name", 0.2, func(c types.ContactInfo) string { return c.Name }},
}

const neutralCredit = 0.5

// FormatScorer grades document structure and quality signals
type FormatScorer struct {
	cfg config.FormatConfig
}

// NewFormatScorer creates a format scorer
func NewFormatScorer(cfg config.ScoringConfig) *FormatScorer {
	return &FormatScorer{cfg: cfg.Format}
}

// Dimension implements Scorer
func (s *FormatScorer) Dimension() types.Dimension {
	return types.DimensionFormat
}

// Score implements Scorer
func (s *FormatScorer) Score(_ context.Context, resume *types.StructuredResume, _ *types.StructuredJobDescription) types.DimensionScore {
	var evidence []types.Evidence
	explicit := 0

	// sections
	sectionCredit := 0.0
	if len(resume.Format.Sections) > 0 {
		explicit++
	}
	for _, sw := range sectionWeights {
		present := SectionPresent(resume, sw.name)
		if present {
			sectionCredit += sw.weight
		}
		evidence = append(evidence, types.Evidence{
			Factor:   FactorSectionPrefix + sw.name,
			Expected: "present",
			Actual:   presence(present),
			Passed:   present,
			Weight:   sw.weight * s.cfg.SectionsWeight,
		})
	}

	// contact completeness
	contactCredit := 0.0
	for _, cw := range contactWeights {
		present := strings.TrimSpace(cw.get(resume.Contact)) != ""
		if present {
			contactCredit += cw.weight
		}
		evidence = append(evidence, types.Evidence{
			Factor:   FactorContactPrefix + cw.name,
			Expected: "present",
			Actual:   presence(present),
			Passed:   present,
			Weight:   cw.weight * s.cfg.ContactWeight,
		})
	}

	// parse confidence
	parseCredit := neutralCredit
	if pc := resume.Format.ParseConfidence; pc != nil {
		explicit++
		parseCredit = clamp(*pc, 0, 1)
		evidence = append(evidence, types.Evidence{
			Factor:   FactorParseConfidence,
			Expected: ">= 0.70",
			Actual:   fmt.Sprintf("%.2f", *pc),
			Passed:   parseCredit >= 0.7,
			Weight:   s.cfg.ParseWeight,
		})
	}

	// length
	lengthCredit := neutralCredit
	if credit, ev, ok := s.lengthCheck(resume.Format); ok {
		explicit++
		lengthCredit = credit
		evidence = append(evidence, ev...)
	}

	total := s.cfg.SectionsWeight + s.cfg.ContactWeight + s.cfg.ParseWeight + s.cfg.LengthWeight
	weighted := s.cfg.SectionsWeight*sectionCredit +
		s.cfg.ContactWeight*contactCredit +
		s.cfg.ParseWeight*parseCredit +
		s.cfg.LengthWeight*lengthCredit
	score := 0.0
	if total > 0 {
		score = clampScore(100 * weighted / total)
	}

	return types.DimensionScore{
		Dimension:  types.DimensionFormat,
		Score:      score,
		Confidence: float64(1+explicit) / 4,
		Evidence:   evidence,
	}
}

// lengthCheck grades word and page counts. ok is false when neither is known.
func (s *FormatScorer) lengthCheck(f types.FormatSignals) (float64, []types.Evidence, bool) {
	var credits []float64
	var evidence []types.Evidence

	if f.WordCount > 0 {
		credit := 1.0
		switch {
		case s.cfg.MinWords > 0 && f.WordCount < s.cfg.MinWords:
			credit = float64(f.WordCount) / float64(s.cfg.MinWords)
		case s.cfg.MaxWords > 0 && f.WordCount > s.cfg.MaxWords:
			credit = float64(s.cfg.MaxWords) / float64(f.WordCount)
		}
		credits = append(credits, credit)
		evidence = append(evidence, types.Evidence{
			Factor:   FactorWordCount,
			Expected: fmt.Sprintf("%d-%d", s.cfg.MinWords, s.cfg.MaxWords),
			Actual:   fmt.Sprintf("%d", f.WordCount),
			Passed:   credit == 1,
			Weight:   s.cfg.LengthWeight,
		})
	}

	if f.PageCount > 0 {
		credit := 1.0
		if s.cfg.MaxPages > 0 && f.PageCount > s.cfg.MaxPages {
			credit = float64(s.cfg.MaxPages) / float64(f.PageCount)
		}
		credits = append(credits, credit)
		evidence = append(evidence, types.Evidence{
			Factor:   FactorPageCount,
			Expected: fmt.Sprintf("<= %d", s.cfg.MaxPages),
			Actual:   fmt.Sprintf("%d", f.PageCount),
			Passed:   credit == 1,
			Weight:   s.cfg.LengthWeight,
		})
	}

	if len(credits) == 0 {
		return 0, nil, false
	}
	sum := 0.0
	for _, c := range credits {
		sum += c
	}
	return sum / float64(len(credits)), evidence, true
}

// SectionPresent reports whether the named section exists. An explicit entry
// in the section map wins; otherwise presence is inferred from the content.
func SectionPresent(resume *types.StructuredResume, section string) bool {
	if present, ok := resume.Format.Sections[section]; ok {
		return present
	}
	switch section {
	case types.SectionContact:
		return !resume.Contact.IsEmpty()
	case types.SectionSummary:
		return strings.TrimSpace(resume.Summary) != ""
	case types.SectionExperience:
		return len(resume.Experience) > 0
	case types.SectionEducation:
		return len(resume.Education) > 0
	case types.SectionSkills:
		return len(resume.Skills) > 0
	}
	return false
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
