package config

import (
	"fmt"

	"atscore/internal/types"
)

// ScoringConfig holds the tunables of the scoring pipeline
type ScoringConfig struct {
	Weights                  DimensionWeights  `mapstructure:"weights"`
	Targets                  DimensionWeights  `mapstructure:"targets"` // per-dimension score a recommendation aims for
	FuzzyThreshold           float64           `mapstructure:"fuzzyThreshold"`
	SemanticThreshold        float64           `mapstructure:"semanticThreshold"`
	PreferredWeight          float64           `mapstructure:"preferredWeight"`
	MinRequirementCount      int               `mapstructure:"minRequirementCount"`
	NeutralScore             float64           `mapstructure:"neutralScore"`
	EducationPenaltyPerLevel float64           `mapstructure:"educationPenaltyPerLevel"`
	FieldMismatchPenalty     float64           `mapstructure:"fieldMismatchPenalty"`
	MinListedSkills          int               `mapstructure:"minListedSkills"`    // shorter skills lists get a recommendation
	KeywordReviewBelow       float64           `mapstructure:"keywordReviewBelow"` // overall score under which keyword advice is given
	Interval                 IntervalConfig    `mapstructure:"interval"`
	Format                   FormatConfig      `mapstructure:"format"`
	Aliases                  map[string]string `mapstructure:"aliases"` // extra alias -> canonical skill names
}

// DimensionWeights holds one value per scoring dimension
type DimensionWeights struct {
	Skills     float64 `mapstructure:"skills"`
	Experience float64 `mapstructure:"experience"`
	Education  float64 `mapstructure:"education"`
	Format     float64 `mapstructure:"format"`
}

// IntervalConfig controls the width of the confidence interval
type IntervalConfig struct {
	BaseHalfWidth float64 `mapstructure:"baseHalfWidth"`
	MaxHalfWidth  float64 `mapstructure:"maxHalfWidth"`
	MinConfidence float64 `mapstructure:"minConfidence"`
}

// FormatConfig holds the format dimension weights and length bounds
type FormatConfig struct {
	SectionsWeight float64 `mapstructure:"sectionsWeight"`
	ContactWeight  float64 `mapstructure:"contactWeight"`
	ParseWeight    float64 `mapstructure:"parseWeight"`
	LengthWeight   float64 `mapstructure:"lengthWeight"`
	MinWords       int     `mapstructure:"minWords"`
	MaxWords       int     `mapstructure:"maxWords"`
	MaxPages       int     `mapstructure:"maxPages"`
}

// DefaultScoringConfig returns the built-in scoring configuration
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: DimensionWeights{
			Skills:     0.40,
			Experience: 0.25,
			Education:  0.20,
			Format:     0.15,
		},
		Targets: DimensionWeights{
			Skills:     85,
			Experience: 80,
			Education:  75,
			Format:     75,
		},
		FuzzyThreshold:           0.85,
		SemanticThreshold:        0.80,
		PreferredWeight:          0.3,
		MinRequirementCount:      3,
		NeutralScore:             50,
		EducationPenaltyPerLevel: 25,
		FieldMismatchPenalty:     10,
		MinListedSkills:          5,
		KeywordReviewBelow:       70,
		Interval: IntervalConfig{
			BaseHalfWidth: 5,
			MaxHalfWidth:  50,
			MinConfidence: 0.05,
		},
		Format: FormatConfig{
			SectionsWeight: 0.40,
			ContactWeight:  0.30,
			ParseWeight:    0.15,
			LengthWeight:   0.15,
			MinWords:       150,
			MaxWords:       1200,
			MaxPages:       2,
		},
	}
}

// Get returns the value for d
func (w DimensionWeights) Get(d types.Dimension) float64 {
	switch d {
	case types.DimensionSkills:
		return w.Skills
	case types.DimensionExperience:
		return w.Experience
	case types.DimensionEducation:
		return w.Education
	case types.DimensionFormat:
		return w.Format
	}
	return 0
}

// AsMap returns the values keyed by dimension
func (w DimensionWeights) AsMap() map[types.Dimension]float64 {
	m := make(map[types.Dimension]float64, len(types.Dimensions))
	for _, d := range types.Dimensions {
		m[d] = w.Get(d)
	}
	return m
}

// Sum returns the total of all values
func (w DimensionWeights) Sum() float64 {
	return w.Skills + w.Experience + w.Education + w.Format
}

// Validate checks the scoring tunables
func (s ScoringConfig) Validate() error {
	for _, d := range types.Dimensions {
		if w := s.Weights.Get(d); w < 0 {
			return fmt.Errorf("weight for %s must not be negative, got %v", d, w)
		}
		if t := s.Targets.Get(d); t < 0 || t > 100 {
			return fmt.Errorf("target for %s must be within [0,100], got %v", d, t)
		}
	}
	if s.Weights.Sum() <= 0 {
		return fmt.Errorf("at least one dimension weight must be positive")
	}
	if s.FuzzyThreshold <= 0 || s.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzyThreshold must be within (0,1], got %v", s.FuzzyThreshold)
	}
	if s.SemanticThreshold <= 0 || s.SemanticThreshold > 1 {
		return fmt.Errorf("semanticThreshold must be within (0,1], got %v", s.SemanticThreshold)
	}
	if s.PreferredWeight < 0 || s.PreferredWeight > 1 {
		return fmt.Errorf("preferredWeight must be within [0,1], got %v", s.PreferredWeight)
	}
	if s.MinRequirementCount < 1 {
		return fmt.Errorf("minRequirementCount must be at least 1")
	}
	if s.NeutralScore < 0 || s.NeutralScore > 100 {
		return fmt.Errorf("neutralScore must be within [0,100], got %v", s.NeutralScore)
	}
	if s.EducationPenaltyPerLevel < 0 || s.FieldMismatchPenalty < 0 {
		return fmt.Errorf("education penalties must not be negative")
	}
	if s.MinListedSkills < 0 {
		return fmt.Errorf("minListedSkills must not be negative")
	}
	if s.KeywordReviewBelow < 0 || s.KeywordReviewBelow > 100 {
		return fmt.Errorf("keywordReviewBelow must be within [0,100], got %v", s.KeywordReviewBelow)
	}
	if s.Interval.BaseHalfWidth < 0 || s.Interval.MaxHalfWidth < s.Interval.BaseHalfWidth {
		return fmt.Errorf("interval half widths must satisfy 0 <= base <= max")
	}
	if s.Interval.MinConfidence <= 0 || s.Interval.MinConfidence > 1 {
		return fmt.Errorf("interval minConfidence must be within (0,1], got %v", s.Interval.MinConfidence)
	}

	f := s.Format
	if f.SectionsWeight < 0 || f.ContactWeight < 0 || f.ParseWeight < 0 || f.LengthWeight < 0 {
		return fmt.Errorf("format weights must not be negative")
	}
	if f.SectionsWeight+f.ContactWeight+f.ParseWeight+f.LengthWeight <= 0 {
		return fmt.Errorf("at least one format weight must be positive")
	}
	if f.MinWords < 0 || f.MinWords > f.MaxWords {
		return fmt.Errorf("format word bounds must satisfy 0 <= minWords <= maxWords")
	}
	if f.MaxPages < 1 {
		return fmt.Errorf("format maxPages must be at least 1")
	}
	return nil
}
