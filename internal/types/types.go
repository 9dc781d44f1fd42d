package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Dimension names one evaluated facet of fit
type Dimension string

const (
	DimensionSkills     Dimension = "skills"
	DimensionExperience Dimension = "experience"
	DimensionEducation  Dimension = "education"
	DimensionFormat     Dimension = "format"
)

// Dimensions lists every dimension in scorer order. Recommendation ties are
// broken by this order.
var Dimensions = []Dimension{
	DimensionSkills,
	DimensionExperience,
	DimensionEducation,
	DimensionFormat,
}

// Order returns the position of d in Dimensions, or len(Dimensions) if unknown.
func (d Dimension) Order() int {
	for i, dim := range Dimensions {
		if dim == d {
			return i
		}
	}
	return len(Dimensions)
}

// Valid reports whether d is one of the known dimensions.
func (d Dimension) Valid() bool {
	return d.Order() < len(Dimensions)
}

// SkillCategory distinguishes required from preferred requirement terms
type SkillCategory string

const (
	CategoryRequired  SkillCategory = "required"
	CategoryPreferred SkillCategory = "preferred"
)

// SkillSource records which document a term came from
type SkillSource string

const (
	SourceResume      SkillSource = "resume"
	SourceRequirement SkillSource = "requirement"
)

// SkillTerm is a skill in canonical form together with the text it came from
type SkillTerm struct {
	Canonical string        `json:"canonical"`
	Original  string        `json:"original"`
	Aliases   []string      `json:"aliases,omitempty"`
	Category  SkillCategory `json:"category,omitempty"`
	Source    SkillSource   `json:"source"`
	Position  int           `json:"position"`
}

// MatchKind is how a requirement term was satisfied
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchAlias    MatchKind = "alias"
	MatchFuzzy    MatchKind = "fuzzy"
	MatchSemantic MatchKind = "semantic"
	MatchMissing  MatchKind = "missing"
)

// Rank returns the precedence of k; lower wins.
func (k MatchKind) Rank() int {
	switch k {
	case MatchExact:
		return 0
	case MatchAlias:
		return 1
	case MatchFuzzy:
		return 2
	case MatchSemantic:
		return 3
	default:
		return 4
	}
}

// SkillMatch pairs a requirement term with the resume term that satisfied it
type SkillMatch struct {
	Requirement SkillTerm  `json:"requirement"`
	Resume      *SkillTerm `json:"resume,omitempty"`
	Kind        MatchKind  `json:"kind"`
	Similarity  float64    `json:"similarity"`
}

// Matched reports whether the requirement was satisfied at all
func (m SkillMatch) Matched() bool {
	return m.Kind != MatchMissing
}

// ContactInfo holds the candidate's contact block
type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// IsEmpty reports whether no contact field is set
func (c ContactInfo) IsEmpty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == "" && c.Location == "" && c.LinkedIn == ""
}

// ExperienceEntry is one position on the resume
type ExperienceEntry struct {
	Title          string `json:"title"`
	Company        string `json:"company,omitempty"`
	DurationMonths *int   `json:"durationMonths,omitempty"` // nil when the resume gives no dates
	Description    string `json:"description,omitempty"`
}

// EducationEntry is one degree or certification on the resume
type EducationEntry struct {
	Degree      string         `json:"degree,omitempty"`
	Level       EducationLevel `json:"level"`
	Field       string         `json:"field,omitempty"`
	Institution string         `json:"institution,omitempty"`
}

// UnmarshalJSON keeps a level string that names no known level as the degree
// text, so the entry still counts as education whose level is unknown
func (e *EducationEntry) UnmarshalJSON(data []byte) error {
	type plain EducationEntry
	var raw struct {
		plain
		Level string `json:"level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = EducationEntry(raw.plain)
	level, ok := ParseEducationLevel(raw.Level)
	e.Level = level
	if !ok && strings.TrimSpace(e.Degree) == "" {
		e.Degree = strings.TrimSpace(raw.Level)
	}
	return nil
}

// ResolvedLevel returns Level, or the level parsed from Degree when Level is unset.
func (e EducationEntry) ResolvedLevel() EducationLevel {
	if e.Level != EducationNone {
		return e.Level
	}
	level, _ := ParseEducationLevel(e.Degree)
	return level
}

// Section names used in FormatSignals.Sections
const (
	SectionContact    = "contact"
	SectionSummary    = "summary"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
)

// FormatSignals are document-quality signals produced by upstream extraction
type FormatSignals struct {
	Sections        map[string]bool `json:"sections,omitempty"`
	WordCount       int             `json:"wordCount,omitempty"`
	PageCount       int             `json:"pageCount,omitempty"`
	ParseConfidence *float64        `json:"parseConfidence,omitempty"`
}

// StructuredResume is the extracted resume. The engine never modifies it.
type StructuredResume struct {
	Contact    ContactInfo       `json:"contact"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Summary    string            `json:"summary,omitempty"`
	Format     FormatSignals     `json:"format"`
}

// StructuredJobDescription is the extracted job posting. The engine never modifies it.
type StructuredJobDescription struct {
	Title               string         `json:"title,omitempty"`
	RoleCategory        string         `json:"roleCategory,omitempty"`
	RequiredSkills      []string       `json:"requiredSkills"`
	PreferredSkills     []string       `json:"preferredSkills,omitempty"`
	MinExperienceMonths int            `json:"minExperienceMonths"`
	RequiredEducation   EducationLevel `json:"requiredEducation"`
	PreferredFields     []string       `json:"preferredFields,omitempty"`

	// UnrecognisedEducation holds requiredEducation text that named no known
	// level. RequiredEducation is EducationNone in that case.
	UnrecognisedEducation string `json:"-"`
}

// UnmarshalJSON records requiredEducation text that names no known level
func (j *StructuredJobDescription) UnmarshalJSON(data []byte) error {
	type plain StructuredJobDescription
	var raw struct {
		plain
		RequiredEducation string `json:"requiredEducation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*j = StructuredJobDescription(raw.plain)
	level, ok := ParseEducationLevel(raw.RequiredEducation)
	j.RequiredEducation = level
	j.UnrecognisedEducation = ""
	if !ok {
		j.UnrecognisedEducation = strings.TrimSpace(raw.RequiredEducation)
	}
	return nil
}

// BenchmarkKey is the text used to look the role up in the benchmark index
func (j StructuredJobDescription) BenchmarkKey() string {
	if j.RoleCategory != "" {
		return j.RoleCategory
	}
	return j.Title
}

// Evidence is one contributing fact behind a dimension score
type Evidence struct {
	Factor   string  `json:"factor"`
	Expected string  `json:"expected,omitempty"`
	Actual   string  `json:"actual,omitempty"`
	Passed   bool    `json:"passed"`
	Weight   float64 `json:"weight,omitempty"`
}

// DimensionScore is the output of one scorer
type DimensionScore struct {
	Dimension  Dimension    `json:"dimension"`
	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
	Matches    []SkillMatch `json:"matches,omitempty"`
	Evidence   []Evidence   `json:"evidence,omitempty"`
}

// Distribution is the typical score spread for a dimension
type Distribution struct {
	Mean   float64 `json:"mean"`
	Spread float64 `json:"spread"`
}

// BenchmarkProfile is retrieved calibration data for a role category.
// A profile may be partial; Found is false for the no-data sentinel.
type BenchmarkProfile struct {
	ID            string                     `json:"id"`
	RoleCategory  string                     `json:"roleCategory"`
	Industry      string                     `json:"industry,omitempty"`
	Keywords      []string                   `json:"keywords,omitempty"`
	Weights       map[Dimension]float64      `json:"weights,omitempty"`
	Distributions map[Dimension]Distribution `json:"distributions,omitempty"`
	Exemplars     map[Dimension][]string     `json:"exemplars,omitempty"`
	AverageScore  float64                    `json:"averageScore,omitempty"`
	TopScore      float64                    `json:"topScore,omitempty"`
	Confidence    float64                    `json:"confidence"`
	Found         bool                       `json:"found"`
}

// NoBenchmark is returned when retrieval yields nothing usable
var NoBenchmark = BenchmarkProfile{}

// ConfidenceInterval bounds the overall score
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ATSScoreResult is created once per scoring run and not modified afterwards
type ATSScoreResult struct {
	ID            string                `json:"id"`
	Overall       float64               `json:"overall"`
	Interval      ConfidenceInterval    `json:"interval"`
	Confidence    float64               `json:"confidence"`
	Dimensions    []DimensionScore      `json:"dimensions"`
	Weights       map[Dimension]float64 `json:"weights"`
	BenchmarkUsed bool                  `json:"benchmarkUsed"`
	Timestamp     time.Time             `json:"timestamp"`
}

// Dimension returns the score for d, if present
func (r ATSScoreResult) Dimension(d Dimension) (DimensionScore, bool) {
	for _, ds := range r.Dimensions {
		if ds.Dimension == d {
			return ds, true
		}
	}
	return DimensionScore{}, false
}

// Recommendation is one ranked improvement action
type Recommendation struct {
	Dimension Dimension `json:"dimension"`
	Priority  int       `json:"priority"`
	Gap       string    `json:"gap"`
	Action    string    `json:"action"`
	Impact    float64   `json:"impact"`
	Skill     string    `json:"skill,omitempty"`
	Enriched  bool      `json:"enriched"`
}

// BenchmarkComparison places the overall score against the industry benchmark
type BenchmarkComparison struct {
	Industry     string  `json:"industry"`
	RoleCategory string  `json:"roleCategory"`
	Score        float64 `json:"score"`
	AverageScore float64 `json:"averageScore"`
	TopScore     float64 `json:"topScore"`
	Percentile   float64 `json:"percentile"`
	Standing     string  `json:"standing"`
}

// ScoreReport bundles everything one scoring run produces
type ScoreReport struct {
	Result          ATSScoreResult       `json:"result"`
	Matches         []SkillMatch         `json:"matches"`
	Recommendations []Recommendation     `json:"recommendations"`
	Comparison      *BenchmarkComparison `json:"comparison,omitempty"`
}

// MatchReport is the output of a standalone skill match
type MatchReport struct {
	Matches []SkillMatch `json:"matches"`
	Missing []string     `json:"missing"`
}

// BenchmarkSearchResult is one hit from a direct benchmark index query
type BenchmarkSearchResult struct {
	ProfileID    string  `json:"profileId"`
	RoleCategory string  `json:"roleCategory"`
	Industry     string  `json:"industry,omitempty"`
	Similarity   float64 `json:"similarity"`
}

// BenchmarkSearchOutput is the output of a direct benchmark index query
type BenchmarkSearchOutput struct {
	Query   string                  `json:"query"`
	Results []BenchmarkSearchResult `json:"results"`
}

// CanonicalizeOutput lists canonical forms for a set of raw terms
type CanonicalizeOutput struct {
	Terms []SkillTerm `json:"terms"`
}
