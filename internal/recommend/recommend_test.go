package recommend

import (
	"context"
	"strings"
	"testing"

	"atscore/internal/config"
	"atscore/internal/scoring"
	"atscore/internal/skills"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func months(n int) *int { return &n }

func job() *types.StructuredJobDescription {
	return &types.StructuredJobDescription{
		Title:               "Data Analyst",
		RequiredSkills:      []string{"python", "sql"},
		MinExperienceMonths: 24,
		RequiredEducation:   types.EducationBachelor,
	}
}

// run scores resume against jd with default configuration and returns the
// generator input
func run(resume *types.StructuredResume, jd *types.StructuredJobDescription) Input {
	cfg := config.DefaultScoringConfig()
	matcher := skills.NewMatcher(cfg, nil, nil)
	ctx := context.Background()

	skillsScore := scoring.NewSkillsScorer(cfg, matcher).Score(ctx, resume, jd)
	scores := []types.DimensionScore{
		skillsScore,
		scoring.NewExperienceScorer(cfg, matcher.Canonicalizer()).Score(ctx, resume, jd),
		scoring.NewEducationScorer(cfg).Score(ctx, resume, jd),
		scoring.NewFormatScorer(cfg).Score(ctx, resume, jd),
	}
	return Input{
		Result:  scoring.NewAggregator(cfg).Aggregate(scores, nil),
		Matches: skillsScore.Matches,
		Resume:  resume,
		Job:     jd,
	}
}

func generate(in Input) []types.Recommendation {
	return NewGenerator(config.DefaultScoringConfig()).Generate(in)
}

func assertOrdered(t *testing.T, recs []types.Recommendation) {
	t.Helper()
	for i, r := range recs {
		assert.Equal(t, i+1, r.Priority)
		if i > 0 {
			assert.LessOrEqual(t, r.Impact, recs[i-1].Impact)
		}
	}
}

func TestWeakCandidateNamesMissingSkillsFirst(t *testing.T) {
	resume := &types.StructuredResume{
		Skills:     []string{"excel"},
		Experience: []types.ExperienceEntry{{Title: "Office Assistant", DurationMonths: months(6)}},
	}
	recs := generate(run(resume, job()))
	require.GreaterOrEqual(t, len(recs), 2)
	assertOrdered(t, recs)

	assert.Equal(t, "python", recs[0].Skill)
	assert.Equal(t, "sql", recs[1].Skill)
	for _, r := range recs[:2] {
		assert.Equal(t, types.DimensionSkills, r.Dimension)
		assert.InDelta(t, 20, r.Impact, 1e-9)
		assert.Contains(t, r.Gap, "Missing required skill")
	}

	dims := map[types.Dimension]bool{}
	for _, r := range recs {
		dims[r.Dimension] = true
	}
	assert.True(t, dims[types.DimensionExperience])
	assert.True(t, dims[types.DimensionEducation])
	assert.True(t, dims[types.DimensionFormat])
}

func TestStrongCandidateGetsNoRecommendations(t *testing.T) {
	parse := 0.95
	resume := &types.StructuredResume{
		Contact:    types.ContactInfo{Name: "Ada", Email: "ada@example.com", Phone: "555-0100"},
		Skills:     []string{"Python", "SQL", "Excel"},
		Experience: []types.ExperienceEntry{{Title: "Analyst", DurationMonths: months(36)}},
		Education:  []types.EducationEntry{{Level: types.EducationMaster, Field: "Statistics"}},
		Summary:    "Analyst.",
		Format:     types.FormatSignals{WordCount: 500, PageCount: 1, ParseConfidence: &parse},
	}
	assert.Empty(t, generate(run(resume, job())))
}

func TestLooseMatchRecommendsExactTerm(t *testing.T) {
	jd := job()
	jd.RequiredSkills = []string{"PostgreSQL", "python", "tableau", "statistics"}
	resume := &types.StructuredResume{Skills: []string{"postgresqx", "python"}}

	in := run(resume, jd)
	recs := generate(in)
	assertOrdered(t, recs)

	var exact *types.Recommendation
	for i := range recs {
		if recs[i].Skill == "postgresql" {
			exact = &recs[i]
		}
	}
	require.NotNil(t, exact)
	assert.Contains(t, exact.Action, `Use the exact term "PostgreSQL"`)
	// 25 points per skill, 10% of it missing, skills weight 0.4
	assert.InDelta(t, 1.0, exact.Impact, 1e-9)
}

func TestMissingPreferredSkill(t *testing.T) {
	jd := job()
	jd.PreferredSkills = []string{"Tableau"}
	resume := &types.StructuredResume{Skills: []string{"python"}}

	recs := generate(run(resume, jd))
	var found bool
	for _, r := range recs {
		if r.Skill == "tableau" {
			found = true
			assert.Contains(t, r.Gap, "preferred")
			// min(gap, 100) * 0.3 * 0.4 with gap = 85 - (50 + 0)
			assert.InDelta(t, 35*0.3*0.4, r.Impact, 1e-9)
		}
	}
	assert.True(t, found)
}

func TestExperienceRecommendations(t *testing.T) {
	resume := &types.StructuredResume{
		Skills: []string{"python", "sql"},
		Experience: []types.ExperienceEntry{
			{Title: "Analyst", DurationMonths: months(6)},
			{Title: "Intern"},
		},
	}
	recs := generate(run(resume, job()))

	var gaps []string
	for _, r := range recs {
		if r.Dimension == types.DimensionExperience {
			gaps = append(gaps, r.Gap)
		}
	}
	require.Len(t, gaps, 2)
	assert.Contains(t, gaps[0], "6 months listed against 24 required")
	assert.Contains(t, gaps[1], "1 of 2 positions have no dates")
}

func TestEducationRecommendations(t *testing.T) {
	t.Run("level below requirement", func(t *testing.T) {
		resume := &types.StructuredResume{Education: []types.EducationEntry{{Degree: "High School Diploma"}}}
		recs := generate(run(resume, job()))
		var gap string
		for _, r := range recs {
			if r.Dimension == types.DimensionEducation {
				gap = r.Gap
			}
		}
		assert.Equal(t, "Requires a bachelor's degree; resume shows high school diploma", gap)
	})

	t.Run("field mismatch", func(t *testing.T) {
		cfg := config.DefaultScoringConfig()
		cfg.Targets.Education = 95
		jd := job()
		jd.PreferredFields = []string{"Computer Science"}
		resume := &types.StructuredResume{Education: []types.EducationEntry{{Level: types.EducationBachelor, Field: "Art History"}}}

		in := run(resume, jd)
		recs := NewGenerator(cfg).Generate(in)
		var gap string
		for _, r := range recs {
			if r.Dimension == types.DimensionEducation {
				gap = r.Gap
			}
		}
		assert.Contains(t, gap, "Computer Science")
	})
}

func TestFormatRecommendationsPerFailingCheck(t *testing.T) {
	resume := &types.StructuredResume{
		Skills: []string{"python", "sql"},
		Format: types.FormatSignals{WordCount: 40},
	}
	recs := generate(run(resume, job()))

	var gaps []string
	for _, r := range recs {
		if r.Dimension == types.DimensionFormat {
			gaps = append(gaps, r.Gap)
		}
	}
	joined := strings.Join(gaps, "\n")
	assert.Contains(t, joined, "Missing experience section")
	assert.Contains(t, joined, "Contact details are missing the email")
	assert.Contains(t, joined, "Word count 40 is outside 150-1200")
	assert.NotContains(t, joined, "Missing skills section")
}

func TestGenericRecommendationWhenNoSpecificGap(t *testing.T) {
	in := Input{
		Result: types.ATSScoreResult{
			Dimensions: []types.DimensionScore{{Dimension: types.DimensionSkills, Score: 60}},
			Weights:    map[types.Dimension]float64{types.DimensionSkills: 1},
		},
	}
	recs := generate(in)
	require.Len(t, recs, 1)
	assert.Equal(t, "Skills coverage is below target", recs[0].Gap)
	assert.InDelta(t, 25, recs[0].Impact, 1e-9)
	assert.False(t, recs[0].Enriched)
}

func TestEnrichmentUsesExemplars(t *testing.T) {
	in := Input{
		Result: types.ATSScoreResult{
			Dimensions: []types.DimensionScore{
				{Dimension: types.DimensionExperience, Score: 40},
				{Dimension: types.DimensionEducation, Score: 35},
			},
			Weights: map[types.Dimension]float64{types.DimensionExperience: 0.5, types.DimensionEducation: 0.5},
		},
		Profiles: map[types.Dimension]types.BenchmarkProfile{
			types.DimensionExperience: {
				Found:     true,
				Exemplars: map[types.Dimension][]string{types.DimensionExperience: {"Quantify achievements"}},
			},
		},
	}
	recs := generate(in)
	require.Len(t, recs, 2)

	// equal impact falls back to dimension order
	assert.Equal(t, types.DimensionExperience, recs[0].Dimension)
	assert.True(t, recs[0].Enriched)
	assert.True(t, strings.HasSuffix(recs[0].Action, "Example: Quantify achievements"))
	assert.Equal(t, types.DimensionEducation, recs[1].Dimension)
	assert.False(t, recs[1].Enriched)
}

func TestGenerateIsDeterministic(t *testing.T) {
	resume := &types.StructuredResume{
		Skills:     []string{"excel", "postgresqx"},
		Experience: []types.ExperienceEntry{{Title: "Clerk"}},
	}
	jd := job()
	jd.RequiredSkills = append(jd.RequiredSkills, "postgresql", "tableau")
	jd.PreferredSkills = []string{"r", "looker"}

	first := generate(run(resume, jd))
	for range 10 {
		assert.Equal(t, first, generate(run(resume, jd)))
	}
	assertOrdered(t, first)
}

func TestSkillsListContentRecommendations(t *testing.T) {
	resume := &types.StructuredResume{Skills: []string{"python"}}
	in := run(resume, job())
	require.Less(t, in.Result.Overall, 70.0)

	recs := generate(in)
	assertOrdered(t, recs)

	byGap := map[string]types.Recommendation{}
	for _, r := range recs {
		if r.Dimension == types.DimensionSkills && r.Skill == "" {
			byGap[r.Gap] = r
		}
	}

	short, ok := byGap["Only 1 skills listed"]
	require.True(t, ok)
	// gap 85-50, skills weight 0.4, preferred tier 0.3, 4 of 5 skills short
	assert.InDelta(t, round2(35*0.4*0.3*0.8), short.Impact, 1e-9)
	assert.Contains(t, short.Action, "at least 5")

	var keyword *types.Recommendation
	for gap, r := range byGap {
		if strings.HasPrefix(gap, "Overall score") {
			keyword = &r
		}
	}
	require.NotNil(t, keyword)
	assert.Contains(t, keyword.Action, "keywords")

	sqlRank, shortRank := 0, 0
	for _, r := range recs {
		switch {
		case r.Skill == "sql":
			sqlRank = r.Priority
		case r.Gap == short.Gap:
			shortRank = r.Priority
		}
	}
	assert.Less(t, sqlRank, shortRank, "a named missing skill outranks general advice")
}

func TestSkillsListContentThresholds(t *testing.T) {
	cfg := config.DefaultScoringConfig()
	cfg.MinListedSkills = 0
	cfg.KeywordReviewBelow = 0

	in := run(&types.StructuredResume{Skills: []string{"python"}}, job())
	for _, r := range NewGenerator(cfg).Generate(in) {
		if r.Dimension == types.DimensionSkills {
			assert.NotEmpty(t, r.Skill, "only per-skill advice is expected, got %q", r.Gap)
		}
	}
}
