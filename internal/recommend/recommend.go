// Package recommend turns dimension score gaps into ranked improvement
// actions.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"atscore/internal/config"
	"atscore/internal/scoring"
	"atscore/internal/types"
)

// Input is everything one generation run looks at
type Input struct {
	Result   types.ATSScoreResult
	Matches  []types.SkillMatch
	Profiles map[types.Dimension]types.BenchmarkProfile // per-dimension partial profiles, may be empty
	Resume   *types.StructuredResume
	Job      *types.StructuredJobDescription
}

// Generator produces recommendations for dimensions scoring below target
type Generator struct {
	targets         config.DimensionWeights
	defaults        config.DimensionWeights
	preferredWeight float64
	minListed       int
	keywordBelow    float64
	format          config.FormatConfig
}

// NewGenerator creates a generator
func NewGenerator(cfg config.ScoringConfig) *Generator {
	return &Generator{
		targets:         cfg.Targets,
		defaults:        cfg.Weights,
		preferredWeight: cfg.PreferredWeight,
		minListed:       cfg.MinListedSkills,
		keywordBelow:    cfg.KeywordReviewBelow,
		format:          cfg.Format,
	}
}

// gap describes a shortfall in one dimension
type gap struct {
	dim    types.Dimension
	points float64 // target - score
	weight float64
}

// Generate returns recommendations ordered by descending impact, ties broken
// by dimension order. Priorities start at 1.
func (g *Generator) Generate(in Input) []types.Recommendation {
	var recs []types.Recommendation

	for _, ds := range in.Result.Dimensions {
		target := g.targets.Get(ds.Dimension)
		if ds.Score >= target {
			continue
		}
		weight, ok := in.Result.Weights[ds.Dimension]
		if !ok {
			weight = g.defaults.Get(ds.Dimension)
		}
		gp := gap{dim: ds.Dimension, points: target - ds.Score, weight: weight}

		var dimRecs []types.Recommendation
		switch ds.Dimension {
		case types.DimensionSkills:
			dimRecs = append(g.skills(gp, in.Matches), g.skillsContent(gp, in)...)
		case types.DimensionExperience:
			dimRecs = g.experience(gp, in.Resume, in.Job)
		case types.DimensionEducation:
			dimRecs = g.education(gp, ds, in.Resume, in.Job)
		case types.DimensionFormat:
			dimRecs = g.formatRecs(gp, ds)
		}
		if len(dimRecs) == 0 {
			dimRecs = []types.Recommendation{generic(gp)}
		}
		enrich(dimRecs, in.Profiles[ds.Dimension])
		recs = append(recs, dimRecs...)
	}

	for i := range recs {
		recs[i].Impact = round2(recs[i].Impact)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Impact != recs[j].Impact {
			return recs[i].Impact > recs[j].Impact
		}
		return recs[i].Dimension.Order() < recs[j].Dimension.Order()
	})
	for i := range recs {
		recs[i].Priority = i + 1
	}
	return recs
}

func (g *Generator) skills(gp gap, matches []types.SkillMatch) []types.Recommendation {
	var required, preferred []types.SkillMatch
	for _, m := range matches {
		if m.Requirement.Category == types.CategoryPreferred {
			preferred = append(preferred, m)
		} else {
			required = append(required, m)
		}
	}

	var recs []types.Recommendation
	if n := len(required); n > 0 {
		perSkill := min(gp.points, 100/float64(n)) * gp.weight
		for _, m := range required {
			name := display(m.Requirement)
			switch {
			case !m.Matched():
				recs = append(recs, types.Recommendation{
					Dimension: types.DimensionSkills,
					Gap:       fmt.Sprintf("Missing required skill: %s", name),
					Action:    fmt.Sprintf("Add %q to your skills section and show it in an experience bullet if you have used it", name),
					Impact:    perSkill,
					Skill:     m.Requirement.Canonical,
				})
			case m.Kind == types.MatchFuzzy || m.Kind == types.MatchSemantic:
				if m.Similarity >= 1 || m.Resume == nil {
					continue
				}
				recs = append(recs, types.Recommendation{
					Dimension: types.DimensionSkills,
					Gap:       fmt.Sprintf("Required skill %s only loosely matched by %q", name, m.Resume.Original),
					Action:    fmt.Sprintf("Use the exact term %q from the job description instead of %q", name, m.Resume.Original),
					Impact:    perSkill * (1 - m.Similarity),
					Skill:     m.Requirement.Canonical,
				})
			}
		}
	}

	if n := len(preferred); n > 0 {
		perSkill := min(gp.points, 100/float64(n)) * g.preferredWeight * gp.weight
		for _, m := range preferred {
			if m.Matched() {
				continue
			}
			name := display(m.Requirement)
			recs = append(recs, types.Recommendation{
				Dimension: types.DimensionSkills,
				Gap:       fmt.Sprintf("Missing preferred skill: %s", name),
				Action:    fmt.Sprintf("Consider adding %q if you have experience with it", name),
				Impact:    perSkill,
				Skill:     m.Requirement.Canonical,
			})
		}
	}
	return recs
}

// skillsContent covers the skills list as a whole: a list too short to carry
// the job's keywords, and keyword advice when the overall score is low. Both
// rank at the preferred-skill tier, below any named required skill.
func (g *Generator) skillsContent(gp gap, in Input) []types.Recommendation {
	var recs []types.Recommendation
	advisory := gp.points * gp.weight * g.preferredWeight

	if in.Resume != nil && g.minListed > 0 {
		if n := len(in.Resume.Skills); n < g.minListed {
			recs = append(recs, types.Recommendation{
				Dimension: types.DimensionSkills,
				Gap:       fmt.Sprintf("Only %d skills listed", n),
				Action:    fmt.Sprintf("List at least %d relevant technical and soft skills in a dedicated skills section", g.minListed),
				Impact:    advisory * float64(g.minListed-n) / float64(g.minListed),
			})
		}
	}

	if len(in.Matches) > 0 && g.keywordBelow > 0 && in.Result.Overall < g.keywordBelow {
		recs = append(recs, types.Recommendation{
			Dimension: types.DimensionSkills,
			Gap:       fmt.Sprintf("Overall score %.0f is below %.0f", in.Result.Overall, g.keywordBelow),
			Action:    "Use the job description's keywords, and common variations of them, in your summary, skills and experience bullets",
			Impact:    advisory * (g.keywordBelow - in.Result.Overall) / g.keywordBelow,
		})
	}
	return recs
}

func (g *Generator) experience(gp gap, resume *types.StructuredResume, jd *types.StructuredJobDescription) []types.Recommendation {
	if resume == nil || jd == nil {
		return nil
	}
	actual, undated := 0, 0
	for _, e := range resume.Experience {
		if e.DurationMonths == nil {
			undated++
			continue
		}
		actual += max(*e.DurationMonths, 0)
	}

	var recs []types.Recommendation
	if required := jd.MinExperienceMonths; required > actual {
		recs = append(recs, types.Recommendation{
			Dimension: types.DimensionExperience,
			Gap:       fmt.Sprintf("Experience shortfall: %d months listed against %d required", actual, required),
			Action:    "Add relevant roles, internships, freelance or project work with start and end dates",
			Impact:    gp.points * gp.weight,
		})
	}
	if undated > 0 {
		share := float64(undated) / float64(len(resume.Experience))
		recs = append(recs, types.Recommendation{
			Dimension: types.DimensionExperience,
			Gap:       fmt.Sprintf("%d of %d positions have no dates", undated, len(resume.Experience)),
			Action:    "Add start and end dates to every position so its duration counts",
			Impact:    gp.points * gp.weight * share,
		})
	}
	return recs
}

func (g *Generator) education(gp gap, ds types.DimensionScore, resume *types.StructuredResume, jd *types.StructuredJobDescription) []types.Recommendation {
	if resume == nil || jd == nil {
		return nil
	}
	held := scoring.HighestLevel(resume.Education)
	if held < jd.RequiredEducation {
		return []types.Recommendation{{
			Dimension: types.DimensionEducation,
			Gap:       fmt.Sprintf("Requires a %s; resume shows %s", jd.RequiredEducation.Label(), held.Label()),
			Action:    "List your highest qualification with its level, field and institution, and add equivalent certifications",
			Impact:    gp.points * gp.weight,
		}}
	}
	for _, ev := range ds.Evidence {
		if ev.Factor == scoring.FactorFieldOfStudy && !ev.Passed {
			return []types.Recommendation{{
				Dimension: types.DimensionEducation,
				Gap:       fmt.Sprintf("Field of study is not one of the preferred fields: %s", ev.Expected),
				Action:    fmt.Sprintf("Mention coursework, projects or certifications related to %s", ev.Expected),
				Impact:    gp.points * gp.weight,
			}}
		}
	}
	return nil
}

func (g *Generator) formatRecs(gp gap, ds types.DimensionScore) []types.Recommendation {
	total := g.format.SectionsWeight + g.format.ContactWeight + g.format.ParseWeight + g.format.LengthWeight
	if total <= 0 {
		return nil
	}

	var recs []types.Recommendation
	for _, ev := range ds.Evidence {
		if ev.Passed {
			continue
		}
		gapText, action := formatAdvice(ev)
		if action == "" {
			continue
		}
		recs = append(recs, types.Recommendation{
			Dimension: types.DimensionFormat,
			Gap:       gapText,
			Action:    action,
			Impact:    min(gp.points, 100*ev.Weight/total) * gp.weight,
		})
	}
	return recs
}

func formatAdvice(ev types.Evidence) (string, string) {
	switch {
	case strings.HasPrefix(ev.Factor, scoring.FactorSectionPrefix):
		name := strings.TrimPrefix(ev.Factor, scoring.FactorSectionPrefix)
		return fmt.Sprintf("Missing %s section", name),
			fmt.Sprintf("Add a clearly labelled %s section with a standard header", titleCase(name))
	case strings.HasPrefix(ev.Factor, scoring.FactorContactPrefix):
		name := strings.TrimPrefix(ev.Factor, scoring.FactorContactPrefix)
		return fmt.Sprintf("Contact details are missing the %s", name),
			fmt.Sprintf("Add your %s to the contact block at the top", name)
	case ev.Factor == scoring.FactorParseConfidence:
		return fmt.Sprintf("Low parse confidence (%s)", ev.Actual),
			"Simplify the layout: avoid tables, columns, text boxes and graphics"
	case ev.Factor == scoring.FactorWordCount:
		return fmt.Sprintf("Word count %s is outside %s", ev.Actual, ev.Expected),
			fmt.Sprintf("Adjust the length to %s words", ev.Expected)
	case ev.Factor == scoring.FactorPageCount:
		return fmt.Sprintf("Resume is %s pages", ev.Actual),
			fmt.Sprintf("Trim the resume to %s pages", strings.TrimPrefix(ev.Expected, "<= "))
	}
	return "", ""
}

func generic(gp gap) types.Recommendation {
	var gapText, action string
	switch gp.dim {
	case types.DimensionSkills:
		gapText = "Skills coverage is below target"
		action = "Mirror the skill terms used in the job description"
	case types.DimensionExperience:
		gapText = "Experience is below target"
		action = "Describe relevant responsibilities and quantify results for each position"
	case types.DimensionEducation:
		gapText = "Education is below target"
		action = "Describe your qualifications with level, field and institution"
	default:
		gapText = "Document format is below target"
		action = "Use standard section headers and a simple single-column layout"
	}
	return types.Recommendation{
		Dimension: gp.dim,
		Gap:       gapText,
		Action:    action,
		Impact:    gp.points * gp.weight,
	}
}

// enrich appends benchmark exemplars to the actions, cycling through them
func enrich(recs []types.Recommendation, profile types.BenchmarkProfile) {
	if !profile.Found {
		return
	}
	exemplars := profile.Exemplars[recsDimension(recs)]
	if len(exemplars) == 0 {
		return
	}
	for i := range recs {
		recs[i].Action = fmt.Sprintf("%s. Example: %s", recs[i].Action, exemplars[i%len(exemplars)])
		recs[i].Enriched = true
	}
}

func recsDimension(recs []types.Recommendation) types.Dimension {
	if len(recs) == 0 {
		return ""
	}
	return recs[0].Dimension
}

func display(term types.SkillTerm) string {
	if s := strings.TrimSpace(term.Original); s != "" {
		return s
	}
	return term.Canonical
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
