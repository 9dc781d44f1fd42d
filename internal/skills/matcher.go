package skills

import (
	"context"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"
)

// SemanticScorer scores two skill names by meaning rather than spelling.
// Implementations may call out to an embedding service.
type SemanticScorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// Matcher pairs requirement terms with resume skills.
type Matcher struct {
	canon             *Canonicalizer
	fuzzyThreshold    float64
	semanticThreshold float64
	semantic          SemanticScorer
	logger            *errors.Logger
}

// NewMatcher creates a matcher. semantic may be nil, which disables the
// semantic tier.
func NewMatcher(cfg config.ScoringConfig, semantic SemanticScorer, logger *errors.Logger) *Matcher {
	return &Matcher{
		canon:             NewCanonicalizerWithAliases(cfg.Aliases),
		fuzzyThreshold:    cfg.FuzzyThreshold,
		semanticThreshold: cfg.SemanticThreshold,
		semantic:          semantic,
		logger:            logger,
	}
}

// Canonicalizer returns the canonicalizer used by the matcher.
func (m *Matcher) Canonicalizer() *Canonicalizer {
	return m.canon
}

// Match returns one SkillMatch per distinct required term followed by one per
// distinct preferred term. Blank terms are skipped. A preferred term that is
// also required is only reported as required.
func (m *Matcher) Match(ctx context.Context, required, preferred, resume []string) []types.SkillMatch {
	candidates := m.resumeTerms(resume)

	seen := make(map[string]bool, len(required)+len(preferred))
	matches := make([]types.SkillMatch, 0, len(required)+len(preferred))

	add := func(terms []string, category types.SkillCategory) {
		for i, raw := range terms {
			req := m.canon.Term(raw, types.SourceRequirement, category, i)
			if req.Canonical == "" || seen[req.Canonical] {
				continue
			}
			seen[req.Canonical] = true
			matches = append(matches, m.matchOne(ctx, req, candidates))
		}
	}
	add(required, types.CategoryRequired)
	add(preferred, types.CategoryPreferred)

	return matches
}

type resumeTerm struct {
	term    types.SkillTerm
	surface string
}

func (m *Matcher) resumeTerms(resume []string) []resumeTerm {
	terms := make([]resumeTerm, 0, len(resume))
	for i, raw := range resume {
		term := m.canon.Term(raw, types.SourceResume, "", i)
		if term.Canonical == "" {
			continue
		}
		terms = append(terms, resumeTerm{term: term, surface: m.canon.Normalize(raw)})
	}
	return terms
}

// matchOne applies the precedence exact > alias > fuzzy > semantic > missing.
// Among candidates of the same kind the higher similarity wins, then the
// earlier resume position.
func (m *Matcher) matchOne(ctx context.Context, req types.SkillTerm, candidates []resumeTerm) types.SkillMatch {
	reqSurface := m.canon.Normalize(req.Original)

	best := types.SkillMatch{Requirement: req, Kind: types.MatchMissing}
	bestIdx := -1

	consider := func(kind types.MatchKind, similarity float64, idx int) {
		if bestIdx >= 0 {
			if kind.Rank() > best.Kind.Rank() {
				return
			}
			if kind.Rank() == best.Kind.Rank() && similarity <= best.Similarity {
				// equal similarity keeps the earlier position
				return
			}
		}
		cand := candidates[idx].term
		best = types.SkillMatch{Requirement: req, Resume: &cand, Kind: kind, Similarity: similarity}
		bestIdx = idx
	}

	for i, cand := range candidates {
		switch {
		case cand.surface == reqSurface:
			consider(types.MatchExact, 1, i)
		case cand.term.Canonical == req.Canonical:
			consider(types.MatchAlias, 1, i)
		default:
			if sim := Similarity(cand.term.Canonical, req.Canonical); sim >= m.fuzzyThreshold {
				consider(types.MatchFuzzy, sim, i)
			}
		}
	}

	if bestIdx >= 0 || m.semantic == nil {
		return best
	}

	for i, cand := range candidates {
		if ctx.Err() != nil {
			break
		}
		sim, err := m.semantic.Similarity(ctx, req.Canonical, cand.term.Canonical)
		if err != nil {
			m.logger.Warn("Semantic similarity unavailable, skipping semantic tier",
				"requirement", req.Canonical,
				"error", err.Error())
			break
		}
		if sim >= m.semanticThreshold {
			consider(types.MatchSemantic, clamp01(sim), i)
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
