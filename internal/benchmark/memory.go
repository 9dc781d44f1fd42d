package benchmark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"atscore/internal/types"
)

// MemoryIndex is an in-process Index over the key text of each profile: role
// category, industry and keywords. Similarity is the share of distinct query
// terms found in the key text; term-frequency cosine breaks ties.
type MemoryIndex struct {
	mu       sync.RWMutex
	profiles map[string]types.BenchmarkProfile
	vectors  map[string]termVector
	ids      []string
}

type termVector struct {
	terms  []string
	counts map[string]float64
	norm   float64
}

// NewMemoryIndex creates an index over profiles
func NewMemoryIndex(profiles []types.BenchmarkProfile) *MemoryIndex {
	idx := &MemoryIndex{}
	idx.Replace(profiles)
	return idx
}

// Replace swaps the indexed profiles atomically
func (m *MemoryIndex) Replace(profiles []types.BenchmarkProfile) {
	byID := make(map[string]types.BenchmarkProfile, len(profiles))
	vectors := make(map[string]termVector, len(profiles))
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
		vectors[p.ID] = vectorize(profileText(p))
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	m.mu.Lock()
	m.profiles = byID
	m.vectors = vectors
	m.ids = ids
	m.mu.Unlock()
}

// Len returns the number of indexed profiles
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Search implements Index. Hits with zero similarity are dropped; equal
// similarities are ordered by cosine, then by profile ID.
func (m *MemoryIndex) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := vectorize(query)
	if q.empty() || topK <= 0 {
		return nil, nil
	}

	type scored struct {
		hit    SearchHit
		cosine float64
	}

	m.mu.RLock()
	found := make([]scored, 0, len(m.ids))
	for _, id := range m.ids {
		v := m.vectors[id]
		if sim := coverage(q, v); sim > 0 {
			found = append(found, scored{hit: SearchHit{ProfileID: id, Similarity: sim}, cosine: cosine(q, v)})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].hit.Similarity != found[j].hit.Similarity {
			return found[i].hit.Similarity > found[j].hit.Similarity
		}
		return found[i].cosine > found[j].cosine
	})
	hits := make([]SearchHit, 0, len(found))
	for _, f := range found {
		hits = append(hits, f.hit)
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// FetchProfile implements Index
func (m *MemoryIndex) FetchProfile(ctx context.Context, id string) (types.BenchmarkProfile, error) {
	if err := ctx.Err(); err != nil {
		return types.NoBenchmark, err
	}
	m.mu.RLock()
	p, ok := m.profiles[id]
	m.mu.RUnlock()
	if !ok {
		return types.NoBenchmark, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return p, nil
}

func profileText(p types.BenchmarkProfile) string {
	parts := append([]string{p.RoleCategory, p.Industry}, p.Keywords...)
	return strings.Join(parts, " ")
}

// vectorize builds a term-frequency vector. Terms are kept sorted so sums are
// accumulated in a fixed order.
func vectorize(text string) termVector {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	if len(words) == 0 {
		return termVector{}
	}
	counts := make(map[string]float64, len(words))
	for _, w := range words {
		if !stopWords[w] {
			counts[w]++
		}
	}
	if len(counts) == 0 {
		return termVector{}
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	sq := 0.0
	for _, t := range terms {
		sq += counts[t] * counts[t]
	}
	return termVector{terms: terms, counts: counts, norm: math.Sqrt(sq)}
}

// stopWords carry no role information
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "for": true, "in": true,
	"of": true, "or": true, "the": true, "to": true, "with": true,
	"senior": true, "junior": true, "lead": true, "principal": true, "staff": true,
	"sr": true, "jr": true, "i": true, "ii": true, "iii": true,
}

func (v termVector) empty() bool {
	return len(v.terms) == 0
}

func cosine(a, b termVector) float64 {
	if a.empty() || b.empty() || a.norm == 0 || b.norm == 0 {
		return 0
	}
	dot := 0.0
	for _, t := range a.terms {
		dot += a.counts[t] * b.counts[t]
	}
	return dot / (a.norm * b.norm)
}

// coverage is the fraction of distinct query terms present in v
func coverage(query, v termVector) float64 {
	if query.empty() || v.empty() {
		return 0
	}
	shared := 0
	for _, t := range query.terms {
		if v.counts[t] > 0 {
			shared++
		}
	}
	return float64(shared) / float64(len(query.terms))
}
