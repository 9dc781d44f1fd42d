package benchmark

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"atscore/internal/types"
)

//go:embed corpus/benchmarks.json
var defaultCorpus []byte

// Corpus is the on-disk form of a set of benchmark profiles
type Corpus struct {
	Version  string                   `json:"version,omitempty"`
	Profiles []types.BenchmarkProfile `json:"profiles"`
}

// DefaultProfiles returns the built-in profiles
func DefaultProfiles() []types.BenchmarkProfile {
	corpus, err := ParseCorpus(defaultCorpus)
	if err != nil {
		// the embedded corpus is covered by tests
		panic(fmt.Sprintf("embedded benchmark corpus is invalid: %v", err))
	}
	return corpus.Profiles
}

// LoadCorpusFile reads a corpus from a JSON file
func LoadCorpusFile(path string) ([]types.BenchmarkProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark corpus %s: %w", path, err)
	}
	corpus, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("invalid benchmark corpus %s: %w", path, err)
	}
	return corpus.Profiles, nil
}

// ParseCorpus decodes and validates a corpus document
func ParseCorpus(data []byte) (*Corpus, error) {
	var corpus Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	if len(corpus.Profiles) == 0 {
		return nil, fmt.Errorf("corpus has no profiles")
	}

	seen := make(map[string]bool, len(corpus.Profiles))
	for i := range corpus.Profiles {
		p := &corpus.Profiles[i]
		if err := validateProfile(*p); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = true
		// retrieval decides these
		p.Found = false
		p.Confidence = 0
	}
	return &corpus, nil
}

func validateProfile(p types.BenchmarkProfile) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.RoleCategory) == "" {
		return fmt.Errorf("roleCategory is required for %s", p.ID)
	}
	for d, w := range p.Weights {
		if !d.Valid() {
			return fmt.Errorf("unknown dimension %q in %s", d, p.ID)
		}
		if w < 0 {
			return fmt.Errorf("weight for %s must not be negative in %s", d, p.ID)
		}
	}
	if p.AverageScore < 0 || p.TopScore > 100 || (p.TopScore > 0 && p.AverageScore > p.TopScore) {
		return fmt.Errorf("scores must satisfy 0 <= average <= top <= 100 in %s", p.ID)
	}
	return nil
}
