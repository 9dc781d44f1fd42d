// Package skills canonicalizes skill terms and matches requirement terms
// against the skills listed on a resume.
package skills

import (
	"sort"
	"strings"
	"unicode"

	"atscore/internal/types"
)

// Canonicalizer normalizes skill names and resolves aliases.
// It holds only read-only tables and is safe for concurrent use.
type Canonicalizer struct {
	aliases  map[string]string
	reverse  map[string][]string
	suffixes map[string]bool
}

// NewCanonicalizer creates a canonicalizer backed by the built-in alias table.
func NewCanonicalizer() *Canonicalizer {
	return NewCanonicalizerWithAliases(nil)
}

// NewCanonicalizerWithAliases adds extra alias -> canonical entries on top of
// the built-in table. Keys and values are normalized first. Chains of extra
// aliases are followed to their final target; entries caught in a cycle are
// dropped. The result does not depend on map iteration order.
func NewCanonicalizerWithAliases(extra map[string]string) *Canonicalizer {
	c := &Canonicalizer{
		aliases:  make(map[string]string, len(aliasTable)+len(extra)),
		suffixes: genericSuffixes,
	}
	builtinTargets := make(map[string]bool, len(aliasTable))
	for alias, canonical := range aliasTable {
		c.aliases[alias] = canonical
		builtinTargets[canonical] = true
	}

	keys := make([]string, 0, len(extra))
	for alias := range extra {
		keys = append(keys, alias)
	}
	sort.Strings(keys)
	for _, alias := range keys {
		key := c.Normalize(alias)
		target := c.Normalize(extra[alias])
		// a built-in canonical name can never become an alias of something else
		if key == "" || target == "" || key == target || builtinTargets[key] {
			continue
		}
		c.aliases[key] = target
	}

	resolved := make(map[string]string, len(c.aliases))
	for key := range c.aliases {
		if target, ok := c.follow(key); ok {
			resolved[key] = target
		}
	}
	c.aliases = resolved

	c.reverse = make(map[string][]string)
	for alias, canonical := range c.aliases {
		c.reverse[canonical] = append(c.reverse[canonical], alias)
	}
	for canonical := range c.reverse {
		sort.Strings(c.reverse[canonical])
	}
	return c
}

// follow walks the alias chain from key to a term that is not itself an
// alias. It reports false when the chain loops.
func (c *Canonicalizer) follow(key string) (string, bool) {
	seen := map[string]bool{key: true}
	cur := c.aliases[key]
	for {
		next, ok := c.aliases[cur]
		if !ok {
			return cur, true
		}
		if seen[cur] {
			return "", false
		}
		seen[cur] = true
		cur = next
	}
}

// Normalize lower-cases s, replaces punctuation with spaces (keeping '+' and
// '#', which carry meaning in c++ and c#), collapses whitespace and strips
// trailing generic words such as "programming" or "framework". It does not
// resolve aliases.
func (c *Canonicalizer) Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && c.suffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// Canonicalize returns the canonical form of s. Unknown terms pass through in
// normalized form. Canonicalize(Canonicalize(s)) == Canonicalize(s).
func (c *Canonicalizer) Canonicalize(s string) string {
	normalized := c.Normalize(s)
	if canonical, ok := c.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Aliases returns the known alias spellings of a canonical name.
func (c *Canonicalizer) Aliases(canonical string) []string {
	aliases := c.reverse[canonical]
	if len(aliases) == 0 {
		return nil
	}
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}

// Term builds a SkillTerm for raw text.
func (c *Canonicalizer) Term(raw string, source types.SkillSource, category types.SkillCategory, position int) types.SkillTerm {
	canonical := c.Canonicalize(raw)
	return types.SkillTerm{
		Canonical: canonical,
		Original:  raw,
		Aliases:   c.Aliases(canonical),
		Category:  category,
		Source:    source,
		Position:  position,
	}
}
