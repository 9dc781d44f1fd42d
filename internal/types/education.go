package types

import (
	"fmt"
	"strings"
)

// EducationLevel is an ordinal education scale. Higher values satisfy lower ones.
type EducationLevel int

const (
	EducationNone EducationLevel = iota
	EducationHighSchool
	EducationCertificate
	EducationAssociate
	EducationBachelor
	EducationMaster
	EducationDoctorate
)

var educationLevelNames = map[EducationLevel]string{
	EducationNone:        "none",
	EducationHighSchool:  "high_school",
	EducationCertificate: "certificate",
	EducationAssociate:   "associate",
	EducationBachelor:    "bachelor",
	EducationMaster:      "master",
	EducationDoctorate:   "doctorate",
}

// degreeKeywords maps lower-cased tokens found in degree strings to a level.
var degreeKeywords = []struct {
	level    EducationLevel
	keywords []string
}{
	{EducationDoctorate, []string{"doctorate", "doctoral", "phd", "dphil", "edd", "md", "jd"}},
	{EducationMaster, []string{"master", "masters", "msc", "ms", "ma", "mba", "meng", "mfa", "mphil", "mpa", "mph"}},
	{EducationBachelor, []string{"bachelor", "bachelors", "bsc", "bs", "ba", "beng", "bfa", "bba", "btech", "undergraduate"}},
	{EducationAssociate, []string{"associate", "associates", "aa", "aas"}},
	{EducationCertificate, []string{"certificate", "certification", "certified", "diploma", "bootcamp"}},
	{EducationHighSchool, []string{"high school", "highschool", "secondary", "ged"}},
}

// String returns the canonical name of the level
func (l EducationLevel) String() string {
	if name, ok := educationLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Label returns a human readable name
func (l EducationLevel) Label() string {
	switch l {
	case EducationHighSchool:
		return "high school diploma"
	case EducationCertificate:
		return "certificate"
	case EducationAssociate:
		return "associate degree"
	case EducationBachelor:
		return "bachelor's degree"
	case EducationMaster:
		return "master's degree"
	case EducationDoctorate:
		return "doctorate"
	default:
		return "no formal education"
	}
}

// ParseEducationLevel maps free text such as "B.Sc.", "Master's" or "PhD" to a
// level. The boolean is false when nothing in s was recognised.
func ParseEducationLevel(s string) (EducationLevel, bool) {
	normalized := normalizeDegree(s)
	if normalized == "" {
		return EducationNone, false
	}

	if level, ok := educationNameLookup[normalized]; ok {
		return level, true
	}

	// The keyword that appears first wins, so "bachelor of science minor ms
	// office" stays a bachelor. Equal positions prefer the higher level.
	padded := " " + normalized + " "
	best, bestPos := EducationNone, -1
	for _, entry := range degreeKeywords {
		for _, kw := range entry.keywords {
			pos := strings.Index(padded, " "+kw+" ")
			if pos < 0 {
				continue
			}
			if bestPos < 0 || pos < bestPos || (pos == bestPos && entry.level > best) {
				best, bestPos = entry.level, pos
			}
		}
	}
	if bestPos < 0 {
		return EducationNone, false
	}
	return best, true
}

var educationNameLookup = func() map[string]EducationLevel {
	m := make(map[string]EducationLevel, len(educationLevelNames))
	for level, name := range educationLevelNames {
		m[strings.ReplaceAll(name, "_", " ")] = level
	}
	return m
}()

func normalizeDegree(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'s", "s")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			// "B.Sc." and "Ph.D." collapse to bsc and phd
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// MarshalText encodes the level by name
func (l EducationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts level names and free-text degrees. Text that names no
// known level decodes as EducationNone.
func (l *EducationLevel) UnmarshalText(text []byte) error {
	*l, _ = ParseEducationLevel(string(text))
	return nil
}
