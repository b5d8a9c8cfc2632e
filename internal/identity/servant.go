package identity

import (
	platformstrings "radar/pkg/platform/strings"
)

const (
	matchSeparator    = "|"
	visibleDigitCount = 6
)

// Person is the left side of servant matching: a partner row as published,
// before hashing.
type Person struct {
	Name     string
	MaskedID string
}

// Servant is one civil-servant roster row.
type Servant struct {
	Name         string
	MaskedID     string
	Organization string
}

// ServantMatch is the match outcome for the Person at the same index.
type ServantMatch struct {
	IsCivilServant bool
	Organization   string
}

// VisibleDigits extracts digits 4 to 9 of an 11-position individual identifier,
// whether the source masks with punctuation ("***.456.789-**") or without
// ("***456789**"), or publishes the full value. It returns "" when those six
// positions are not all digits.
func VisibleDigits(masked string) string {
	positions := make([]rune, 0, 11)
	for _, r := range masked {
		if (r >= '0' && r <= '9') || r == '*' {
			positions = append(positions, r)
		}
	}
	if len(positions) != 11 {
		return ""
	}
	window := positions[3 : 3+visibleDigitCount]
	for _, r := range window {
		if r == '*' {
			return ""
		}
	}
	return string(window)
}

// MatchKey builds the composite name|digits key. Missing digits become the
// empty-string sentinel.
func MatchKey(name, digits string) string {
	return platformstrings.NormalizeName(name) + matchSeparator + digits
}

// MatchServants left-joins people against the roster on MatchKey. The result
// is aligned with people. Roster rows missing a name or the visible digits are
// excluded so that two incomplete rows never match on the sentinel. When
// several roster rows share a key the first one's organization wins.
//
// Must run before identifiers are hashed: the visible digits are lost after.
func MatchServants(people []Person, roster []Servant) []ServantMatch {
	reference := make(map[string]string, len(roster))
	for _, s := range roster {
		name := platformstrings.NormalizeName(s.Name)
		digits := VisibleDigits(s.MaskedID)
		if name == "" || digits == "" {
			continue
		}
		key := MatchKey(name, digits)
		if _, seen := reference[key]; !seen {
			reference[key] = s.Organization
		}
	}

	out := make([]ServantMatch, len(people))
	for i, p := range people {
		org, ok := reference[MatchKey(p.Name, VisibleDigits(p.MaskedID))]
		if ok {
			out[i] = ServantMatch{IsCivilServant: true, Organization: org}
		}
	}
	return out
}
