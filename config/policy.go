package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// Policy holds the tables that shape an interview but are not part of its
// control flow: how many rounds a duration buys, and which roles skip coding.
type Policy struct {
	DurationRounds map[int]int
	NoCodingRoles  []string
}

func DefaultPolicy() *Policy {
	return &Policy{
		DurationRounds: map[int]int{
			3:  7,
			5:  10,
			10: 15,
			15: 20,
			20: 25,
			30: 30,
		},
		NoCodingRoles: []string{"frontend developer"},
	}
}

// RoundsForDuration maps an interview length in minutes to a round limit.
func (p *Policy) RoundsForDuration(minutes int) (int, error) {
	rounds, ok := p.DurationRounds[minutes]
	if !ok {
		return 0, fmt.Errorf("invalid duration value %d, must be one of %v", minutes, p.durations())
	}
	return rounds, nil
}

// RequiresCoding reports whether the role gets a coding round. Matching is
// fuzzy so "Front-End Developer" and "frontend engineer" hit the
// "frontend developer" entry: only the leading word of an entry has to match.
func (p *Policy) RequiresCoding(role string) bool {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if normalized == "" {
		return true
	}

	return !lo.SomeBy(p.NoCodingRoles, func(excluded string) bool {
		return roleMatches(strings.ToLower(excluded), normalized)
	})
}

func roleMatches(excluded, role string) bool {
	if excluded == role {
		return true
	}

	words := strings.Fields(excluded)
	if len(words) == 0 {
		return false
	}

	// the leading word carries the specialisation ("frontend"); suffixes like
	// "developer" vs "engineer" should not block a match
	return fuzzy.MatchNormalizedFold(words[0], strings.ReplaceAll(role, "-", ""))
}

func (p *Policy) durations() []int {
	keys := lo.Keys(p.DurationRounds)
	sort.Ints(keys)
	return keys
}
