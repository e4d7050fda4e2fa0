package annotation

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Matcher finds the closest string in a universe of candidates. Used to
// align join keys across identifier spaces that do not exactly match.
// Cost is O(len(universe)) per call; avoid it on large joins.
type Matcher interface {
	// BestMatch returns the closest match for candidate, or false if
	// the universe is empty or nothing clears the similarity floor.
	BestMatch(candidate string, universe []string) (string, bool)
}

// DefaultMatchFloor is the minimum similarity ratio a match must clear.
const DefaultMatchFloor = 0.6

// RatioMatcher ranks candidates by sequence-similarity ratio. Ties keep
// the first candidate in universe order.
type RatioMatcher struct {
	// Floor overrides DefaultMatchFloor when > 0.
	Floor float64
}

// BestMatch implements Matcher.
func (m RatioMatcher) BestMatch(candidate string, universe []string) (string, bool) {
	floor := m.Floor
	if floor <= 0 {
		floor = DefaultMatchFloor
	}

	a := strings.Split(candidate, "")
	best := ""
	bestRatio := 0.0
	found := false

	for _, u := range universe {
		if u == candidate {
			return u, true
		}
		ratio := difflib.NewMatcher(a, strings.Split(u, "")).Ratio()
		if ratio >= floor && ratio > bestRatio {
			best, bestRatio, found = u, ratio, true
		}
	}
	return best, found
}
