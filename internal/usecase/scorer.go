package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex pattern for performance
var punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// Scorer rates how closely two product names agree. Implementations must be
// symmetric and return a value in [0, 1], with 1 for identical names.
type Scorer interface {
	Score(a, b string) float64
}

// NewScorer returns the scorer registered under name, falling back to token overlap.
func NewScorer(name string) Scorer {
	switch name {
	case "edit_distance":
		return EditDistanceScorer{}
	default:
		return TokenOverlapScorer{}
	}
}

// TokenOverlapScorer scores |A∩B| / max(|A|, |B|) over the distinct lowercase
// word tokens of both names.
type TokenOverlapScorer struct{}

// Score implements Scorer.
func (TokenOverlapScorer) Score(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	common := findIntersection(tokensA, tokensB)
	return float64(common) / float64(max(len(tokensA), len(tokensB)))
}

// EditDistanceScorer scores 1 - levenshtein(a, b) / max(len(a), len(b)) on the
// normalized names.
type EditDistanceScorer struct{}

// Score implements Scorer.
func (EditDistanceScorer) Score(a, b string) float64 {
	na := strings.Join(tokenize(a), " ")
	nb := strings.Join(tokenize(b), " ")
	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshteinDistance(na, nb))/float64(longest)
}

// tokenize lowercases s, strips punctuation and splits on whitespace.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")
	return strings.Fields(cleaned)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

// findIntersection returns the count of tokens present in both sets
func findIntersection(set1, set2 map[string]struct{}) int {
	count := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			count++
		}
	}
	return count
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
