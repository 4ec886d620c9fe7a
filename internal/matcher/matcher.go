package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match is the result of comparing an input name against a candidate set.
type Match struct {
	Name  string
	Score float64
}

// Similarity scores two names in [0,1], 1.0 meaning identical. Names are
// compared case-insensitively with surrounding and repeated whitespace
// ignored, so "Milk 1L" and "milk  1l " score 1.0.
func Similarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	dist := levenshtein.ComputeDistance(na, nb)
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(dist)/float64(maxLen)
}

// FindBestMatch returns the candidate with the highest similarity to input.
// Blank candidates are skipped. A blank input or empty candidate set yields
// a zero Match rather than an error: the caller treats it as "no match".
// Ties keep the earliest candidate, so a sorted candidate list makes the
// result deterministic.
func FindBestMatch(input string, candidates []string) Match {
	if normalize(input) == "" {
		return Match{}
	}

	var best Match
	for _, c := range candidates {
		if normalize(c) == "" {
			continue
		}
		if score := Similarity(input, c); score > best.Score {
			best = Match{Name: c, Score: score}
		}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
