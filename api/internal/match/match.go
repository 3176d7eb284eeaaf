// Package match decides whether a free-text guess names the puzzle subject.
//
// Guesses and candidate names are normalized, then tried in three passes:
// exact equality, a length-adaptive edit-distance test, and for multi-word
// names a word-by-word alignment with a quorum. Every function here is pure
// and safe for concurrent use.
package match

import (
	"strings"
	"unicode/utf8"
)

// Result is the outcome of Match. EditDistance is set for exact and fuzzy
// matches; a word-alignment match leaves it nil.
type Result struct {
	IsMatch       bool   `json:"is_match"`
	MatchedAnswer string `json:"matched_answer,omitempty"`
	EditDistance  *int   `json:"edit_distance,omitempty"`
	Pass          Pass   `json:"pass,omitempty"`
}

type Pass string

const (
	PassExact Pass = "exact"
	PassFuzzy Pass = "fuzzy"
	PassWords Pass = "words"
)

// Match reports whether guess names one of candidates (answer first, then
// aliases). Candidates are tried in input order; each gets the exact, fuzzy
// and word-alignment passes before the next one is looked at. MatchedAnswer
// carries the candidate in its original form.
func Match(guess string, candidates []string) Result {
	g := Normalize(guess)
	if g == "" {
		return Result{}
	}
	gw := strings.Fields(g)
	for _, cand := range candidates {
		c := Normalize(cand)
		if c == "" {
			continue
		}
		if c == g {
			return hit(cand, PassExact, 0)
		}
		if d, ok := Fuzzy(g, c); ok {
			return hit(cand, PassFuzzy, d)
		}
		if WordsAlign(gw, strings.Fields(c)) {
			return Result{IsMatch: true, MatchedAnswer: cand, Pass: PassWords}
		}
	}
	return Result{}
}

func hit(answer string, p Pass, d int) Result {
	return Result{IsMatch: true, MatchedAnswer: answer, EditDistance: &d, Pass: p}
}

// Fuzzy applies the single-string test to already-normalized g and c and
// returns their edit distance.
func Fuzzy(g, c string) (int, bool) {
	if g == c {
		return 0, true
	}
	gl, cl := utf8.RuneCountInString(g), utf8.RuneCountInString(c)
	if gl < 3 && cl > 6 {
		return -1, false
	}

	d := Levenshtein(g, c)
	longest := max(gl, cl)
	sim := 1 - float64(d)/float64(longest)

	// short names collide easily: Will/Bill is one edit apart
	if gl <= 4 && cl <= 4 {
		return d, d <= 1 && sim >= 0.8
	}

	maxDist := 3
	switch {
	case cl <= 4:
		maxDist = 1
	case cl <= 8:
		maxDist = 2
	}
	minSim := 0.5
	if longest > 8 {
		minSim = 0.4
	}
	return d, d <= maxDist && sim >= minSim
}

// WordsAlign counts distinct guess words that fuzzily match a candidate word
// and checks the count against the quorum for the candidate's shape. Each
// candidate word can be claimed by one guess word only, so repeating a name
// does not count twice. Both sides need at least two words.
func WordsAlign(guessWords, candWords []string) bool {
	if len(guessWords) < 2 || len(candWords) < 2 {
		return false
	}
	seen := make(map[string]bool, len(guessWords))
	claimed := make([]bool, len(candWords))
	matched := 0
	for _, gw := range guessWords {
		if seen[gw] {
			continue
		}
		seen[gw] = true
		for i, cw := range candWords {
			if claimed[i] {
				continue
			}
			if _, ok := Fuzzy(gw, cw); ok {
				claimed[i] = true
				matched++
				break
			}
		}
	}
	return matched >= quorum(len(guessWords), len(candWords))
}

func quorum(guessWords, candWords int) int {
	switch candWords {
	case 2, 3:
		return 2
	default:
		return guessWords * 2 / 3
	}
}
