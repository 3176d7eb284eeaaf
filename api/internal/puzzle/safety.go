package puzzle

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"figurdle/api/internal/puzzle/types"
)

// descriptiveWords are role words that commonly appear in aliases ("Emperor
// Napoleon") and in honest clues alike, so they never count as name fragments.
var descriptiveWords = map[string]struct{}{
	"physicist":   {},
	"theoretical": {},
	"pioneer":     {},
	"scientist":   {},
	"leader":      {},
	"emperor":     {},
	"queen":       {},
	"king":        {},
	"president":   {},
	"general":     {},
	"artist":      {},
	"writer":      {},
	"philosopher": {},
}

// Leak is a clue that contains a fragment of the answer.
type Leak struct {
	Hint  int    `json:"hint"` // 0-based
	Token string `json:"token"`
}

// LeakTokens builds the denylist of name fragments for c. Answer words count
// when longer than three letters; alias words must also be capitalized and
// not a generic role word.
func LeakTokens(c types.Candidate) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		tok = strings.ToLower(tok)
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, part := range strings.Fields(c.Answer) {
		if isNameWord(part) {
			add(part)
		}
	}
	for _, alias := range c.Aliases {
		for _, part := range strings.Fields(alias) {
			if !isNameWord(part) {
				continue
			}
			if r, _ := utf8.DecodeRuneInString(part); !unicode.IsUpper(r) {
				continue
			}
			if _, generic := descriptiveWords[strings.ToLower(part)]; generic {
				continue
			}
			add(part)
		}
	}
	return out
}

func isNameWord(s string) bool {
	if utf8.RuneCountInString(s) <= 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// CheckHints reports every (hint, token) pair where a denylisted token
// appears as a whole word, case-insensitively.
func CheckHints(c types.Candidate) []Leak {
	tokens := LeakTokens(c)
	if len(tokens) == 0 {
		return nil
	}
	var leaks []Leak
	for i, hint := range c.Hints {
		words := make(map[string]struct{})
		for _, w := range strings.FieldsFunc(strings.ToLower(hint), isBoundary) {
			words[w] = struct{}{}
		}
		for _, tok := range tokens {
			if _, ok := words[tok]; ok {
				leaks = append(leaks, Leak{Hint: i, Token: tok})
			}
		}
	}
	return leaks
}

// HintsAreSafe reports whether no clue leaks a name fragment.
func HintsAreSafe(c types.Candidate) bool {
	return len(CheckHints(c)) == 0
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
