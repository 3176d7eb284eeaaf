package match

import (
	"regexp"
	"strings"
)

var (
	possessive = regexp.MustCompile(`['’]s\b`)
	punct      = strings.NewReplacer("'", "", "’", "", ".", "", ",", "", "-", " ")
)

// Normalize lowercases s, turns possessives and hyphens into spaces, drops
// apostrophes, periods and commas, and collapses whitespace. It is idempotent.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = possessive.ReplaceAllString(s, " ")
	s = punct.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
