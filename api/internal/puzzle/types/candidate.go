package types

// HintCount is the number of clues every puzzle carries.
const HintCount = 7

// Candidate is one prospective puzzle subject as produced by the model.
// Hints[0] is the vaguest clue, Hints[6] the most specific.
type Candidate struct {
	Answer     string   `json:"answer"`
	Aliases    []string `json:"aliases"`
	Hints      []string `json:"hints"`
	SourceURLs []string `json:"source_urls"`
}

// Names returns the answer followed by the aliases, original case kept.
func (c Candidate) Names() []string {
	out := make([]string, 0, 1+len(c.Aliases))
	out = append(out, c.Answer)
	return append(out, c.Aliases...)
}
