package types

// Verdict is the obscurity judgment for a candidate.
type Verdict struct {
	TooObscure       bool   `json:"is_too_obscure"`
	FamiliarityScore int    `json:"familiarity_score"`
	Reasoning        string `json:"reasoning"`
	TargetAudience   string `json:"target_audience,omitempty"`
}

// DefaultFamiliarity is the score reported when no verdict could be obtained.
const DefaultFamiliarity = 7

// DefaultVerdict is the accepting verdict used whenever evaluation fails.
func DefaultVerdict(reason string) Verdict {
	return Verdict{
		TooObscure:       false,
		FamiliarityScore: DefaultFamiliarity,
		Reasoning:        reason,
		TargetAudience:   "unknown",
	}
}
