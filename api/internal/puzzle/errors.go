package puzzle

import (
	"errors"
	"fmt"
	"strings"

	"figurdle/api/internal/puzzle/types"
)

var (
	// ErrMalformedCandidate means the model reply broke the candidate contract.
	ErrMalformedCandidate = errors.New("malformed candidate")
	// ErrGenerationExhausted means no attempt produced an acceptable candidate.
	ErrGenerationExhausted = errors.New("generation exhausted")
)

// ExhaustedError carries every failed attempt. It matches
// ErrGenerationExhausted with errors.Is.
type ExhaustedError struct {
	Attempts []types.Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		s := fmt.Sprintf("#%d %s", a.Index, a.Reason)
		if a.Candidate != "" {
			s += " (" + a.Candidate + ")"
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s after %d attempts: %s", ErrGenerationExhausted, len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrGenerationExhausted }
