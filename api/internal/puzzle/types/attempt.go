package types

// RejectReason says why a generation attempt did not produce the puzzle.
type RejectReason string

const (
	ReasonNone            RejectReason = "NONE"
	ReasonDuplicate       RejectReason = "DUPLICATE"
	ReasonClueLeakWarning RejectReason = "CLUE_LEAK_WARNING" // logged, candidate still eligible
	ReasonClueLeak        RejectReason = "CLUE_LEAK"         // rejected under a strict leak policy
	ReasonMalformed       RejectReason = "MALFORMED_CANDIDATE"
	ReasonTooObscure      RejectReason = "TOO_OBSCURE"
	ReasonTransientError  RejectReason = "TRANSIENT_ERROR"
)

// Attempt records one pass through the generation loop.
type Attempt struct {
	Index     int // 1-based
	Reason    RejectReason
	Candidate string
	Err       error
}
