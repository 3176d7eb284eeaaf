package game

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Ticket is the public descriptor of a day's puzzle. The signature binds the
// date to the hint count so clients cannot forge either.
type Ticket struct {
	PuzzleDate string `json:"puzzle_date"`
	HintsCount int    `json:"hints_count"`
	Signature  string `json:"signature"`
}

// signedPayload fields are in key order so the encoding matches a
// sorted-key compact JSON dump.
type signedPayload struct {
	HintsCount int    `json:"hints_count"`
	PuzzleDate string `json:"puzzle_date"`
}

type signer struct{ secret []byte }

func (s signer) sign(date string, hints int) string {
	msg, _ := json.Marshal(signedPayload{HintsCount: hints, PuzzleDate: date})
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s signer) ticket(day time.Time, hints int) Ticket {
	date := day.Format(time.DateOnly)
	return Ticket{PuzzleDate: date, HintsCount: hints, Signature: s.sign(date, hints)}
}

func (s signer) verify(t Ticket) bool {
	want := s.sign(t.PuzzleDate, t.HintsCount)
	return hmac.Equal([]byte(want), []byte(t.Signature))
}
