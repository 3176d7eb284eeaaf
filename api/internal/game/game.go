// Package game runs the daily puzzle: it rotates in a new subject once per
// calendar day, hands out signed tickets, reveals hints and judges guesses.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"figurdle/api/internal/match"
	"figurdle/api/internal/puzzle"
	"figurdle/api/internal/puzzle/types"
	"figurdle/api/internal/store"
)

var (
	ErrPuzzleNotReady = errors.New("puzzle not ready")
	ErrBadSignature   = errors.New("invalid signature")
	ErrBadRequest     = errors.New("bad request")
	ErrNoProducer     = errors.New("puzzle generation is not configured")
)

// Puzzles is the slice of store.PuzzleRepo the service needs.
type Puzzles interface {
	FindByDate(ctx context.Context, day time.Time) (*store.Puzzle, error)
	Insert(ctx context.Context, day time.Time, c types.Candidate) (bool, error)
}

type Producer interface {
	Produce(ctx context.Context) (puzzle.Outcome, error)
}

type Options struct {
	SigningSecret string
	Location      *time.Location
	Now           func() time.Time
}

type Service struct {
	puzzles  Puzzles
	corpus   puzzle.Corpus
	producer Producer
	signer   signer
	loc      *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewService(p Puzzles, corpus puzzle.Corpus, prod Producer, opts Options, log *zap.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		puzzles:  p,
		corpus:   corpus,
		producer: prod,
		signer:   signer{secret: []byte(opts.SigningSecret)},
		loc:      opts.Location,
		now:      opts.Now,
		log:      log,
	}
}

// Today is the current calendar day in the service's time zone.
func (s *Service) Today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

const (
	StatusCreated = "created"
	StatusExists  = "exists"
)

type RotateResult struct {
	Status       string `json:"status"`
	Date         string `json:"puzzle_date"`
	Answer       string `json:"character"`
	AliasesCount int    `json:"aliases_count,omitempty"`
	HintsCount   int    `json:"hints_count,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`
}

// Rotate makes sure today has a puzzle. It is safe to call repeatedly: an
// existing puzzle, or one inserted by a concurrent caller, is reported as
// StatusExists and nothing is generated or recorded.
func (s *Service) Rotate(ctx context.Context) (RotateResult, error) {
	day := s.Today()
	res := RotateResult{Date: day.Format(time.DateOnly)}
	log := s.log.With(zap.String("puzzle_date", res.Date))

	existing, err := s.puzzles.FindByDate(ctx, day)
	switch {
	case err == nil:
		log.Info("puzzle already exists", zap.String("answer", existing.Answer))
		res.Status, res.Answer = StatusExists, existing.Answer
		return res, nil
	case !errors.Is(err, store.ErrNotFound):
		return res, fmt.Errorf("load puzzle: %w", err)
	}

	if s.producer == nil {
		return res, ErrNoProducer
	}
	out, err := s.producer.Produce(ctx)
	if err != nil {
		return res, err
	}
	c := out.Candidate

	inserted, err := s.puzzles.Insert(ctx, day, c)
	if err != nil {
		return res, fmt.Errorf("save puzzle: %w", err)
	}
	if !inserted {
		log.Warn("lost rotate race, keeping the stored puzzle", zap.String("discarded", c.Answer))
		res.Status = StatusExists
		if p, err := s.puzzles.FindByDate(ctx, day); err == nil {
			res.Answer = p.Answer
		}
		return res, nil
	}

	// the puzzle is committed; a corpus failure must not undo it
	if err := s.corpus.RecordAll(ctx, c.Names(), day); err != nil {
		log.Error("record used names", zap.Strings("names", c.Names()), zap.Error(err))
	}

	log.Info("puzzle created", zap.String("answer", c.Answer), zap.Int("attempts", len(out.Attempts)))
	res.Status = StatusCreated
	res.Answer = c.Answer
	res.AliasesCount = len(c.Aliases)
	res.HintsCount = len(c.Hints)
	res.Attempts = len(out.Attempts)
	return res, nil
}

// Ticket returns today's signed descriptor.
func (s *Service) Ticket(ctx context.Context) (Ticket, error) {
	day := s.Today()
	p, err := s.find(ctx, day)
	if err != nil {
		return Ticket{}, err
	}
	return s.signer.ticket(day, len(p.Hints)), nil
}

// Reveal returns hint n (0-based) of the ticket's puzzle.
func (s *Service) Reveal(ctx context.Context, t Ticket, n int) (string, error) {
	p, err := s.checked(ctx, t)
	if err != nil {
		return "", err
	}
	if n < 0 || n >= len(p.Hints) {
		return "", fmt.Errorf("%w: hint %d out of range", ErrBadRequest, n)
	}
	return p.Hints[n], nil
}

type GuessInput struct {
	Ticket
	Guess    string `json:"guess"`
	Revealed int    `json:"revealed"`
}

type GuessResult struct {
	Correct          bool   `json:"correct"`
	RevealNextHint   bool   `json:"reveal_next_hint"`
	NextHint         string `json:"next_hint,omitempty"`
	AnswerRevealed   bool   `json:"answer_revealed"`
	NormalizedAnswer string `json:"normalized_answer,omitempty"`
	// Match is only set on a correct guess.
	Match *match.Result `json:"match,omitempty"`
}

// Guess judges in.Guess against the ticket's puzzle. A wrong guess reveals
// hint in.Revealed while any remain, after that the answer.
func (s *Service) Guess(ctx context.Context, in GuessInput) (GuessResult, error) {
	if strings.TrimSpace(in.Guess) == "" {
		return GuessResult{}, fmt.Errorf("%w: empty guess", ErrBadRequest)
	}
	if in.Revealed < 0 {
		return GuessResult{}, fmt.Errorf("%w: negative revealed", ErrBadRequest)
	}
	p, err := s.checked(ctx, in.Ticket)
	if err != nil {
		return GuessResult{}, err
	}

	r := match.Match(in.Guess, p.Names())
	s.log.Debug("guess",
		zap.String("puzzle_date", in.PuzzleDate),
		zap.String("guess", in.Guess),
		zap.Bool("correct", r.IsMatch),
		zap.String("pass", string(r.Pass)))

	switch {
	case r.IsMatch:
		return GuessResult{Correct: true, NormalizedAnswer: p.Answer, Match: &r}, nil
	case in.Revealed < len(p.Hints):
		return GuessResult{RevealNextHint: true, NextHint: p.Hints[in.Revealed]}, nil
	default:
		return GuessResult{AnswerRevealed: true, NormalizedAnswer: p.Answer}, nil
	}
}

func (s *Service) checked(ctx context.Context, t Ticket) (*store.Puzzle, error) {
	if t.PuzzleDate == "" || t.Signature == "" {
		return nil, fmt.Errorf("%w: missing puzzle_date or signature", ErrBadRequest)
	}
	if !s.signer.verify(t) {
		return nil, ErrBadSignature
	}
	day, err := time.ParseInLocation(time.DateOnly, t.PuzzleDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.find(ctx, day)
}

func (s *Service) find(ctx context.Context, day time.Time) (*store.Puzzle, error) {
	p, err := s.puzzles.FindByDate(ctx, day)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPuzzleNotReady
	}
	if err != nil {
		return nil, fmt.Errorf("load puzzle: %w", err)
	}
	return p, nil
}
