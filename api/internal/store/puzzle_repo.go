package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"figurdle/api/internal/puzzle/types"
)

// Puzzle is one stored daily puzzle.
type Puzzle struct {
	ID        string
	Date      time.Time
	CreatedAt time.Time
	types.Candidate
}

type PuzzleRepo struct{ DB *sql.DB }

func NewPuzzleRepo(db *sql.DB) *PuzzleRepo { return &PuzzleRepo{DB: db} }

// FindByDate returns the puzzle for the calendar day of day, or ErrNotFound.
func (r *PuzzleRepo) FindByDate(ctx context.Context, day time.Time) (*Puzzle, error) {
	const q = `
select id, puzzle_date, answer, aliases, hints, source_urls, created_at
from puzzles
where puzzle_date = $1::date`
	var (
		p                       Puzzle
		aliases, hints, sources []byte
	)
	err := r.DB.QueryRowContext(ctx, q, day.Format(time.DateOnly)).
		Scan(&p.ID, &p.Date, &p.Answer, &aliases, &hints, &sources, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		js   []byte
		dst  *[]string
	}{
		{"aliases", aliases, &p.Aliases},
		{"hints", hints, &p.Hints},
		{"source_urls", sources, &p.SourceURLs},
	} {
		if err := json.Unmarshal(f.js, f.dst); err != nil {
			return nil, fmt.Errorf("puzzle %s: decode %s: %w", p.ID, f.name, err)
		}
	}
	return &p, nil
}

// Insert stores c as the puzzle for day. inserted is false when the day
// already had a puzzle; the existing row is left untouched.
func (r *PuzzleRepo) Insert(ctx context.Context, day time.Time, c types.Candidate) (inserted bool, err error) {
	aliases, _ := json.Marshal(nonNil(c.Aliases))
	hints, _ := json.Marshal(nonNil(c.Hints))
	sources, _ := json.Marshal(nonNil(c.SourceURLs))

	const q = `
insert into puzzles (id, puzzle_date, answer, aliases, hints, source_urls)
values ($1, $2::date, $3, $4, $5, $6)
on conflict (puzzle_date) do nothing`
	res, err := r.DB.ExecContext(ctx, q,
		uuid.NewString(), day.Format(time.DateOnly), c.Answer, aliases, hints, sources)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
