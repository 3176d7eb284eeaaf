package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"figurdle/api/internal/puzzle"
)

// NameRepo is the Postgres-backed name corpus.
type NameRepo struct{ DB *sql.DB }

var _ puzzle.Corpus = (*NameRepo)(nil)

func NewNameRepo(db *sql.DB) *NameRepo { return &NameRepo{DB: db} }

func (r *NameRepo) ListAll(ctx context.Context) ([]string, error) {
	const q = `select name from used_names order by first_used desc, created_at desc, name`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NameRepo) Contains(ctx context.Context, name string) (bool, error) {
	const q = `select exists(select 1 from used_names where name = $1)`
	var ok bool
	err := r.DB.QueryRowContext(ctx, q, puzzle.FoldName(name)).Scan(&ok)
	return ok, err
}

// RecordAll inserts each name on its own. A failed insert does not stop the
// rest; the failures come back joined.
func (r *NameRepo) RecordAll(ctx context.Context, names []string, date time.Time) error {
	const q = `
insert into used_names (name, first_used)
values ($1, $2::date)
on conflict (name) do nothing`
	seen := make(map[string]bool, len(names))
	var errs []error
	for _, n := range names {
		k := puzzle.FoldName(n)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if _, err := r.DB.ExecContext(ctx, q, k, date.Format(time.DateOnly)); err != nil {
			errs = append(errs, fmt.Errorf("record %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
