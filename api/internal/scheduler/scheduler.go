// Package scheduler triggers puzzle rotation periodically.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"figurdle/api/internal/game"
)

type Rotator interface {
	Rotate(ctx context.Context) (game.RotateResult, error)
}

// Daily calls Rotate once at start and then every Interval. Rotate is
// idempotent per day, so the interval only bounds how late after midnight a
// new puzzle appears.
type Daily struct {
	Rotator  Rotator
	Interval time.Duration
	Log      *zap.Logger
}

// Run blocks until ctx is done. Rotate failures are logged and retried on
// the next tick.
func (d *Daily) Run(ctx context.Context) error {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	interval := d.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	d.tick(ctx, log)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return nil
		case <-t.C:
			d.tick(ctx, log)
		}
	}
}

func (d *Daily) tick(ctx context.Context, log *zap.Logger) {
	res, err := d.Rotator.Rotate(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("rotate failed", zap.Error(err))
		}
		return
	}
	if res.Status == game.StatusCreated {
		log.Info("rotated", zap.String("puzzle_date", res.Date), zap.String("answer", res.Answer))
	} else {
		log.Debug("rotate skipped", zap.String("puzzle_date", res.Date), zap.String("status", res.Status))
	}
}
