package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy is the retry schedule: after failed attempt i (0-based) the caller
// waits Base*2^i + Jitter().
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Jitter      func() time.Duration
}

// DefaultPolicy is 3 attempts, 1s base, uniform jitter in [0,1s).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Base:        time.Second,
		Jitter: func() time.Duration {
			return time.Duration(rand.Float64() * float64(time.Second))
		},
	}
}

type exponential struct {
	p Policy
	n int
}

func (b *exponential) NextBackOff() time.Duration {
	if b.n >= b.p.MaxAttempts-1 {
		return backoff.Stop
	}
	d := b.p.Base << b.n
	if b.p.Jitter != nil {
		d += b.p.Jitter()
	}
	b.n++
	return d
}

func (b *exponential) Reset() { b.n = 0 }

// Retrying wraps a Client with bounded retry and exponential backoff. It is
// the only place in the pipeline that retries model calls.
type Retrying struct {
	next   Client
	policy Policy
	log    *zap.Logger
}

func NewRetrying(next Client, p Policy, log *zap.Logger) *Retrying {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retrying{next: next, policy: p, log: log}
}

func (r *Retrying) Name() string { return r.next.Name() }

// Submit returns the first successful reply. The last attempt's error is
// returned unwrapped. A cancelled ctx stops further attempts.
func (r *Retrying) Submit(ctx context.Context, req Request) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := r.next.Submit(ctx, req)
		if err != nil && ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn("llm call failed, retrying",
			zap.String("llm", r.next.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	out, err := backoff.RetryNotifyWithData(op, &exponential{p: r.policy}, notify)
	if err != nil {
		r.log.Error("llm call failed", zap.String("llm", r.next.Name()), zap.Int("attempts", attempt), zap.Error(err))
		return "", err
	}
	return out, nil
}
