// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"figurdle/api/internal/llm"
)

// Reply is one scripted answer: Text on success, or Err.
type Reply struct {
	Text string
	Err  error
}

// Fake replays replies in order and records every request. When the script
// runs out it returns ErrExhausted.
type Fake struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.Request
}

var ErrExhausted = errors.New("llmtest: no scripted reply left")

func New(replies ...Reply) *Fake { return &Fake{replies: replies} }

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Push(replies ...Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *Fake) Submit(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if len(f.replies) == 0 {
		return "", ErrExhausted
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.Text, r.Err
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

// Func adapts a function to llm.Client.
type Func func(ctx context.Context, req llm.Request) (string, error)

func (Func) Name() string { return "func" }

func (f Func) Submit(ctx context.Context, req llm.Request) (string, error) { return f(ctx, req) }
