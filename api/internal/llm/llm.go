// Package llm is the boundary to the external text-generation service: submit
// a prompt, receive free text, subject to transient failure.
package llm

import (
	"context"
	"errors"
	"strings"
)

// Request is one prompt submission.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client submits a prompt and returns the raw model text.
type Client interface {
	Name() string
	Submit(ctx context.Context, req Request) (string, error)
}

// Engines holds the configured providers.
type Engines struct {
	OpenAI Client
	Gemini Client
}

func (e *Engines) Get(name string) (Client, error) {
	var c Client
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gpt", "openai":
		c = e.OpenAI
	case "gemini":
		c = e.Gemini
	default:
		return nil, errors.New("unknown llm name; use 'gpt' or 'gemini'")
	}
	if c == nil {
		return nil, errors.New("llm " + name + " is not configured")
	}
	return c, nil
}
