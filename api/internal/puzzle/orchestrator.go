// Package puzzle produces the daily puzzle subject: it asks the model for a
// candidate, screens it against the name corpus and the clue-leak check, has
// the model rate its obscurity, and retries with widening guidance until a
// candidate passes or the attempt budget runs out.
package puzzle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"figurdle/api/internal/llm"
	"figurdle/api/internal/prompt"
	"figurdle/api/internal/puzzle/types"
)

// Options tune the generation loop.
type Options struct {
	MaxAttempts    int
	RejectOnLeak   bool
	AvoidListLimit int
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:    5,
		RejectOnLeak:   false,
		AvoidListLimit: 50,
	}
}

// Outcome is an accepted candidate with the judgment that let it through.
type Outcome struct {
	Candidate types.Candidate
	Verdict   types.Verdict
	Leaks     []Leak
	Attempts  []types.Attempt
}

type Orchestrator struct {
	corpus Corpus
	gen    *Generator
	eval   *Evaluator
	opts   Options
	log    *zap.Logger
}

// NewOrchestrator wires the pipeline. c should already be the retrying
// client; the orchestrator itself never retries a single model call.
func NewOrchestrator(c llm.Client, prompts *prompt.Set, corpus Corpus, opts Options, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.AvoidListLimit < 1 {
		opts.AvoidListLimit = def.AvoidListLimit
	}
	return &Orchestrator{
		corpus: corpus,
		gen:    NewGenerator(c, prompts, opts.AvoidListLimit, log.Named("generate")),
		eval:   NewEvaluator(c, prompts, log.Named("obscurity")),
		opts:   opts,
		log:    log,
	}
}

// Produce returns a candidate that is not in the corpus and was not judged
// too obscure. After MaxAttempts rejections it fails with an *ExhaustedError;
// it never falls back to a duplicate or obscure candidate.
func (o *Orchestrator) Produce(ctx context.Context) (Outcome, error) {
	used, err := o.corpus.ListAll(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load name corpus: %w", err)
	}
	usedSet := NewNameSet(used)
	o.log.Info("generating daily puzzle", zap.Int("used_names", len(usedSet)), zap.Int("max_attempts", o.opts.MaxAttempts))

	var attempts []types.Attempt
	for i := 1; i <= o.opts.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		out, a := o.attempt(ctx, used, usedSet, i)
		attempts = append(attempts, a)
		if a.Reason == types.ReasonNone || a.Reason == types.ReasonClueLeakWarning {
			out.Attempts = attempts
			o.log.Info("candidate accepted",
				zap.Int("attempt", i),
				zap.String("answer", out.Candidate.Answer),
				zap.Int("familiarity", out.Verdict.FamiliarityScore))
			return out, nil
		}
	}

	err = &ExhaustedError{Attempts: attempts}
	o.log.Error("no acceptable candidate", zap.Error(err))
	return Outcome{}, err
}

func (o *Orchestrator) attempt(ctx context.Context, used []string, usedSet NameSet, i int) (Outcome, types.Attempt) {
	a := types.Attempt{Index: i, Reason: types.ReasonNone}
	log := o.log.With(zap.Int("attempt", i))

	c, err := o.gen.Generate(ctx, used, i)
	if err != nil {
		a.Err = err
		a.Reason = types.ReasonTransientError
		if errors.Is(err, ErrMalformedCandidate) {
			a.Reason = types.ReasonMalformed
		}
		log.Warn("attempt failed", zap.String("reason", string(a.Reason)), zap.Error(err))
		return Outcome{}, a
	}
	a.Candidate = c.Answer
	log = log.With(zap.String("answer", c.Answer))

	if name, dup := usedSet.AnyOf(c.Names()); dup {
		a.Reason = types.ReasonDuplicate
		log.Info("candidate rejected", zap.String("reason", string(a.Reason)), zap.String("name", name))
		return Outcome{}, a
	}

	leaks := CheckHints(c)
	if len(leaks) > 0 {
		for _, l := range leaks {
			log.Warn("clue contains a name fragment",
				zap.Int("hint", l.Hint+1),
				zap.String("token", l.Token),
				zap.String("text", c.Hints[l.Hint]))
		}
		if o.opts.RejectOnLeak {
			a.Reason = types.ReasonClueLeak
			log.Info("candidate rejected", zap.String("reason", string(a.Reason)))
			return Outcome{}, a
		}
		a.Reason = types.ReasonClueLeakWarning
	}

	v := o.eval.Evaluate(ctx, c)
	if v.TooObscure {
		a.Reason = types.ReasonTooObscure
		log.Info("candidate rejected",
			zap.String("reason", string(a.Reason)),
			zap.Int("familiarity", v.FamiliarityScore),
			zap.String("reasoning", v.Reasoning))
		return Outcome{}, a
	}

	return Outcome{Candidate: c, Verdict: v, Leaks: leaks}, a
}
