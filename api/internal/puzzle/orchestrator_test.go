package puzzle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"figurdle/api/internal/llm"
	"figurdle/api/internal/llm/llmtest"
	"figurdle/api/internal/puzzle/types"
)

// pipeline routes generation prompts (which carry a system prompt) and
// obscurity prompts (which do not) to separate scripts.
type pipeline struct {
	mu      sync.Mutex
	gens    []llmtest.Reply
	evals   []llmtest.Reply
	genReqs []llm.Request
	evalN   int
}

func (p *pipeline) client() llm.Client {
	return llmtest.Func(func(_ context.Context, req llm.Request) (string, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		q := &p.evals
		if req.System != "" {
			q = &p.gens
			p.genReqs = append(p.genReqs, req)
		} else {
			p.evalN++
		}
		if len(*q) == 0 {
			return "", llmtest.ErrExhausted
		}
		r := (*q)[0]
		*q = (*q)[1:]
		return r.Text, r.Err
	})
}

const (
	familiar = `{"is_too_obscure": false, "familiarity_score": 8, "reasoning": "widely taught"}`
	obscure  = `{"is_too_obscure": true, "familiarity_score": 2, "reasoning": "specialists only"}`
)

func gen(t *testing.T, answer string, aliases ...string) llmtest.Reply {
	return llmtest.Reply{Text: candidateJSON(t, answer, aliases, sevenHints())}
}

type brokenCorpus struct{ *MemoryCorpus }

func (*brokenCorpus) ListAll(context.Context) ([]string, error) { return nil, errors.New("db down") }

func newOrchestrator(t *testing.T, p *pipeline, corpus Corpus, opts Options) *Orchestrator {
	return NewOrchestrator(p.client(), nil, corpus, opts, zaptest.NewLogger(t))
}

func reasons(attempts []types.Attempt) []types.RejectReason {
	out := make([]types.RejectReason, len(attempts))
	for i, a := range attempts {
		out[i] = a.Reason
	}
	return out
}

func TestProduceAcceptsFirstGoodCandidate(t *testing.T) {
	p := &pipeline{
		gens:  []llmtest.Reply{gen(t, "Marie Curie", "Madame Curie")},
		evals: []llmtest.Reply{{Text: familiar}},
	}
	corpus := NewMemoryCorpus("Isaac Newton")

	out, err := newOrchestrator(t, p, corpus, DefaultOptions()).Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Marie Curie", out.Candidate.Answer)
	assert.Equal(t, 8, out.Verdict.FamiliarityScore)
	assert.Equal(t, []types.RejectReason{types.ReasonNone}, reasons(out.Attempts))

	// recording is the caller's job
	ok, _ := corpus.Contains(context.Background(), "marie curie")
	assert.False(t, ok)

	require.Len(t, p.genReqs, 1)
	assert.Contains(t, p.genReqs[0].System, "isaac newton")
}

func TestProduceRejectsCaseInsensitiveDuplicates(t *testing.T) {
	p := &pipeline{
		gens: []llmtest.Reply{
			gen(t, "Napoleon Bonaparte", "Napoleon"),
			gen(t, "Joan of Arc", "The Maid of Orléans"),
		},
		evals: []llmtest.Reply{{Text: familiar}},
	}
	corpus := NewMemoryCorpus("NAPOLEON")

	out, err := newOrchestrator(t, p, corpus, DefaultOptions()).Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Joan of Arc", out.Candidate.Answer)
	assert.Equal(t, []types.RejectReason{types.ReasonDuplicate, types.ReasonNone}, reasons(out.Attempts))
	assert.Equal(t, 1, p.evalN, "duplicates are rejected before the obscurity call")
}

func TestProduceNeverAcceptsWrongHintCount(t *testing.T) {
	p := &pipeline{}
	for i := 0; i < 5; i++ {
		p.gens = append(p.gens, llmtest.Reply{Text: `{"answer":"X","aliases":[],"hints":["1","2","3","4","5","6"],"source_urls":[]}`})
	}

	_, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(context.Background())
	require.ErrorIs(t, err, ErrGenerationExhausted)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Len(t, ex.Attempts, 5)
	for _, a := range ex.Attempts {
		assert.Equal(t, types.ReasonMalformed, a.Reason)
		assert.ErrorIs(t, a.Err, ErrMalformedCandidate)
	}
	assert.Zero(t, p.evalN)
}

func TestProduceExhaustsOnObscureCandidates(t *testing.T) {
	p := &pipeline{}
	for _, name := range []string{"Subject Alpha", "Subject Bravo", "Subject Charlie", "Subject Delta", "Subject Echo", "Subject Foxtrot"} {
		p.gens = append(p.gens, gen(t, name))
		p.evals = append(p.evals, llmtest.Reply{Text: obscure})
	}

	out, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(context.Background())
	require.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Empty(t, out.Candidate.Answer)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, []types.RejectReason{
		types.ReasonTooObscure, types.ReasonTooObscure, types.ReasonTooObscure,
		types.ReasonTooObscure, types.ReasonTooObscure,
	}, reasons(ex.Attempts))
	assert.Len(t, p.genReqs, 5, "exactly MaxAttempts generations, no fallback phase")
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestProduceExhaustsOnDuplicates(t *testing.T) {
	p := &pipeline{}
	for i := 0; i < 5; i++ {
		p.gens = append(p.gens, gen(t, "Albert Einstein", "Einstein"))
	}
	corpus := NewMemoryCorpus("albert einstein")

	_, err := newOrchestrator(t, p, corpus, DefaultOptions()).Produce(context.Background())
	require.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Zero(t, p.evalN)
}

func TestProduceEscalatesGuidance(t *testing.T) {
	p := &pipeline{
		gens:  []llmtest.Reply{gen(t, "Subject Alpha"), gen(t, "Subject Bravo"), gen(t, "Subject Charlie"), gen(t, "Subject Delta")},
		evals: []llmtest.Reply{{Text: obscure}, {Text: obscure}, {Text: obscure}, {Text: familiar}},
	}
	out, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Subject Delta", out.Candidate.Answer)

	require.Len(t, p.genReqs, 4)
	for i, req := range p.genReqs {
		assert.Contains(t, req.System, Guidance(i+1))
	}
}

func TestProduceClueLeakPolicy(t *testing.T) {
	leaky := types.Candidate{
		Answer:     "Napoleon Bonaparte",
		Aliases:    []string{},
		Hints:      leakyHints(),
		SourceURLs: []string{},
	}
	leakyReply := llmtest.Reply{Text: mustJSON(t, leaky)}

	t.Run("permissive accepts with a warning", func(t *testing.T) {
		p := &pipeline{gens: []llmtest.Reply{leakyReply}, evals: []llmtest.Reply{{Text: familiar}}}
		out, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Napoleon Bonaparte", out.Candidate.Answer)
		assert.Equal(t, []Leak{{Hint: 6, Token: "napoleon"}}, out.Leaks)
		assert.Equal(t, []types.RejectReason{types.ReasonClueLeakWarning}, reasons(out.Attempts))
	})

	t.Run("strict rejects and retries", func(t *testing.T) {
		p := &pipeline{
			gens:  []llmtest.Reply{leakyReply, gen(t, "Hypatia")},
			evals: []llmtest.Reply{{Text: familiar}},
		}
		opts := DefaultOptions()
		opts.RejectOnLeak = true
		out, err := newOrchestrator(t, p, NewMemoryCorpus(), opts).Produce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Hypatia", out.Candidate.Answer)
		assert.Equal(t, []types.RejectReason{types.ReasonClueLeak, types.ReasonNone}, reasons(out.Attempts))
		assert.Equal(t, 1, p.evalN)
	})
}

func TestProduceSurvivesTransientAndEvaluatorFailures(t *testing.T) {
	p := &pipeline{
		gens:  []llmtest.Reply{{Err: errors.New("502 bad gateway")}, gen(t, "Ada Lovelace")},
		evals: []llmtest.Reply{{Text: "I am unable to rate this."}},
	}
	out, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", out.Candidate.Answer)
	assert.Equal(t, types.DefaultFamiliarity, out.Verdict.FamiliarityScore)
	assert.Equal(t, []types.RejectReason{types.ReasonTransientError, types.ReasonNone}, reasons(out.Attempts))
}

func TestProduceUsesResilientCaller(t *testing.T) {
	p := &pipeline{
		gens: []llmtest.Reply{
			{Err: errors.New("timeout")},
			{Err: errors.New("timeout")},
			gen(t, "Ada Lovelace"),
		},
		evals: []llmtest.Reply{{Text: familiar}},
	}
	caller := llm.NewRetrying(p.client(), llm.Policy{MaxAttempts: 3}, nil)
	o := NewOrchestrator(caller, nil, NewMemoryCorpus(), DefaultOptions(), nil)

	out, err := o.Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", out.Candidate.Answer)
	assert.Len(t, out.Attempts, 1, "retries happen inside one generation attempt")
}

func TestProduceCorpusFailure(t *testing.T) {
	p := &pipeline{}
	_, err := newOrchestrator(t, p, &brokenCorpus{MemoryCorpus: NewMemoryCorpus()}, DefaultOptions()).Produce(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGenerationExhausted)
	assert.Empty(t, p.genReqs)
}

func TestProduceHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	p := &pipeline{}
	_, err := newOrchestrator(t, p, NewMemoryCorpus(), DefaultOptions()).Produce(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, p.genReqs)
}

func leakyHints() []string {
	h := sevenHints()
	h[6] = "Napoleon lost at Waterloo"
	return h
}

func mustJSON(t *testing.T, c types.Candidate) string {
	t.Helper()
	return candidateJSON(t, c.Answer, c.Aliases, c.Hints)
}
