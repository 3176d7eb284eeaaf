package puzzle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"figurdle/api/internal/llm"
	"figurdle/api/internal/prompt"
	"figurdle/api/internal/puzzle/types"
	"figurdle/api/internal/util"
)

const (
	obscurityTemperature = 0.3
	obscurityMaxTokens   = 300
	obscuritySampleHints = 3
)

var errVerdictParse = errors.New("verdict parse failure")

// Evaluator asks the model whether a candidate is too obscure for the game.
type Evaluator struct {
	llm     llm.Client
	prompts *prompt.Set
	log     *zap.Logger
}

func NewEvaluator(c llm.Client, prompts *prompt.Set, log *zap.Logger) *Evaluator {
	if prompts == nil {
		prompts = prompt.New("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{llm: c, prompts: prompts, log: log}
}

// Evaluate never fails: any problem yields types.DefaultVerdict, which lets
// the candidate through. An evaluator outage must not block generation.
func (e *Evaluator) Evaluate(ctx context.Context, c types.Candidate) types.Verdict {
	v, err := e.evaluate(ctx, c)
	if err != nil {
		e.log.Error("obscurity evaluation failed, defaulting to acceptable",
			zap.String("answer", c.Answer), zap.Error(err))
		return types.DefaultVerdict("evaluation failed, defaulting to acceptable: " + err.Error())
	}
	e.log.Info("obscurity evaluated",
		zap.String("answer", c.Answer),
		zap.Int("familiarity", v.FamiliarityScore),
		zap.Bool("too_obscure", v.TooObscure))
	return v
}

func (e *Evaluator) evaluate(ctx context.Context, c types.Candidate) (types.Verdict, error) {
	hints := c.Hints
	if len(hints) > obscuritySampleHints {
		hints = hints[:obscuritySampleHints]
	}
	user, err := e.prompts.Render(prompt.Obscurity, prompt.User, prompt.ObscurityData{
		Answer:  c.Answer,
		Aliases: c.Aliases,
		Hints:   hints,
	})
	if err != nil {
		return types.Verdict{}, err
	}
	out, err := e.llm.Submit(ctx, llm.Request{
		User:        user,
		Temperature: obscurityTemperature,
		MaxTokens:   obscurityMaxTokens,
	})
	if err != nil {
		return types.Verdict{}, err
	}
	return ParseVerdict(out)
}

type rawVerdict struct {
	TooObscure       *bool   `json:"is_too_obscure" validate:"required"`
	FamiliarityScore *int    `json:"familiarity_score" validate:"required,min=1,max=10"`
	Reasoning        *string `json:"reasoning" validate:"required"`
	TargetAudience   string  `json:"target_audience"`
}

// ParseVerdict extracts a verdict from a reply that may surround the JSON
// with prose or a code fence. All of is_too_obscure, familiarity_score and
// reasoning must be present.
func ParseVerdict(out string) (types.Verdict, error) {
	js := util.ExtractJSON(out)
	if js == "" {
		return types.Verdict{}, fmt.Errorf("%w: empty reply", errVerdictParse)
	}
	var raw rawVerdict
	if err := json.Unmarshal([]byte(js), &raw); err != nil {
		return types.Verdict{}, fmt.Errorf("%w: %v", errVerdictParse, err)
	}
	if err := validate.Struct(raw); err != nil {
		return types.Verdict{}, fmt.Errorf("%w: %v", errVerdictParse, err)
	}
	return types.Verdict{
		TooObscure:       *raw.TooObscure,
		FamiliarityScore: *raw.FamiliarityScore,
		Reasoning:        *raw.Reasoning,
		TargetAudience:   raw.TargetAudience,
	}, nil
}
