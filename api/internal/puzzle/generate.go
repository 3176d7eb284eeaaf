package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"figurdle/api/internal/llm"
	"figurdle/api/internal/prompt"
	"figurdle/api/internal/puzzle/types"
	"figurdle/api/internal/util"
)

const (
	generateTemperature = 0.7
	generateMaxTokens   = 1000
)

var validate = validator.New()

// Guidance is the difficulty instruction for a 1-based attempt number. It
// widens the pool each time the previous attempt was rejected.
func Guidance(attempt int) string {
	switch {
	case attempt <= 1:
		return "Choose well-known figures any educated player would recognize."
	case attempt == 2:
		return "You may choose slightly more obscure but still notable figures."
	default:
		return "Choose any significant figure from any field, even if less commonly known."
	}
}

// Generator asks the model for one candidate.
type Generator struct {
	llm        llm.Client
	prompts    *prompt.Set
	avoidLimit int
	log        *zap.Logger
}

func NewGenerator(c llm.Client, prompts *prompt.Set, avoidLimit int, log *zap.Logger) *Generator {
	if prompts == nil {
		prompts = prompt.New("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{llm: c, prompts: prompts, avoidLimit: avoidLimit, log: log}
}

// Generate requests a candidate while steering the model away from avoid.
// Only the first avoidLimit names go into the prompt. Contract violations
// come back wrapped in ErrMalformedCandidate; transport errors as-is.
func (g *Generator) Generate(ctx context.Context, avoid []string, attempt int) (types.Candidate, error) {
	data := prompt.GenerateData{Guidance: Guidance(attempt)}
	data.Exclusions = avoid
	if g.avoidLimit > 0 && len(avoid) > g.avoidLimit {
		data.Exclusions = avoid[:g.avoidLimit]
		data.Remaining = len(avoid) - g.avoidLimit
	}

	system, err := g.prompts.Render(prompt.Generate, prompt.System, data)
	if err != nil {
		return types.Candidate{}, err
	}
	user, err := g.prompts.Render(prompt.Generate, prompt.User, data)
	if err != nil {
		return types.Candidate{}, err
	}

	g.log.Debug("requesting candidate",
		zap.Int("attempt", attempt),
		zap.Int("avoid", len(avoid)),
		zap.Int("avoid_in_prompt", len(data.Exclusions)))

	out, err := g.llm.Submit(ctx, llm.Request{
		System:      system,
		User:        user,
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	if err != nil {
		return types.Candidate{}, err
	}
	g.log.Debug("candidate reply received", zap.Int("chars", len(out)))

	c, err := DecodeCandidate(out)
	if err != nil {
		g.log.Warn("candidate rejected as malformed", zap.String("raw", util.Truncate(out, 512)), zap.Error(err))
	}
	return c, err
}

type rawCandidate struct {
	Answer     string    `json:"answer" validate:"required"`
	Aliases    *[]string `json:"aliases" validate:"required"`
	Hints      *[]string `json:"hints" validate:"required,len=7,dive,required"`
	SourceURLs *[]string `json:"source_urls" validate:"required"`
}

// DecodeCandidate parses a model reply into a Candidate and enforces the
// structural contract: non-empty answer, alias and source lists present, and
// exactly seven non-empty hints.
func DecodeCandidate(out string) (types.Candidate, error) {
	js := util.ExtractJSON(out)
	if js == "" {
		return types.Candidate{}, fmt.Errorf("%w: empty reply", ErrMalformedCandidate)
	}
	var raw rawCandidate
	if err := json.Unmarshal([]byte(js), &raw); err != nil {
		return types.Candidate{}, fmt.Errorf("%w: bad JSON: %v", ErrMalformedCandidate, err)
	}
	raw.Answer = strings.TrimSpace(raw.Answer)
	if err := validate.Struct(raw); err != nil {
		return types.Candidate{}, fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}

	c := types.Candidate{
		Answer:     raw.Answer,
		Aliases:    make([]string, 0, len(*raw.Aliases)),
		Hints:      *raw.Hints,
		SourceURLs: *raw.SourceURLs,
	}
	for _, a := range *raw.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			c.Aliases = append(c.Aliases, a)
		}
	}
	return c, nil
}
