package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"figurdle/api/internal/game"
	"figurdle/api/internal/llm"
	"figurdle/api/internal/llm/gemini"
	"figurdle/api/internal/llm/gpt"
	"figurdle/api/internal/prompt"
	"figurdle/api/internal/puzzle"
	"figurdle/api/internal/store"
)

const avoidListLimit = 50

// engine returns the configured generation client wrapped in the retry policy.
func (a *app) engine() (llm.Client, error) {
	if err := a.cfg.ValidateGeneration(); err != nil {
		return nil, err
	}
	var engines llm.Engines
	if a.cfg.OpenAIAPIKey != "" {
		engines.OpenAI = gpt.New(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel)
	}
	if a.cfg.GeminiAPIKey != "" {
		engines.Gemini = gemini.New(a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
	}
	c, err := engines.Get(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.log.Info("llm engine", zap.String("engine", c.Name()))
	return llm.NewRetrying(c, llm.DefaultPolicy(), a.log.Named("llm")), nil
}

func (a *app) orchestrator(c llm.Client, corpus puzzle.Corpus) *puzzle.Orchestrator {
	opts := puzzle.DefaultOptions()
	opts.MaxAttempts = a.cfg.MaxAttempts
	opts.RejectOnLeak = a.cfg.RejectOnLeak
	opts.AvoidListLimit = avoidListLimit
	return puzzle.NewOrchestrator(c, prompt.New(a.cfg.PromptDir), corpus, opts, a.log.Named("puzzle"))
}

// openDB connects to Postgres and applies the schema.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	dsn := a.cfg.DSN()
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.log.Info("db connected", zap.String("dsn", store.SafeDSNSummary(dsn)))
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *app) gameOptions() game.Options {
	return game.Options{
		SigningSecret: a.cfg.SigningSecret,
		Location:      a.cfg.Location(),
	}
}

// service wires the game over db. prod may be nil when nothing rotates.
func (a *app) service(db *sql.DB, prod game.Producer) *game.Service {
	return game.NewService(store.NewPuzzleRepo(db), store.NewNameRepo(db), prod, a.gameOptions(), a.log.Named("game"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func storeCorpus(db *sql.DB) puzzle.Corpus { return store.NewNameRepo(db) }

// producerOrNil keeps a nil *Orchestrator from becoming a non-nil interface.
func producerOrNil(o *puzzle.Orchestrator) game.Producer {
	if o == nil {
		return nil
	}
	return o
}
