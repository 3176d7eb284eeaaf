// Package handle is the JSON HTTP API of the daily puzzle.
package handle

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"figurdle/api/internal/game"
	"figurdle/api/internal/puzzle"
)

// Game is what the handlers need from game.Service.
type Game interface {
	Rotate(ctx context.Context) (game.RotateResult, error)
	Ticket(ctx context.Context) (game.Ticket, error)
	Reveal(ctx context.Context, t game.Ticket, n int) (string, error)
	Guess(ctx context.Context, in game.GuessInput) (game.GuessResult, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	// AdminKey guards POST /admin/rotate. Empty disables the check.
	AdminKey string
	// CORSOrigin is sent as Access-Control-Allow-Origin when non-empty.
	CORSOrigin string
}

type Handle struct {
	game Game
	db   Pinger
	opts Options
	log  *zap.Logger
}

func New(g Game, db Pinger, opts Options, log *zap.Logger) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{game: g, db: db, opts: opts, log: log}
}

// Routes returns the router with every endpoint registered.
func (h *Handle) Routes() http.Handler {
	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		h.log.Error("handler panic", zap.String("path", r.URL.Path), zap.Any("panic", v))
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal server error"})
	}
	mux.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.cors(w)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.GET("/healthz", h.Healthz)
	mux.GET("/puzzle/today", h.Today)
	mux.POST("/hint", h.Hint)
	mux.POST("/guess", h.Guess)
	mux.POST("/admin/rotate", h.Rotate)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.cors(w)
		mux.ServeHTTP(w, r)
	})
}

func (h *Handle) cors(w http.ResponseWriter) {
	if h.opts.CORSOrigin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", h.opts.CORSOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Key")
}

func (h *Handle) authorized(r *http.Request) bool {
	if h.opts.AdminKey == "" {
		return true
	}
	got := r.Header.Get("X-Admin-Key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.AdminKey)) == 1
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	detail := err.Error()
	if code == http.StatusInternalServerError {
		detail = "internal server error"
	}
	writeJSON(w, code, errorBody{Detail: detail})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, game.ErrBadRequest), errors.Is(err, game.ErrBadSignature):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrPuzzleNotReady), errors.Is(err, game.ErrNoProducer),
		errors.Is(err, puzzle.ErrGenerationExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
