package handle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"figurdle/api/internal/game"
)

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handle) Today(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t, err := h.game.Ticket(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type hintRequest struct {
	game.Ticket
	Index int `json:"index"`
}

type hintResponse struct {
	Index int    `json:"index"`
	Hint  string `json:"hint"`
}

func (h *Handle) Hint(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req hintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: bad json: %v", game.ErrBadRequest, err))
		return
	}
	hint, err := h.game.Reveal(r.Context(), req.Ticket, req.Index)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hintResponse{Index: req.Index, Hint: hint})
}

// Guess reads the ticket from the body; puzzle_date and hints_count may also
// come as ?date= and ?hc= query parameters.
func (h *Handle) Guess(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in game.GuessInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: bad json: %v", game.ErrBadRequest, err))
		return
	}
	q := r.URL.Query()
	if in.PuzzleDate == "" {
		in.PuzzleDate = q.Get("date")
	}
	if in.HintsCount == 0 && q.Get("hc") != "" {
		hc, err := strconv.Atoi(q.Get("hc"))
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: hc: %v", game.ErrBadRequest, err))
			return
		}
		in.HintsCount = hc
	}

	out, err := h.game.Guess(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) Rotate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "invalid admin key"})
		return
	}
	res, err := h.game.Rotate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
