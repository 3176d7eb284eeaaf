// Package telegram plays the daily puzzle in a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"figurdle/api/internal/game"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Game interface {
	Ticket(ctx context.Context) (game.Ticket, error)
	Reveal(ctx context.Context, t game.Ticket, n int) (string, error)
	Guess(ctx context.Context, in game.GuessInput) (game.GuessResult, error)
}

type Router struct {
	Bot  Bot
	Game Game
	Log  *zap.Logger

	chats sessions
}

const requestTimeout = 10 * time.Second

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID
	if upd.Message.IsCommand() {
		r.HandleCommand(ctx, cid, upd.Message.Command())
		return
	}
	if text := strings.TrimSpace(upd.Message.Text); text != "" {
		r.onGuess(ctx, cid, text)
	}
}

func (r *Router) HandleCommand(ctx context.Context, cid int64, cmd string) {
	switch cmd {
	case "start", "help":
		r.send(cid, startText)
	case "today":
		r.onToday(ctx, cid)
	case "hint":
		r.onHintNext(ctx, cid)
	default:
		r.send(cid, "Unknown command. Try /today or /hint.")
	}
}

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	switch cb.Data {
	case cbHintNext:
		r.onHintNext(ctx, cb.Message.Chat.ID)
	}
}

// session returns the chat's session for today's puzzle, starting a new one
// with the first clue shown when needed.
func (r *Router) session(ctx context.Context, cid int64) (*session, bool) {
	t, err := r.Game.Ticket(ctx)
	if err != nil {
		r.sendError(cid, err)
		return nil, false
	}
	s, fresh := r.chats.current(cid, t)
	if !fresh {
		return s, true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.send(cid, "New puzzle for "+t.PuzzleDate+". Who am I?")
	r.revealLocked(ctx, cid, s)
	return s, true
}

func (r *Router) onToday(ctx context.Context, cid int64) {
	before, _ := r.chats.get(cid)
	if s, ok := r.session(ctx, cid); ok && s == before {
		r.resume(ctx, cid, s)
	}
}

// resume re-sends the clues revealed so far.
func (r *Router) resume(ctx context.Context, cid int64, s *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		r.send(cid, "You already finished today's puzzle. Come back tomorrow!")
		return
	}
	var b strings.Builder
	for i := 0; i < s.revealed; i++ {
		h, err := r.Game.Reveal(ctx, s.ticket, i)
		if err != nil {
			r.sendError(cid, err)
			return
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(clueText(i+1, s.ticket.HintsCount, h))
	}
	r.sendWithHintButton(cid, b.String())
}

func (r *Router) onHintNext(ctx context.Context, cid int64) {
	before, _ := r.chats.get(cid)
	s, ok := r.session(ctx, cid)
	if !ok || s != before {
		// a fresh session already showed its first clue
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.done:
		r.send(cid, "You already finished today's puzzle. Come back tomorrow!")
	case s.revealed >= s.ticket.HintsCount:
		r.send(cid, "No clues left. Make your final guess!")
	default:
		r.revealLocked(ctx, cid, s)
	}
}

// revealLocked shows clue s.revealed and advances. s.mu must be held.
func (r *Router) revealLocked(ctx context.Context, cid int64, s *session) {
	h, err := r.Game.Reveal(ctx, s.ticket, s.revealed)
	if err != nil {
		r.sendError(cid, err)
		return
	}
	s.revealed++
	r.sendWithHintButton(cid, clueText(s.revealed, s.ticket.HintsCount, h))
}

func (r *Router) onGuess(ctx context.Context, cid int64, text string) {
	before, _ := r.chats.get(cid)
	s, ok := r.session(ctx, cid)
	if !ok {
		return
	}
	if s != before {
		r.send(cid, "That was before the first clue, so it did not count. Guess again!")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		r.send(cid, "You already finished today's puzzle. Come back tomorrow!")
		return
	}

	res, err := r.Game.Guess(ctx, game.GuessInput{Ticket: s.ticket, Guess: text, Revealed: s.revealed})
	if err != nil {
		r.sendError(cid, err)
		return
	}
	switch {
	case res.Correct:
		s.done = true
		r.sendMarkdown(cid, "🎉 Correct! It was *"+esc(res.NormalizedAnswer)+"*.")
	case res.RevealNextHint:
		s.revealed++
		r.sendWithHintButton(cid, "Not quite.\n"+clueText(s.revealed, s.ticket.HintsCount, res.NextHint))
	default:
		s.done = true
		r.sendMarkdown(cid, "Out of clues. The answer was *"+esc(res.NormalizedAnswer)+"*.")
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	r.deliver(msg)
}

func (r *Router) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	r.deliver(msg)
}

func (r *Router) sendWithHintButton(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = makeHintKeyboard()
	r.deliver(msg)
}

func (r *Router) deliver(msg tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	}
}

func (r *Router) sendError(chatID int64, err error) {
	if errors.Is(err, game.ErrPuzzleNotReady) {
		r.send(chatID, "Today's puzzle is not ready yet. Try again a little later.")
		return
	}
	r.log().Error("telegram request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	r.send(chatID, "Something went wrong. Please try again.")
}

func (r *Router) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
