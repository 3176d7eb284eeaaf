package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"figurdle/api/internal/game"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	acks int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := c.(tgbotapi.CallbackConfig); ok {
		b.acks++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// take returns and clears the texts sent so far.
func (b *fakeBot) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.sent))
	for i, m := range b.sent {
		out[i] = m.Text
	}
	b.sent = nil
	return out
}

type fakeGame struct {
	date     string
	answer   string
	hints    []string
	notReady bool
}

func (g *fakeGame) Ticket(context.Context) (game.Ticket, error) {
	if g.notReady {
		return game.Ticket{}, game.ErrPuzzleNotReady
	}
	return game.Ticket{PuzzleDate: g.date, HintsCount: len(g.hints), Signature: "sig-" + g.date}, nil
}

func (g *fakeGame) Reveal(_ context.Context, t game.Ticket, n int) (string, error) {
	if n < 0 || n >= len(g.hints) {
		return "", game.ErrBadRequest
	}
	return t.PuzzleDate + ":" + g.hints[n], nil
}

func (g *fakeGame) Guess(_ context.Context, in game.GuessInput) (game.GuessResult, error) {
	switch {
	case strings.EqualFold(in.Guess, g.answer):
		return game.GuessResult{Correct: true, NormalizedAnswer: g.answer}, nil
	case in.Revealed < len(g.hints):
		return game.GuessResult{RevealNextHint: true, NextHint: in.PuzzleDate + ":" + g.hints[in.Revealed]}, nil
	default:
		return game.GuessResult{AnswerRevealed: true, NormalizedAnswer: g.answer}, nil
	}
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: s, Chat: &tgbotapi.Chat{ID: chatID}}}
}

func newRouter(t *testing.T, g *fakeGame) (*Router, *fakeBot) {
	bot := &fakeBot{}
	return &Router{Bot: bot, Game: g, Log: zaptest.NewLogger(t)}, bot
}

func TestFullGame(t *testing.T) {
	ctx := context.Background()
	g := &fakeGame{date: "2026-10-17", answer: "Ada Lovelace", hints: []string{"h1", "h2", "h3"}}
	r, bot := newRouter(t, g)

	r.HandleUpdate(ctx, command(1, "/today"))
	assert.Equal(t, []string{"New puzzle for 2026-10-17. Who am I?", "Clue 1/3: 2026-10-17:h1"}, bot.take())

	r.HandleUpdate(ctx, text(1, "Charles Babbage"))
	assert.Equal(t, []string{"Not quite.\nClue 2/3: 2026-10-17:h2"}, bot.take())

	r.HandleUpdate(ctx, command(1, "/hint"))
	assert.Equal(t, []string{"Clue 3/3: 2026-10-17:h3"}, bot.take())

	r.HandleUpdate(ctx, command(1, "/hint"))
	assert.Equal(t, []string{"No clues left. Make your final guess!"}, bot.take())

	r.HandleUpdate(ctx, command(1, "/today"))
	assert.Equal(t, []string{"Clue 1/3: 2026-10-17:h1\nClue 2/3: 2026-10-17:h2\nClue 3/3: 2026-10-17:h3"}, bot.take())

	r.HandleUpdate(ctx, text(1, "Mary Shelley"))
	assert.Equal(t, []string{"Out of clues. The answer was *Ada Lovelace*."}, bot.take())

	r.HandleUpdate(ctx, text(1, "Ada Lovelace"))
	assert.Equal(t, []string{"You already finished today's puzzle. Come back tomorrow!"}, bot.take())

	// next day: the old session is replaced
	g.date = "2026-10-18"
	r.HandleUpdate(ctx, text(1, "anyone"))
	assert.Equal(t, []string{
		"New puzzle for 2026-10-18. Who am I?",
		"Clue 1/3: 2026-10-18:h1",
		"That was before the first clue, so it did not count. Guess again!",
	}, bot.take())

	r.HandleUpdate(ctx, text(1, "ada lovelace"))
	assert.Equal(t, []string{"🎉 Correct! It was *Ada Lovelace*."}, bot.take())
}

func TestChatsAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := &fakeGame{date: "2026-10-17", answer: "Hypatia", hints: []string{"h1", "h2"}}
	r, bot := newRouter(t, g)

	r.HandleUpdate(ctx, command(1, "/today"))
	r.HandleUpdate(ctx, command(1, "/hint"))
	bot.take()

	r.HandleUpdate(ctx, command(2, "/today"))
	texts := bot.take()
	require.Len(t, texts, 2)
	assert.Equal(t, "Clue 1/2: 2026-10-17:h1", texts[1])
}

func TestHintCallback(t *testing.T) {
	ctx := context.Background()
	g := &fakeGame{date: "2026-10-17", answer: "Hypatia", hints: []string{"h1", "h2"}}
	r, bot := newRouter(t, g)
	r.HandleUpdate(ctx, command(7, "/today"))
	bot.take()

	r.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    cbHintNext,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}},
	}})
	assert.Equal(t, 1, bot.acks)
	assert.Equal(t, []string{"Clue 2/2: 2026-10-17:h2"}, bot.take())
}

func TestNotReady(t *testing.T) {
	r, bot := newRouter(t, &fakeGame{notReady: true})
	r.HandleUpdate(context.Background(), command(1, "/today"))
	assert.Equal(t, []string{"Today's puzzle is not ready yet. Try again a little later."}, bot.take())
}

func TestStartAndUnknown(t *testing.T) {
	r, bot := newRouter(t, &fakeGame{})
	r.HandleUpdate(context.Background(), command(1, "/start"))
	r.HandleUpdate(context.Background(), command(1, "/engine gpt"))
	texts := bot.take()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "/today")
	assert.Contains(t, texts[1], "Unknown command")
}

func TestEsc(t *testing.T) {
	assert.Equal(t, `a\_b\*c\[d'`, esc("a_b*c[d`"))
}
