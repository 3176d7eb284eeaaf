package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cbHintNext = "hint_next"

const startText = `Figurdle: guess today's notable person.

/today - start or resume today's puzzle
/hint - reveal the next clue
Anything else you send is a guess. Every wrong guess reveals another clue.`

func makeHintKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("Next clue", cbHintNext)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

func clueText(n, total int, hint string) string {
	return fmt.Sprintf("Clue %d/%d: %s", n, total, hint)
}

// esc escapes Markdown control characters.
func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
