package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"cloud.google.com/go/civil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobwatch/internal/domain"
)

// telegram rejects messages longer than this
const telegramLimit = 4096

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    botSender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// SendText sends text as one or more HTML messages.
func (t *Telegram) SendText(ctx context.Context, text string) error {
	for _, chunk := range splitMessage(text, telegramLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = "HTML"
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

// TelegramText is the compact chat rendition of the delta.
func TelegramText(delta []domain.Record, day civil.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Novas vagas encontradas (%s)</b>\n", FormatDay(day))
	for _, r := range delta {
		fmt.Fprintf(&b, "\n<b>%s</b> [%s]\n%s · %s\n<a href=\"%s\">abrir vaga</a>\n",
			html.EscapeString(r.Title),
			kindLabel(r.Status),
			html.EscapeString(r.Source),
			html.EscapeString(locationOrDefault(r.Location)),
			html.EscapeString(r.Identifier),
		)
	}
	return b.String()
}

// splitMessage cuts on blank lines so no entry is split across messages
// unless a single entry exceeds limit.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var out []string
	var cur strings.Builder
	for _, block := range strings.SplitAfter(text, "\n\n") {
		if cur.Len()+len(block) > limit && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		for len(block) > limit {
			out = append(out, block[:limit])
			block = block[limit:]
		}
		cur.WriteString(block)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
