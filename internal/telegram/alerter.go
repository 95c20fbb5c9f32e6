// Package telegram posts staff alerts to a Telegram chat through the Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// markdownV2Escaper escapes every character MarkdownV2 reserves.
var markdownV2Escaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// EscapeMarkdownV2 makes text safe to embed in a MarkdownV2 message.
func EscapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Alerter sends plain alerts to a single staff chat.
type Alerter struct {
	bot    botSender
	chatID int64
	title  string
}

// NewAlerter authorises the bot token and returns an alerter for chatID.
func NewAlerter(token string, chatID int64) (*Alerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorisation failed: %w", err)
	}
	bot.Debug = false
	slog.Info("telegram alerts enabled", "account", bot.Self.UserName, "chat_id", chatID)
	return &Alerter{bot: bot, chatID: chatID, title: "BHRC"}, nil
}

// Alert posts text to the staff chat under a bold title.
func (a *Alerter) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(a.chatID, "*"+EscapeMarkdownV2(a.title)+"*\n"+EscapeMarkdownV2(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
