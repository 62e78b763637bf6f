package notify

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v3"
)

// Telegram pushes messages to a single chat.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
}

// NewTelegram connects the bot with a long poller. The token is
// validated against the Telegram API during construction.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// Notify sends message to the configured chat. The context only guards
// the enqueue; delivery is handled by the telebot client.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tele.ChatID(t.chatID), message)
	return err
}
