// Package notify delivers operator alerts for money events.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sirupsen/logrus"
)

// Notifier sends a short text alert to operators
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every alert
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Telegram posts alerts to a single admin chat
type Telegram struct {
	bot    *telego.Bot
	chatID int64
}

// NewTelegram validates the token and returns a Telegram notifier
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	_, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(t.chatID), text))
	return err
}

// New returns a Telegram notifier when configured and Nop otherwise
func New(token string, chatID int64) Notifier {
	if token == "" || chatID == 0 {
		return Nop{}
	}
	tg, err := NewTelegram(token, chatID)
	if err != nil {
		logrus.WithError(err).Warn("Telegram alerts disabled")
		return Nop{}
	}
	return tg
}

// Deliver sends text and only logs failures
func Deliver(ctx context.Context, n Notifier, text string) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := n.Notify(ctx, text); err != nil {
		logrus.WithError(err).Warn("Failed to deliver admin alert")
	}
}
