// Package notify delivers best-effort messages to chats other than the one
// being served: the admin on registration and users on grant or revoke.
package notify

import (
	"context"
	"log/slog"

	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/keyboard"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Message is an outbound notification.
type Message struct {
	Text     string
	Markdown bool
	// Buttons renders as one inline keyboard row.
	Buttons []keyboard.InlineBtn
}

// API is the part of *tele.Bot used for delivery.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Fanout sends notifications through api with retries on transient errors.
type Fanout struct {
	api    API
	sender *sender.Sender
}

// New returns a Fanout. A nil s uses default retry options.
func New(api API, s *sender.Sender) *Fanout {
	if s == nil {
		s = sender.New(sender.Options{MaxRetries: 2})
	}
	return &Fanout{api: api, sender: s}
}

// Notify sends msg to chatID. A failure is logged and returned so the caller
// can show a soft warning; it never undoes the write that triggered it.
func (f *Fanout) Notify(ctx context.Context, chatID int64, msg Message) error {
	opts := []interface{}{}
	if msg.Markdown {
		opts = append(opts, tele.ModeMarkdown)
	}
	if len(msg.Buttons) > 0 {
		opts = append(opts, keyboard.InlineButtonsRows(msg.Buttons))
	}
	err := f.sender.Do(ctx, "notify", "sendMessage", func() error {
		_, err := f.api.Send(tele.ChatID(chatID), msg.Text, opts...)
		return err
	})
	if err != nil {
		logger.LogEvent(ctx, logger.Notify, slog.LevelWarn, "notify.fail",
			slog.Int64("target_id", chatID),
			slog.String("error_kind", sender.Classify(err)),
			slog.String("err", sender.SanitizeError(err)),
		)
		return err
	}
	logger.LogEvent(ctx, logger.Notify, slog.LevelDebug, "notify.sent", slog.Int64("target_id", chatID))
	return nil
}
