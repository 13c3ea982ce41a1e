package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/flow"
	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/callbacks"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
	tghelpers "github.com/mohammaddehghani/TelegBotCardNum/core/telegram/helpers"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/keyboard"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const (
	msgUnavailable  = "⚠️ The service is temporarily unavailable. Please try again in a moment."
	msgRequested    = "👋 Your access request was sent to the admin. You will get a message once it is approved."
	msgPending      = "⏳ Your access request is still waiting for the admin."
	msgAdminUnaware = "The admin could not be reached right now; try again later."
	msgPhotoFailed  = "⚠️ The card image could not be sent."
	msgDocument     = "Please send card images as photos, not as files."
	msgSlowDown     = "⏳ Too many requests. Please slow down."
)

// Process runs one input for chatID through the gate and the navigator and
// returns the replies. A failing store yields the unavailable message and
// leaves the saved session untouched.
func (a *App) Process(ctx context.Context, chatID int64, name string, in flow.Input) []flow.Reply {
	d, err := a.gate.Resolve(ctx, chatID, name)
	if err != nil {
		a.logFailure(ctx, "access.resolve", err)
		return []flow.Reply{{Text: msgUnavailable}}
	}
	if !d.Status.Allowed() {
		text := msgPending
		if d.Registered {
			text = msgRequested + "\nYour id: " + format.Code(strconv.FormatInt(chatID, 10))
			if d.NotifyFailed {
				text += "\n" + msgAdminUnaware
			}
		}
		return []flow.Reply{{Text: text, RemoveKeyboard: true}}
	}

	sess, _, err := a.sessions.Load(ctx, chatID)
	if err != nil {
		a.logFailure(ctx, "session.load", err)
		return []flow.Reply{{Text: msgUnavailable}}
	}
	next, replies, err := a.nav.Handle(ctx, chatID, sess, in)
	if err != nil {
		a.logFailure(ctx, "navigator.handle", err)
		return []flow.Reply{{Text: msgUnavailable}}
	}

	if next.Idle() {
		err = a.sessions.Clear(ctx, chatID)
	} else {
		err = a.sessions.Save(ctx, chatID, next)
	}
	if err != nil {
		a.logFailure(ctx, "session.save", err)
	}
	return replies
}

func (a *App) logFailure(ctx context.Context, event string, err error) {
	logger.LogEvent(ctx, logger.TG, slog.LevelError, event,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
}

// HandleMessage serves text, photo and command messages.
func (a *App) HandleMessage(c tele.Context) error {
	msg := c.Message()
	if msg == nil || c.Chat() == nil {
		return nil
	}
	in, ok := inputFrom(msg)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	replies := a.Process(ctx, c.Chat().ID, displayName(c.Sender()), in)
	return a.deliver(ctx, c, replies)
}

// inputFrom converts a message to navigator input. Commands addressed to
// another bot in a group ("/cmd@other") are kept as commands.
func inputFrom(msg *tele.Message) (flow.Input, bool) {
	if msg.Photo != nil && msg.Photo.FileID != "" {
		return flow.Photo(msg.Photo.FileID), true
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return flow.Input{}, false
	}
	if strings.HasPrefix(text, "/") {
		name, args, _ := strings.Cut(text, " ")
		name, _, _ = strings.Cut(name, "@")
		return flow.Command(strings.ToLower(name), args), true
	}
	return flow.Text(text), true
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	return name
}

// Replier is the part of tele.Context used to answer.
type Replier interface {
	Send(what interface{}, opts ...interface{}) error
}

// deliver sends replies in order. A photo that cannot be sent is replaced
// by a warning; a failed text send stops delivery.
func (a *App) deliver(ctx context.Context, c Replier, replies []flow.Reply) error {
	for _, r := range replies {
		if r.PhotoID != "" {
			photo := &tele.Photo{File: tele.File{FileID: r.PhotoID}}
			err := a.sender.Do(ctx, "reply.photo", "sendPhoto", func() error { return c.Send(photo) })
			if err != nil {
				if err := a.sender.Do(ctx, "reply", "sendMessage", func() error { return c.Send(msgPhotoFailed) }); err != nil {
					return err
				}
			}
			continue
		}
		opts := []interface{}{tele.ModeMarkdown}
		switch {
		case r.Keyboard != nil:
			opts = append(opts, keyboard.ReplyButtons(r.Keyboard...))
		case r.RemoveKeyboard:
			opts = append(opts, keyboard.RemoveKeyboard())
		}
		text := r.Text
		if err := a.sender.Do(ctx, "reply", "sendMessage", func() error { return c.Send(text, opts...) }); err != nil {
			return err
		}
	}
	return nil
}

// approve grants the chat id carried by a Grant button. Only the admin may
// press it.
func (a *App) approve(ctx context.Context, pressedBy, id int64) string {
	if !a.gate.IsAdmin(pressedBy) {
		return "⛔ Permission denied."
	}
	if id <= 0 {
		return "Invalid request."
	}
	_, notified, err := a.gate.Grant(ctx, id)
	if err != nil {
		a.logFailure(ctx, "access.grant", err)
		return "Grant failed, try again."
	}
	text := "✅ Access granted to " + strconv.FormatInt(id, 10)
	if !notified {
		text += ". The user could not be notified."
	}
	return text
}

func (a *App) onGrantCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	var pressedBy int64
	if u := c.Sender(); u != nil {
		pressedBy = u.ID
	}
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		id = 0
	}
	text := a.approve(ctx, pressedBy, id)
	if err := c.Respond(&tele.CallbackResponse{Text: text}); err != nil {
		return err
	}
	if middleware.IsAdmin(c, a.gate.AdminID()) {
		return c.Send(format.Escape(text), tele.ModeMarkdown)
	}
	return nil
}

func (a *App) onDocument(c tele.Context) error {
	return c.Send(msgDocument)
}

func (a *App) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
	}
	return c.Send(msgSlowDown)
}
