package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/access"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
)

const msgNotNotified = "⚠️ The user could not be notified."

func (n *Navigator) renderAdminMenu(ctx context.Context) ([]Reply, error) {
	users, err := n.gate.List(ctx)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("🛡 *Users*")
	if len(users) == 0 {
		b.WriteString("\nNobody has written to the bot yet.")
	}
	for _, u := range users {
		b.WriteString("\n")
		b.WriteString(userLine(u, n.gate.StatusOf(u).String()))
	}
	kb := [][]string{{BtnGrant, BtnRevoke}, navRow}
	return []Reply{{Text: b.String(), Keyboard: kb}}, nil
}

func (n *Navigator) onAdminMenu(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	switch t.in.Text {
	case BtnGrant:
		return n.show(ctx, t, sess.to(AdminGrant), "")
	case BtnRevoke:
		return n.show(ctx, t, sess.to(AdminRevoke), "")
	}
	return n.retry(ctx, t, sess, "Please choose an action.")
}

func chatIDInput(in Input) (int64, error) {
	if in.Kind != InputText {
		return 0, errChatID
	}
	return ParseChatID(in.Text)
}

// grant approves id and returns the notice describing the outcome.
func (n *Navigator) grant(ctx context.Context, id int64) (string, error) {
	_, notified, err := n.gate.Grant(ctx, id)
	if err != nil {
		return "", err
	}
	notice := "✅ Access granted to " + format.Code(strconv.FormatInt(id, 10)) + "."
	if !notified {
		notice += "\n" + msgNotNotified
	}
	return notice, nil
}

// revoke removes access from id and returns the notice. A refused or
// unknown id yields a notice and no error.
func (n *Navigator) revoke(ctx context.Context, id int64) (string, error) {
	_, notified, err := n.gate.Revoke(ctx, id)
	switch {
	case errors.Is(err, access.ErrAdminImmutable):
		return "⛔ The admin's access cannot be revoked.", nil
	case errors.Is(err, access.ErrNotFound):
		return "❗️ No user with id " + format.Code(strconv.FormatInt(id, 10)) + ".", nil
	case err != nil:
		return "", err
	}
	notice := "⛔ Access revoked for " + format.Code(strconv.FormatInt(id, 10)) + "."
	if !notified {
		notice += "\n" + msgNotNotified
	}
	return notice, nil
}

func (n *Navigator) onAdminGrant(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	id, err := chatIDInput(t.in)
	if err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	notice, err := n.grant(ctx, id)
	if err != nil {
		return sess, nil, err
	}
	return n.show(ctx, t, sess.to(AdminMenu), notice)
}

// revocable lists the users that currently have access, the admin excluded.
func (n *Navigator) revocable(ctx context.Context) ([]models.User, error) {
	users, err := n.gate.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if n.gate.StatusOf(u) == access.StatusApproved {
			out = append(out, u)
		}
	}
	return out, nil
}

func userLabels(users []models.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Name + " · " + strconv.FormatInt(u.ChatID, 10)
	}
	return out
}

func (n *Navigator) renderAdminRevoke(ctx context.Context) ([]Reply, error) {
	users, err := n.revocable(ctx)
	if err != nil {
		return nil, err
	}
	text := "➖ Choose a user, or send the chat id to revoke access from."
	if len(users) == 0 {
		text = "➖ Nobody else has access right now. Send a chat id to revoke access from."
	}
	return []Reply{{Text: text, Keyboard: listKeyboard(nil, userLabels(users), inputRow)}}, nil
}

// onAdminRevoke accepts a user button or a typed chat id.
func (n *Navigator) onAdminRevoke(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	users, err := n.revocable(ctx)
	if err != nil {
		return sess, nil, err
	}
	var id int64
	if i, ok := pick(userLabels(users), t.in.Text); ok && t.in.Kind == InputText {
		id = users[i].ChatID
	} else if id, err = chatIDInput(t.in); err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	if n.gate.IsAdmin(id) {
		return n.retry(ctx, t, sess, "The admin's access cannot be revoked.")
	}
	if _, err := n.gate.Get(ctx, id); err != nil {
		if errors.Is(err, access.ErrNotFound) {
			return n.retry(ctx, t, sess, "No user with id "+format.Code(strconv.FormatInt(id, 10))+".")
		}
		return sess, nil, err
	}
	sess = sess.to(AdminRevokeConfirm)
	sess.TargetID = id
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) renderAdminRevokeConfirm(ctx context.Context, sess Session) ([]Reply, error) {
	u, err := n.gate.Get(ctx, sess.TargetID)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("⚠️ Revoke access for %s?", userLine(u, n.gate.StatusOf(u).String()))
	return []Reply{{Text: text, Keyboard: [][]string{{BtnConfirmRevoke}, inputRow}}}, nil
}

func (n *Navigator) onAdminRevokeConfirm(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if t.in.Text != BtnConfirmRevoke {
		return n.retry(ctx, t, sess, "Tap the confirm button, or Back to keep the access.")
	}
	notice, err := n.revoke(ctx, sess.TargetID)
	if err != nil {
		return sess, nil, err
	}
	return n.show(ctx, t, sess.to(AdminMenu), notice)
}

// command handles slash commands other than /start and /cancel. They act
// immediately and leave the session where it was, except /users which opens
// the user list.
func (n *Navigator) command(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	switch t.in.Text {
	case "/users", "/grant", "/revoke":
	default:
		return n.show(ctx, t, sess, msgUnknown)
	}
	if !t.admin {
		return sess, []Reply{{Text: msgDenied}}, nil
	}
	if t.in.Text == "/users" {
		return n.show(ctx, t, sess.to(AdminMenu), "")
	}

	id, err := ParseChatID(t.in.Args)
	if err != nil {
		return sess, []Reply{{Text: "Usage: " + t.in.Text + " 123456789"}}, nil
	}
	var notice string
	if t.in.Text == "/grant" {
		notice, err = n.grant(ctx, id)
	} else {
		notice, err = n.revoke(ctx, id)
	}
	if err != nil {
		return sess, nil, err
	}
	return sess, []Reply{{Text: notice}}, nil
}
