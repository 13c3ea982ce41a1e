// Package flow is the per-chat menu navigator. Handle is a pure transition
// over Session: it reads and writes through the book and the access gate
// and returns the next session with the replies to send.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/access"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/book"
	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
)

// DefaultTimeout is the idle time after which a session expires.
const DefaultTimeout = 10 * time.Minute

const (
	msgExpired   = "⌛ Your session expired, so the unfinished action was discarded."
	msgCancelled = "❌ Cancelled."
	msgNotFound  = "❗️ That item no longer exists. The list below is up to date."
	msgDenied    = "⛔ Permission denied."
	msgUnknown   = "❓ Unknown command."
)

// Navigator drives the menu state machine.
type Navigator struct {
	book    *book.Service
	gate    *access.Gate
	timeout time.Duration
	log     *slog.Logger

	// Now is the clock used for session expiry.
	Now func() time.Time
}

// New returns a Navigator. A non-positive timeout uses DefaultTimeout.
func New(b *book.Service, gate *access.Gate, timeout time.Duration) *Navigator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Navigator{book: b, gate: gate, timeout: timeout, log: logger.FSM, Now: time.Now}
}

// turn is one call of Handle.
type turn struct {
	chatID int64
	admin  bool
	in     Input
}

// Handle applies one input to sess. The error is non-nil only when the
// store failed; the caller then keeps the previous session.
func (n *Navigator) Handle(ctx context.Context, chatID int64, sess Session, in Input) (Session, []Reply, error) {
	now := n.Now()
	in.Text = strings.TrimSpace(in.Text)
	in.Args = strings.TrimSpace(in.Args)
	t := turn{chatID: chatID, admin: n.gate.IsAdmin(chatID), in: in}
	if !sess.State.Valid() {
		sess = Session{}
	}

	var (
		next    Session
		replies []Reply
		err     error
	)
	if sess.State != MainMenu && !sess.Touched.IsZero() && now.Sub(sess.Touched) > n.timeout {
		logger.LogEvent(ctx, n.log, slog.LevelInfo, "session.expired",
			slog.String("state", sess.State.String()),
			slog.Duration("idle", now.Sub(sess.Touched)),
		)
		next, replies, err = n.show(ctx, t, Session{}, msgExpired)
	} else {
		next, replies, err = n.route(ctx, t, sess)
	}
	if err != nil {
		logger.LogEvent(ctx, n.log, slog.LevelError, "fsm.handle",
			slog.String("state", sess.State.String()),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return sess, nil, err
	}
	if next.State != sess.State {
		logger.LogEvent(ctx, n.log, slog.LevelDebug, "fsm.transition",
			slog.String("from", sess.State.String()),
			slog.String("to", next.State.String()),
		)
	}
	next.Touched = now
	return next, replies, nil
}

func (n *Navigator) route(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	switch t.in.Kind {
	case InputCommand:
		switch t.in.Text {
		case "/start":
			return n.show(ctx, t, Session{}, "")
		case "/cancel":
			return n.show(ctx, t, Session{}, msgCancelled)
		}
		return n.command(ctx, t, sess)
	case InputText:
		switch t.in.Text {
		case BtnHome:
			return n.show(ctx, t, Session{}, "")
		case BtnCancel:
			return n.show(ctx, t, Session{}, msgCancelled)
		case BtnBack:
			return n.show(ctx, t, sess.to(sess.State.parent()), "")
		}
	}
	if sess.State.adminOnly() && !t.admin {
		return n.show(ctx, t, Session{}, msgDenied)
	}

	switch sess.State {
	case MainMenu:
		return n.onMainMenu(ctx, t, sess)
	case ViewPersons:
		return n.onViewPersons(ctx, t, sess)
	case ViewBanks:
		return n.onViewBanks(ctx, t, sess)
	case ViewAccounts:
		return n.onViewAccounts(ctx, t, sess)
	case EditPersons:
		return n.onEditPersons(ctx, t, sess)
	case AddPersonName:
		return n.onAddPersonName(ctx, t, sess)
	case EditPerson:
		return n.onEditPerson(ctx, t, sess)
	case RenamePerson:
		return n.onRenamePerson(ctx, t, sess)
	case ConfirmDeletePerson:
		return n.onConfirmDeletePerson(ctx, t, sess)
	case AddBankName:
		return n.onAddBankName(ctx, t, sess)
	case EditBank:
		return n.onEditBank(ctx, t, sess)
	case RenameBank:
		return n.onRenameBank(ctx, t, sess)
	case ConfirmDeleteBank:
		return n.onConfirmDeleteBank(ctx, t, sess)
	case AccountMenu:
		return n.onAccountMenu(ctx, t, sess)
	case EditAccountField:
		return n.onEditAccountField(ctx, t, sess)
	case EditAccountValue:
		return n.onEditAccountValue(ctx, t, sess)
	case ConfirmDeleteAccount:
		return n.onConfirmDeleteAccount(ctx, t, sess)
	case AddAccountNickname, AddAccountNumber, AddAccountCard, AddAccountIBAN, AddAccountImage:
		return n.onAddAccount(ctx, t, sess)
	case AdminMenu:
		return n.onAdminMenu(ctx, t, sess)
	case AdminGrant:
		return n.onAdminGrant(ctx, t, sess)
	case AdminRevoke:
		return n.onAdminRevoke(ctx, t, sess)
	case AdminRevokeConfirm:
		return n.onAdminRevokeConfirm(ctx, t, sess)
	}
	return n.show(ctx, t, Session{}, "")
}

func (n *Navigator) render(ctx context.Context, t turn, sess Session) ([]Reply, error) {
	switch sess.State {
	case MainMenu:
		return n.renderMainMenu(t), nil
	case ViewPersons:
		return n.renderViewPersons(ctx)
	case ViewBanks:
		return n.renderViewBanks(ctx, sess)
	case ViewAccounts:
		return n.renderViewAccounts(ctx, sess)
	case EditPersons:
		return n.renderEditPersons(ctx)
	case AddPersonName:
		return []Reply{{Text: "➕ Send the name of the new person.", Keyboard: [][]string{inputRow}}}, nil
	case EditPerson:
		return n.renderEditPerson(ctx, sess)
	case RenamePerson:
		return n.renderPersonPrompt(ctx, sess, "Send the new name for this person.")
	case ConfirmDeletePerson:
		return n.renderConfirmDeletePerson(ctx, sess)
	case AddBankName:
		return n.renderPersonPrompt(ctx, sess, "Send the name of the new bank.")
	case EditBank:
		return n.renderEditBank(ctx, sess)
	case RenameBank:
		return n.renderBankPrompt(ctx, sess, "Send the new name for this bank.", [][]string{inputRow})
	case ConfirmDeleteBank:
		return n.renderConfirmDeleteBank(ctx, sess)
	case AccountMenu:
		return n.renderAccountMenu(ctx, sess)
	case EditAccountField:
		return n.renderEditAccountField(ctx, sess)
	case EditAccountValue:
		return n.renderEditAccountValue(ctx, sess)
	case ConfirmDeleteAccount:
		return n.renderConfirmDeleteAccount(ctx, sess)
	case AddAccountNickname, AddAccountNumber, AddAccountCard, AddAccountIBAN, AddAccountImage:
		return n.renderAddAccount(ctx, sess)
	case AdminMenu:
		return n.renderAdminMenu(ctx)
	case AdminGrant:
		return []Reply{{Text: "➕ Send the chat id to grant access to.", Keyboard: [][]string{inputRow}}}, nil
	case AdminRevoke:
		return n.renderAdminRevoke(ctx)
	case AdminRevokeConfirm:
		return n.renderAdminRevokeConfirm(ctx, sess)
	}
	return nil, fmt.Errorf("render: unknown state %d", int(sess.State))
}

func isNotFound(err error) bool {
	return errors.Is(err, book.ErrNotFound) || errors.Is(err, access.ErrNotFound)
}

// show renders sess with notice on top. When the entity behind a state is
// gone it walks up to the nearest ancestor that still renders.
func (n *Navigator) show(ctx context.Context, t turn, sess Session, notice string) (Session, []Reply, error) {
	for {
		replies, err := n.render(ctx, t, sess)
		if err != nil && isNotFound(err) && sess.State != MainMenu {
			logger.LogEvent(ctx, n.log, slog.LevelInfo, "fsm.stale",
				slog.String("state", sess.State.String()))
			notice = msgNotFound
			sess = sess.to(sess.State.parent())
			continue
		}
		if err != nil {
			return sess, nil, err
		}
		return sess, withNotice(notice, replies), nil
	}
}

// stale handles a write that hit a missing entity.
func (n *Navigator) stale(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	return n.show(ctx, t, sess.to(sess.State.parent()), msgNotFound)
}

// fail routes err: missing entities fall back, anything else is returned.
func (n *Navigator) fail(ctx context.Context, t turn, sess Session, err error) (Session, []Reply, error) {
	if isNotFound(err) {
		return n.stale(ctx, t, sess)
	}
	return sess, nil, err
}

// retry re-renders the current state after invalid input.
func (n *Navigator) retry(ctx context.Context, t turn, sess Session, msg string) (Session, []Reply, error) {
	return n.show(ctx, t, sess, "❗️ "+msg)
}
