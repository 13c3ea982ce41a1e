// Package access decides who may use the bot. Unknown chats are registered
// as pending and the admin is told about them; the configured admin is
// always approved and can never be revoked.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/notify"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/storage"
	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/keyboard"
)

// CallbackGrant is the inline button key carrying a chat id to approve.
const CallbackGrant = "grant"

var (
	// ErrAdminImmutable is returned when revoking the configured admin.
	ErrAdminImmutable = errors.New("the admin cannot be revoked")
	// ErrNotFound is returned for an unknown chat id.
	ErrNotFound = errors.New("user not found")
)

// Status is the access level of a chat.
type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusAdmin
)

func (s Status) String() string {
	switch s {
	case StatusApproved:
		return "approved"
	case StatusAdmin:
		return "admin"
	}
	return "pending"
}

// Allowed reports whether the status may use the navigator.
func (s Status) Allowed() bool { return s != StatusPending }

// Decision is the result of Resolve.
type Decision struct {
	Status Status
	// Registered is set when this call created the user row.
	Registered bool
	// NotifyFailed is set when the admin could not be told about a new user.
	NotifyFailed bool
}

// Store is the user persistence contract implemented by storage.
type Store interface {
	GetUser(ctx context.Context, chatID int64) (models.User, error)
	InsertUser(ctx context.Context, chatID int64, name string, isAdmin, granted bool) (models.User, error)
	UpdateUserName(ctx context.Context, chatID int64, name string) error
	GrantUser(ctx context.Context, chatID int64, placeholder string) (models.User, error)
	RevokeUser(ctx context.Context, chatID int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Notifier delivers messages to other chats.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, msg notify.Message) error
}

// Gate implements the access checks.
type Gate struct {
	store    Store
	adminID  int64
	notifier Notifier
	log      *slog.Logger
}

// NewGate returns a Gate for adminID. notifier may be nil.
func NewGate(store Store, adminID int64, notifier Notifier) *Gate {
	return &Gate{store: store, adminID: adminID, notifier: notifier, log: logger.SVCAccess}
}

// AdminID returns the configured admin chat id.
func (g *Gate) AdminID() int64 { return g.adminID }

// IsAdmin reports whether chatID is the configured admin.
func (g *Gate) IsAdmin(chatID int64) bool { return g.adminID != 0 && chatID == g.adminID }

// PlaceholderName is the name stored for users granted before they wrote.
func PlaceholderName(chatID int64) string { return fmt.Sprintf("User_%d", chatID) }

func (g *Gate) statusOf(u models.User) Status {
	switch {
	case u.IsAdmin || g.IsAdmin(u.ChatID):
		return StatusAdmin
	case u.AccessGranted:
		return StatusApproved
	}
	return StatusPending
}

func translate(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// Resolve classifies chatID, registering it on first contact. Approved users
// get their display name refreshed when it changed.
func (g *Gate) Resolve(ctx context.Context, chatID int64, name string) (Decision, error) {
	name = strings.TrimSpace(name)
	u, err := g.store.GetUser(ctx, chatID)
	switch {
	case err == nil:
		if name != "" && name != u.Name {
			if err := g.store.UpdateUserName(ctx, chatID, name); err != nil {
				logger.LogEvent(ctx, g.log, slog.LevelWarn, "user.rename",
					slog.Int64("target_id", chatID), slog.String("err", err.Error()))
			}
		}
		return Decision{Status: g.statusOf(u)}, nil
	case !errors.Is(err, storage.ErrNotFound):
		return Decision{}, fmt.Errorf("resolve user: %w", err)
	}

	if name == "" {
		name = PlaceholderName(chatID)
	}
	admin := g.IsAdmin(chatID)
	u, err = g.store.InsertUser(ctx, chatID, name, admin, admin)
	if err != nil {
		return Decision{}, fmt.Errorf("register user: %w", err)
	}
	d := Decision{Status: g.statusOf(u), Registered: true}
	logger.LogEvent(ctx, g.log, slog.LevelInfo, "user.register",
		slog.Int64("target_id", chatID),
		slog.String("status", "ok"),
		slog.String("access", d.Status.String()),
	)
	if d.Status == StatusPending && g.notifier != nil {
		msg := notify.Message{
			Text: fmt.Sprintf("🆕 New access request\nName: %s\nID: %s\n\nUse /grant %d or the button below.",
				format.Escape(name), format.Code(fmt.Sprint(chatID)), chatID),
			Markdown: true,
			Buttons:  []keyboard.InlineBtn{{Text: "✅ Grant access", Unique: CallbackGrant, Data: fmt.Sprint(chatID)}},
		}
		if err := g.notifier.Notify(ctx, g.adminID, msg); err != nil {
			d.NotifyFailed = true
		}
	}
	return d, nil
}

// Grant approves chatID, creating a placeholder row for unknown ids, and
// tells the user. The returned bool is false when the user was not notified.
func (g *Gate) Grant(ctx context.Context, chatID int64) (models.User, bool, error) {
	if chatID <= 0 {
		return models.User{}, false, fmt.Errorf("grant: invalid chat id %d", chatID)
	}
	u, err := g.store.GrantUser(ctx, chatID, PlaceholderName(chatID))
	if err != nil {
		return models.User{}, false, fmt.Errorf("grant: %w", translate(err))
	}
	logger.LogEvent(ctx, g.log, slog.LevelInfo, "user.grant", slog.Int64("target_id", chatID), slog.String("status", "ok"))
	return u, g.tell(ctx, chatID, "✅ Your access has been granted. Send /start to begin."), nil
}

// Revoke removes access from chatID. The configured admin is refused with
// ErrAdminImmutable and keeps access.
func (g *Gate) Revoke(ctx context.Context, chatID int64) (models.User, bool, error) {
	if g.IsAdmin(chatID) {
		logger.LogEvent(ctx, g.log, slog.LevelWarn, "user.revoke",
			slog.Int64("target_id", chatID), slog.String("status", "denied"))
		return models.User{}, false, ErrAdminImmutable
	}
	u, err := g.store.RevokeUser(ctx, chatID)
	if err != nil {
		return models.User{}, false, fmt.Errorf("revoke: %w", translate(err))
	}
	logger.LogEvent(ctx, g.log, slog.LevelInfo, "user.revoke", slog.Int64("target_id", chatID), slog.String("status", "ok"))
	return u, g.tell(ctx, chatID, "⛔ Your access has been revoked."), nil
}

func (g *Gate) tell(ctx context.Context, chatID int64, text string) bool {
	if g.notifier == nil {
		return true
	}
	return g.notifier.Notify(ctx, chatID, notify.Message{Text: text}) == nil
}

// List returns all users.
func (g *Gate) List(ctx context.Context) ([]models.User, error) {
	users, err := g.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Get returns one user.
func (g *Gate) Get(ctx context.Context, chatID int64) (models.User, error) {
	u, err := g.store.GetUser(ctx, chatID)
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", translate(err))
	}
	return u, nil
}

// StatusOf returns the access status of a stored user.
func (g *Gate) StatusOf(u models.User) Status { return g.statusOf(u) }
