package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

const userColumns = `chat_id, name, is_admin, access_granted, created_at, updated_at`

// GetUser returns the user row for chatID.
func (p *Postgres) GetUser(ctx context.Context, chatID int64) (models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE chat_id = $1`, chatID)
	return u, mapError("get user", err)
}

// InsertUser registers a chat. An existing row is returned untouched.
func (p *Postgres) InsertUser(ctx context.Context, chatID int64, name string, isAdmin, granted bool) (models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u,
		`INSERT INTO users (chat_id, name, is_admin, access_granted)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (chat_id) DO UPDATE SET chat_id = users.chat_id
		 RETURNING `+userColumns,
		chatID, name, isAdmin, granted)
	return u, mapError("insert user", err)
}

// UpdateUserName stores a new display name.
func (p *Postgres) UpdateUserName(ctx context.Context, chatID int64, name string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE users SET name = $2, updated_at = NOW() WHERE chat_id = $1`, chatID, name)
	if err != nil {
		return mapError("update user name", err)
	}
	return expectOne("update user name", res)
}

// GrantUser gives chatID access, creating the row with placeholder when the
// chat never wrote to the bot.
func (p *Postgres) GrantUser(ctx context.Context, chatID int64, placeholder string) (models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u,
		`INSERT INTO users (chat_id, name, is_admin, access_granted)
		 VALUES ($1, $2, FALSE, TRUE)
		 ON CONFLICT (chat_id) DO UPDATE SET access_granted = TRUE, updated_at = NOW()
		 RETURNING `+userColumns,
		chatID, placeholder)
	return u, mapError("grant user", err)
}

// RevokeUser removes access from a non-admin user.
func (p *Postgres) RevokeUser(ctx context.Context, chatID int64) (models.User, error) {
	var u models.User
	err := p.db.GetContext(ctx, &u,
		`UPDATE users SET access_granted = FALSE, updated_at = NOW()
		 WHERE chat_id = $1 AND NOT is_admin
		 RETURNING `+userColumns,
		chatID)
	return u, mapError("revoke user", err)
}

// ListUsers returns all users, admin first, then by registration time.
func (p *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := p.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY is_admin DESC, created_at, chat_id`)
	return users, mapError("list users", err)
}

// EnsureAdmin makes chatID the only admin with access granted.
func (p *Postgres) EnsureAdmin(ctx context.Context, chatID int64, name string) error {
	return p.inTx(ctx, "ensure admin", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET is_admin = FALSE, updated_at = NOW() WHERE is_admin AND chat_id <> $1`,
			chatID); err != nil {
			return mapError("ensure admin: demote", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (chat_id, name, is_admin, access_granted)
			 VALUES ($1, $2, TRUE, TRUE)
			 ON CONFLICT (chat_id) DO UPDATE SET is_admin = TRUE, access_granted = TRUE, updated_at = NOW()`,
			chatID, name); err != nil {
			return mapError("ensure admin: upsert", err)
		}
		return nil
	})
}
