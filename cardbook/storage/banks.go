package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

// CreateBank adds a bank under personID. A missing person yields ErrNotFound,
// a name already used by that person ErrDuplicate.
func (p *Postgres) CreateBank(ctx context.Context, personID int64, name string) (models.Bank, error) {
	var out models.Bank
	err := p.db.GetContext(ctx, &out,
		`INSERT INTO banks (person_id, name) VALUES ($1, $2) RETURNING id, person_id, name`,
		personID, name)
	return out, mapError("create bank", err)
}

// ListBanks returns the banks of one person ordered by name.
func (p *Postgres) ListBanks(ctx context.Context, personID int64) ([]models.Bank, error) {
	var out []models.Bank
	err := p.db.SelectContext(ctx, &out,
		`SELECT id, person_id, name FROM banks WHERE person_id = $1 ORDER BY name, id`, personID)
	return out, mapError("list banks", err)
}

// GetBank returns one bank.
func (p *Postgres) GetBank(ctx context.Context, id int64) (models.Bank, error) {
	var out models.Bank
	err := p.db.GetContext(ctx, &out, `SELECT id, person_id, name FROM banks WHERE id = $1`, id)
	return out, mapError("get bank", err)
}

// RenameBank changes the name of a bank.
func (p *Postgres) RenameBank(ctx context.Context, id int64, name string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE banks SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return mapError("rename bank", err)
	}
	return expectOne("rename bank", res)
}

// DeleteBank removes a bank and, by cascade, its accounts.
func (p *Postgres) DeleteBank(ctx context.Context, id int64) (models.DeleteResult, error) {
	var out models.DeleteResult
	err := p.inTx(ctx, "delete bank", func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx,
			`SELECT COUNT(*) FROM accounts WHERE bank_id = $1`, id).Scan(&out.Accounts); err != nil {
			return mapError("delete bank: count", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM banks WHERE id = $1`, id)
		if err != nil {
			return mapError("delete bank", err)
		}
		n, err := affected("delete bank", res)
		if err != nil {
			return err
		}
		out.Banks = n
		if n == 0 {
			out = models.DeleteResult{}
		}
		return nil
	})
	return out, err
}

func expectOne(op string, res sql.Result) error {
	n, err := affected(op, res)
	if err != nil {
		return err
	}
	if n == 0 {
		return mapError(op, sql.ErrNoRows)
	}
	return nil
}
