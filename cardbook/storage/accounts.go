package storage

import (
	"context"
	"fmt"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

const accountColumns = `id, bank_id, nickname, account_number, card_number, iban, card_image_ref, is_special`

// updateStatements maps every editable field to its own statement, so no
// column name is ever built at runtime.
var updateStatements = map[models.AccountField]string{
	models.FieldNickname:      `UPDATE accounts SET nickname = $2 WHERE id = $1`,
	models.FieldAccountNumber: `UPDATE accounts SET account_number = $2 WHERE id = $1`,
	models.FieldCardNumber:    `UPDATE accounts SET card_number = $2 WHERE id = $1`,
	models.FieldIBAN:          `UPDATE accounts SET iban = $2 WHERE id = $1`,
	models.FieldCardImage:     `UPDATE accounts SET card_image_ref = $2 WHERE id = $1`,
}

// CreateAccount adds an account under bankID. A missing bank yields ErrNotFound.
func (p *Postgres) CreateAccount(ctx context.Context, bankID int64, a models.NewAccount) (models.Account, error) {
	var out models.Account
	err := p.db.GetContext(ctx, &out,
		`INSERT INTO accounts (bank_id, nickname, account_number, card_number, iban, card_image_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+accountColumns,
		bankID, a.Nickname, a.AccountNumber, a.CardNumber, a.IBAN, a.CardImageRef)
	return out, mapError("create account", err)
}

// ListAccounts returns the accounts of one bank, special ones first.
func (p *Postgres) ListAccounts(ctx context.Context, bankID int64) ([]models.Account, error) {
	var out []models.Account
	err := p.db.SelectContext(ctx, &out,
		`SELECT `+accountColumns+` FROM accounts WHERE bank_id = $1 ORDER BY is_special DESC, id`, bankID)
	return out, mapError("list accounts", err)
}

// ListSpecialAccounts returns every special account with its bank and person.
func (p *Postgres) ListSpecialAccounts(ctx context.Context) ([]models.SpecialAccount, error) {
	var out []models.SpecialAccount
	err := p.db.SelectContext(ctx, &out,
		`SELECT a.id, a.bank_id, a.nickname, a.account_number, a.card_number, a.iban,
		        a.card_image_ref, a.is_special,
		        b.name AS bank_name, p.id AS person_id, p.name AS person_name
		 FROM accounts a
		 JOIN banks b ON b.id = a.bank_id
		 JOIN persons p ON p.id = b.person_id
		 WHERE a.is_special
		 ORDER BY p.name, b.name, a.id`)
	return out, mapError("list special accounts", err)
}

// GetAccount returns one account.
func (p *Postgres) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	var out models.Account
	err := p.db.GetContext(ctx, &out, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return out, mapError("get account", err)
}

// UpdateAccountField sets one field; a nil value stores NULL.
func (p *Postgres) UpdateAccountField(ctx context.Context, id int64, field models.AccountField, value *string) error {
	stmt, ok := updateStatements[field]
	if !ok {
		return fmt.Errorf("update account: unsupported field %d", int(field))
	}
	res, err := p.db.ExecContext(ctx, stmt, id, value)
	if err != nil {
		return mapError("update account "+field.String(), err)
	}
	return expectOne("update account "+field.String(), res)
}

// SetAccountSpecial sets the special flag.
func (p *Postgres) SetAccountSpecial(ctx context.Context, id int64, special bool) error {
	res, err := p.db.ExecContext(ctx, `UPDATE accounts SET is_special = $2 WHERE id = $1`, id, special)
	if err != nil {
		return mapError("set account special", err)
	}
	return expectOne("set account special", res)
}

// DeleteAccount removes one account.
func (p *Postgres) DeleteAccount(ctx context.Context, id int64) (models.DeleteResult, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return models.DeleteResult{}, mapError("delete account", err)
	}
	n, err := affected("delete account", res)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Accounts: n}, nil
}
