package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

// CreatePerson inserts a person. A taken name yields ErrDuplicate.
func (p *Postgres) CreatePerson(ctx context.Context, name string) (models.Person, error) {
	var out models.Person
	err := p.db.GetContext(ctx, &out,
		`INSERT INTO persons (name) VALUES ($1) RETURNING id, name`, name)
	return out, mapError("create person", err)
}

// ListPersons returns persons ordered by name.
func (p *Postgres) ListPersons(ctx context.Context) ([]models.Person, error) {
	var out []models.Person
	err := p.db.SelectContext(ctx, &out, `SELECT id, name FROM persons ORDER BY name, id`)
	return out, mapError("list persons", err)
}

// GetPerson returns one person.
func (p *Postgres) GetPerson(ctx context.Context, id int64) (models.Person, error) {
	var out models.Person
	err := p.db.GetContext(ctx, &out, `SELECT id, name FROM persons WHERE id = $1`, id)
	return out, mapError("get person", err)
}

// RenamePerson changes the name of a person.
func (p *Postgres) RenamePerson(ctx context.Context, id int64, name string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE persons SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return mapError("rename person", err)
	}
	return expectOne("rename person", res)
}

// DeletePerson removes a person; its banks and accounts go with it through
// the foreign keys. The children are counted first in the same transaction.
func (p *Postgres) DeletePerson(ctx context.Context, id int64) (models.DeleteResult, error) {
	var out models.DeleteResult
	err := p.inTx(ctx, "delete person", func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx,
			`SELECT
			   (SELECT COUNT(*) FROM banks WHERE person_id = $1),
			   (SELECT COUNT(*) FROM accounts a JOIN banks b ON b.id = a.bank_id WHERE b.person_id = $1)`,
			id).Scan(&out.Banks, &out.Accounts); err != nil {
			return mapError("delete person: count", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
		if err != nil {
			return mapError("delete person", err)
		}
		n, err := affected("delete person", res)
		if err != nil {
			return err
		}
		out.Persons = n
		if n == 0 {
			out = models.DeleteResult{}
		}
		return nil
	})
	return out, err
}
