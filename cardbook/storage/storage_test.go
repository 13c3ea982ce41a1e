package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

func newRepoWithMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return New(sqlx.NewDb(db, "postgres")), mock
}

var accountCols = []string{"id", "bank_id", "nickname", "account_number", "card_number", "iban", "card_image_ref", "is_special"}

func TestCreatePerson(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+persons\s*\(name\)\s*VALUES\s*\(\$1\)\s*RETURNING\s+id,\s*name$`).
		WithArgs("Alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Alice"))

	got, err := repo.CreatePerson(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, models.Person{ID: 1, Name: "Alice"}, got)
}

func TestCreatePersonDuplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+persons`).
		WithArgs("Alice").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.CreatePerson(context.Background(), "Alice")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateBankMissingPerson(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+banks\s*\(person_id,\s*name\)`).
		WithArgs(int64(9), "CityBank").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.CreateBank(context.Background(), 9, "CityBank")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPersonNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name\s+FROM\s+persons\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := repo.GetPerson(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPersonsDBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name\s+FROM\s+persons\s+ORDER\s+BY`).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListPersons(context.Background())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRenamePersonStale(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+persons\s+SET\s+name\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(4), "Bob").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.RenamePerson(context.Background(), 4, "Bob"), ErrNotFound)
}

func TestDeletePersonCountsChildren(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+\(SELECT\s+COUNT\(\*\)\s+FROM\s+banks`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"banks", "accounts"}).AddRow(int64(2), int64(3)))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+persons\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.DeletePerson(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteResult{Persons: 1, Banks: 2, Accounts: 3}, got)
}

func TestDeletePersonStaleReportsZero(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"banks", "accounts"}).AddRow(int64(0), int64(0)))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+persons`).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	got, err := repo.DeletePerson(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestDeleteBankRollsBackOnError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+accounts\s+WHERE\s+bank_id\s*=\s*\$1$`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+banks`).
		WithArgs(int64(2)).
		WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	_, err := repo.DeleteBank(context.Background(), 2)
	assert.ErrorContains(t, err, "conn reset")
}

func TestUpdateAccountFieldUsesStaticStatement(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+accounts\s+SET\s+iban\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(5), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAccountField(context.Background(), 5, models.FieldIBAN, nil))
	assert.Error(t, repo.UpdateAccountField(context.Background(), 5, models.FieldUnknown, nil))
}

func TestCreateAndGetAccount(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	card := "4111111111111111"

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts\s*\(bank_id,\s*nickname,\s*account_number,\s*card_number,\s*iban,\s*card_image_ref\)`).
		WithArgs(int64(2), nil, nil, card, nil, nil).
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow(int64(7), int64(2), nil, nil, card, nil, nil, false))

	got, err := repo.CreateAccount(context.Background(), 2, models.NewAccount{CardNumber: &card})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.CardNumber)
	assert.Equal(t, card, *got.CardNumber)
	assert.Nil(t, got.IBAN)
}

func TestListSpecialAccounts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	nick := "salary"

	cols := append(append([]string{}, accountCols...), "bank_name", "person_id", "person_name")
	mock.ExpectQuery(`(?s)^SELECT\s+a\.id.*FROM\s+accounts\s+a\s+JOIN\s+banks\s+b.*WHERE\s+a\.is_special`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(3), int64(2), nick, nil, nil, nil, nil, true, "CityBank", int64(1), "Alice"))

	got, err := repo.ListSpecialAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].PersonName)
	assert.Equal(t, "CityBank", got[0].BankName)
	assert.True(t, got[0].IsSpecial)
}

func TestDeleteAccount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.DeleteAccount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteResult{Accounts: 1}, got)
}

func TestInsertAndRevokeUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cols := []string{"chat_id", "name", "is_admin", "access_granted", "created_at", "updated_at"}

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users.*ON\s+CONFLICT\s+\(chat_id\)`).
		WithArgs(int64(42), "Sara", false, false).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(42), "Sara", false, false, now, now))
	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+access_granted\s*=\s*FALSE.*WHERE\s+chat_id\s*=\s*\$1\s+AND\s+NOT\s+is_admin`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols))

	u, err := repo.InsertUser(context.Background(), 42, "Sara", false, false)
	require.NoError(t, err)
	assert.Equal(t, "Sara", u.Name)
	assert.False(t, u.AccessGranted)

	_, err = repo.RevokeUser(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+is_admin\s*=\s*FALSE`).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users.*DO\s+UPDATE\s+SET\s+is_admin\s*=\s*TRUE`).
		WithArgs(int64(100), "Admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.EnsureAdmin(context.Background(), 100, "Admin"))
}
