package bootstrap

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/mohammaddehghani/TelegBotCardNum/core/config"
	coredatabase "github.com/mohammaddehghani/TelegBotCardNum/core/database"
)

func mockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(raw, "postgres"), mock
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunOrdersSteps(t *testing.T) {
	db, mock := mockDB(t)
	defer db.Close()

	var steps []string
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Migrations: coredatabase.Migrations{FS: fstest.MapFS{}},
		LoggerInit: func(*coreconfig.Config) error { steps = append(steps, "logger"); return nil },
		Migrate: func(context.Context, coredatabase.Config, coredatabase.Migrations) error {
			steps = append(steps, "migrate")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return db, nil
		},
		Seeders: []Seeder{
			SeederFunc(func(context.Context, *sqlx.DB) error { steps = append(steps, "seed"); return nil }),
		},
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.Equal(t, []string{"logger", "migrate", "connect", "seed"}, steps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunSkipsMigrationsWithoutSource(t *testing.T) {
	db, _ := mockDB(t)
	defer db.Close()

	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Migrate: func(context.Context, coredatabase.Config, coredatabase.Migrations) error {
			t.Fatal("migrate must not run without a source")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil },
	})
	require.NoError(t, err)
}

func TestRunClosesDBWhenSeederFails(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectClose()

	boom := errors.New("seed failed")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect:    func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return db, nil },
		Seeders: []Seeder{
			SeederFunc(func(context.Context, *sqlx.DB) error { return boom }),
		},
	})
	require.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
