package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

func TestMemoryCascadeDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	alice, err := m.CreatePerson(ctx, "Alice")
	require.NoError(t, err)
	bob, err := m.CreatePerson(ctx, "Bob")
	require.NoError(t, err)
	city, err := m.CreateBank(ctx, alice.ID, "CityBank")
	require.NoError(t, err)
	_, err = m.CreateBank(ctx, alice.ID, "CityBank")
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = m.CreateBank(ctx, bob.ID, "CityBank")
	require.NoError(t, err)

	acc, err := m.CreateAccount(ctx, city.ID, models.NewAccount{})
	require.NoError(t, err)

	res, err := m.DeletePerson(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteResult{Persons: 1, Banks: 1, Accounts: 1}, res)

	_, err = m.GetAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetBank(ctx, city.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.DeleteResult{Persons: 1, Banks: 1}, m.Counts())

	res, err = m.DeletePerson(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestMemoryAccountsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p, _ := m.CreatePerson(ctx, "Alice")
	b, _ := m.CreateBank(ctx, p.ID, "CityBank")
	nick := "salary"
	acc, err := m.CreateAccount(ctx, b.ID, models.NewAccount{Nickname: &nick})
	require.NoError(t, err)

	*acc.Nickname = "changed"
	got, err := m.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "salary", *got.Nickname)
}

func TestMemoryFail(t *testing.T) {
	m := NewMemory()
	m.Fail = errors.New("connection refused")
	_, err := m.ListPersons(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.EnsureAdmin(ctx, 1, "Admin"))

	u, err := m.InsertUser(ctx, 2, "Sara", false, false)
	require.NoError(t, err)
	assert.False(t, u.AccessGranted)

	u, err = m.GrantUser(ctx, 3, "User_3")
	require.NoError(t, err)
	assert.True(t, u.AccessGranted)
	assert.Equal(t, "User_3", u.Name)

	_, err = m.RevokeUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := m.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.True(t, users[0].IsAdmin)
}
