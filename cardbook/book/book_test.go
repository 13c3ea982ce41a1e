package book

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/storage"
)

func ptr(s string) *string { return &s }

func newService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return New(mem), mem
}

func TestCanonicalIBAN(t *testing.T) {
	cases := map[string]string{
		"":                                  "",
		"123456789012345678901234":          "IR123456789012345678901234",
		"IR123456789012345678901234":        "IR123456789012345678901234",
		"ir 1234 5678 9012 3456 7890 1234":  "IR123456789012345678901234",
		"IRIR123456789012345678901234":      "IR123456789012345678901234",
		" IR12-3456-7890-1234-5678-9012-34": "IR123456789012345678901234",
	}
	for in, want := range cases {
		got := CanonicalIBAN(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, CanonicalIBAN(got), "idempotent for %q", in)
	}
}

func TestDuplicatePersonIsAlreadyExists(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)

	_, err := svc.CreatePerson(ctx, "Alice")
	require.NoError(t, err)
	_, err = svc.CreatePerson(ctx, " Alice ")
	require.ErrorIs(t, err, ErrAlreadyExists)

	persons, err := svc.ListPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, persons, 1)
	assert.Equal(t, int64(1), mem.Counts().Persons)
}

func TestIBANStoredOnceCanonical(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, _ := svc.CreatePerson(ctx, "Alice")
	b, _ := svc.CreateBank(ctx, p.ID, "CityBank")

	acc, err := svc.CreateAccount(ctx, b.ID, models.NewAccount{IBAN: ptr("123456789012345678901234")})
	require.NoError(t, err)
	require.NotNil(t, acc.IBAN)
	first := *acc.IBAN

	require.NoError(t, svc.UpdateAccountField(ctx, acc.ID, models.FieldIBAN, ptr("IR123456789012345678901234")))
	got, err := svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *got.IBAN)
	assert.Equal(t, "IR123456789012345678901234", first)
}

func TestUpdateFieldLeavesOthersIntact(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, _ := svc.CreatePerson(ctx, "Alice")
	b, _ := svc.CreateBank(ctx, p.ID, "CityBank")
	acc, err := svc.CreateAccount(ctx, b.ID, models.NewAccount{
		Nickname:      ptr("salary"),
		AccountNumber: ptr("0101234567"),
		CardNumber:    ptr("4111111111111111"),
		IBAN:          ptr("IR123456789012345678901234"),
		CardImageRef:  ptr("AgACAgQ"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateAccountField(ctx, acc.ID, models.FieldCardNumber, nil))
	got, err := svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)

	assert.Nil(t, got.CardNumber)
	for _, f := range []models.AccountField{models.FieldNickname, models.FieldAccountNumber, models.FieldIBAN, models.FieldCardImage} {
		assert.Equal(t, acc.Value(f), got.Value(f), f.String())
	}
	assert.Error(t, svc.UpdateAccountField(ctx, acc.ID, models.FieldUnknown, nil))
}

func TestStaleIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, _ := svc.CreatePerson(ctx, "Alice")
	b, _ := svc.CreateBank(ctx, p.ID, "CityBank")
	acc, _ := svc.CreateAccount(ctx, b.ID, models.NewAccount{CardNumber: ptr("4111111111111111")})

	res, err := svc.DeletePerson(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteResult{Persons: 1, Banks: 1, Accounts: 1}, res)

	_, err = svc.GetPerson(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetBank(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.CreateBank(ctx, p.ID, "Other")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err = svc.DeleteAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestConnectivityErrorsPassThrough(t *testing.T) {
	svc, mem := newService(t)
	mem.Fail = errors.New("dial tcp: connection refused")

	_, err := svc.ListPersons(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestSpecialFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, _ := svc.CreatePerson(ctx, "Alice")
	b, _ := svc.CreateBank(ctx, p.ID, "CityBank")
	acc, _ := svc.CreateAccount(ctx, b.ID, models.NewAccount{Nickname: ptr("main")})

	require.NoError(t, svc.SetAccountSpecial(ctx, acc.ID, true))
	special, err := svc.ListSpecialAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, special, 1)
	assert.Equal(t, "Alice", special[0].PersonName)
	assert.Equal(t, "CityBank", special[0].BankName)
}
