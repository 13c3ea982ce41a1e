// Package book is the domain repository for persons, banks and accounts.
// It trims and canonicalizes inputs once and maps storage failures to
// ErrNotFound and ErrAlreadyExists.
package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/storage"
	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
)

var (
	// ErrNotFound means the addressed entity, or a parent, no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means the name is taken in its scope.
	ErrAlreadyExists = errors.New("already exists")
)

// Store is the persistence contract implemented by *storage.Postgres.
type Store interface {
	CreatePerson(ctx context.Context, name string) (models.Person, error)
	ListPersons(ctx context.Context) ([]models.Person, error)
	GetPerson(ctx context.Context, id int64) (models.Person, error)
	RenamePerson(ctx context.Context, id int64, name string) error
	DeletePerson(ctx context.Context, id int64) (models.DeleteResult, error)

	CreateBank(ctx context.Context, personID int64, name string) (models.Bank, error)
	ListBanks(ctx context.Context, personID int64) ([]models.Bank, error)
	GetBank(ctx context.Context, id int64) (models.Bank, error)
	RenameBank(ctx context.Context, id int64, name string) error
	DeleteBank(ctx context.Context, id int64) (models.DeleteResult, error)

	CreateAccount(ctx context.Context, bankID int64, a models.NewAccount) (models.Account, error)
	ListAccounts(ctx context.Context, bankID int64) ([]models.Account, error)
	ListSpecialAccounts(ctx context.Context) ([]models.SpecialAccount, error)
	GetAccount(ctx context.Context, id int64) (models.Account, error)
	UpdateAccountField(ctx context.Context, id int64, field models.AccountField, value *string) error
	SetAccountSpecial(ctx context.Context, id int64, special bool) error
	DeleteAccount(ctx context.Context, id int64) (models.DeleteResult, error)
}

// Service exposes one method per entity operation.
type Service struct {
	store Store
	log   *slog.Logger
}

// New returns a Service over store.
func New(store Store) *Service {
	return &Service{store: store, log: logger.SVCBook}
}

// translate maps storage sentinels to the package errors, keeping the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	}
	return err
}

func (s *Service) logWrite(ctx context.Context, event string, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	attrs = append(attrs, slog.String("status", logger.Status(err)))
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrAlreadyExists) {
			level = slog.LevelError
		}
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, s.log, level, event, attrs...)
}

// CanonicalIBAN upper-cases s, drops spaces and dashes and makes sure it
// starts with exactly one "IR". An empty input stays empty.
func CanonicalIBAN(s string) string {
	s = strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s)))
	for strings.HasPrefix(s, "IR") {
		s = s[2:]
	}
	if s == "" {
		return ""
	}
	return "IR" + s
}

func canonicalPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := CanonicalIBAN(*p)
	if v == "" {
		return nil
	}
	return &v
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// CreatePerson adds a person.
func (s *Service) CreatePerson(ctx context.Context, name string) (models.Person, error) {
	p, err := s.store.CreatePerson(ctx, strings.TrimSpace(name))
	err = translate(err)
	s.logWrite(ctx, "person.create", err, slog.Int64("person_id", p.ID))
	return p, err
}

// ListPersons returns all persons.
func (s *Service) ListPersons(ctx context.Context) ([]models.Person, error) {
	out, err := s.store.ListPersons(ctx)
	return out, translate(err)
}

// GetPerson returns one person.
func (s *Service) GetPerson(ctx context.Context, id int64) (models.Person, error) {
	p, err := s.store.GetPerson(ctx, id)
	return p, translate(err)
}

// RenamePerson changes a person's name.
func (s *Service) RenamePerson(ctx context.Context, id int64, name string) error {
	err := translate(s.store.RenamePerson(ctx, id, strings.TrimSpace(name)))
	s.logWrite(ctx, "person.rename", err, slog.Int64("person_id", id))
	return err
}

// DeletePerson removes a person with its banks and accounts.
func (s *Service) DeletePerson(ctx context.Context, id int64) (models.DeleteResult, error) {
	res, err := s.store.DeletePerson(ctx, id)
	err = translate(err)
	s.logWrite(ctx, "person.delete", err,
		slog.Int64("person_id", id),
		slog.Int64("banks", res.Banks),
		slog.Int64("accounts", res.Accounts),
	)
	return res, err
}

// CreateBank adds a bank for personID.
func (s *Service) CreateBank(ctx context.Context, personID int64, name string) (models.Bank, error) {
	b, err := s.store.CreateBank(ctx, personID, strings.TrimSpace(name))
	err = translate(err)
	s.logWrite(ctx, "bank.create", err, slog.Int64("person_id", personID), slog.Int64("bank_id", b.ID))
	return b, err
}

// ListBanks returns the banks of personID.
func (s *Service) ListBanks(ctx context.Context, personID int64) ([]models.Bank, error) {
	out, err := s.store.ListBanks(ctx, personID)
	return out, translate(err)
}

// GetBank returns one bank.
func (s *Service) GetBank(ctx context.Context, id int64) (models.Bank, error) {
	b, err := s.store.GetBank(ctx, id)
	return b, translate(err)
}

// RenameBank changes a bank's name.
func (s *Service) RenameBank(ctx context.Context, id int64, name string) error {
	err := translate(s.store.RenameBank(ctx, id, strings.TrimSpace(name)))
	s.logWrite(ctx, "bank.rename", err, slog.Int64("bank_id", id))
	return err
}

// DeleteBank removes a bank with its accounts.
func (s *Service) DeleteBank(ctx context.Context, id int64) (models.DeleteResult, error) {
	res, err := s.store.DeleteBank(ctx, id)
	err = translate(err)
	s.logWrite(ctx, "bank.delete", err, slog.Int64("bank_id", id), slog.Int64("accounts", res.Accounts))
	return res, err
}

// CreateAccount adds an account under bankID.
func (s *Service) CreateAccount(ctx context.Context, bankID int64, a models.NewAccount) (models.Account, error) {
	a = models.NewAccount{
		Nickname:      trimPtr(a.Nickname),
		AccountNumber: trimPtr(a.AccountNumber),
		CardNumber:    trimPtr(a.CardNumber),
		IBAN:          canonicalPtr(a.IBAN),
		CardImageRef:  trimPtr(a.CardImageRef),
	}
	acc, err := s.store.CreateAccount(ctx, bankID, a)
	err = translate(err)
	s.logWrite(ctx, "account.create", err, slog.Int64("bank_id", bankID), slog.Int64("account_id", acc.ID))
	return acc, err
}

// ListAccounts returns the accounts of bankID.
func (s *Service) ListAccounts(ctx context.Context, bankID int64) ([]models.Account, error) {
	out, err := s.store.ListAccounts(ctx, bankID)
	return out, translate(err)
}

// ListSpecialAccounts returns the accounts flagged special.
func (s *Service) ListSpecialAccounts(ctx context.Context) ([]models.SpecialAccount, error) {
	out, err := s.store.ListSpecialAccounts(ctx)
	return out, translate(err)
}

// GetAccount returns one account.
func (s *Service) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	return a, translate(err)
}

// UpdateAccountField sets field to value; nil clears it.
func (s *Service) UpdateAccountField(ctx context.Context, id int64, field models.AccountField, value *string) error {
	if !field.Valid() {
		return fmt.Errorf("update account: unsupported field %d", int(field))
	}
	if field == models.FieldIBAN {
		value = canonicalPtr(value)
	} else {
		value = trimPtr(value)
	}
	err := translate(s.store.UpdateAccountField(ctx, id, field, value))
	s.logWrite(ctx, "account.update", err,
		slog.Int64("account_id", id),
		slog.String("field", field.String()),
		slog.Bool("cleared", value == nil),
	)
	return err
}

// SetAccountSpecial sets the special flag of an account.
func (s *Service) SetAccountSpecial(ctx context.Context, id int64, special bool) error {
	err := translate(s.store.SetAccountSpecial(ctx, id, special))
	s.logWrite(ctx, "account.special", err, slog.Int64("account_id", id), slog.Bool("special", special))
	return err
}

// DeleteAccount removes one account.
func (s *Service) DeleteAccount(ctx context.Context, id int64) (models.DeleteResult, error) {
	res, err := s.store.DeleteAccount(ctx, id)
	err = translate(err)
	s.logWrite(ctx, "account.delete", err, slog.Int64("account_id", id))
	return res, err
}
