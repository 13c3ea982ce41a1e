package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

// Memory is an in-process store with the same semantics as Postgres:
// unique names, cascading deletes and ErrNotFound for missing parents.
// It backs development runs without a database and tests.
type Memory struct {
	mu       sync.Mutex
	users    map[int64]models.User
	persons  map[int64]models.Person
	banks    map[int64]models.Bank
	accounts map[int64]models.Account
	seq      int64

	// Fail, when set, is returned by every call. Tests use it to simulate
	// an unreachable database.
	Fail error
	// Now stamps user rows.
	Now func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]models.User),
		persons:  make(map[int64]models.Person),
		banks:    make(map[int64]models.Bank),
		accounts: make(map[int64]models.Account),
		Now:      time.Now,
	}
}

func (m *Memory) lock() error {
	m.mu.Lock()
	if m.Fail != nil {
		err := m.Fail
		m.mu.Unlock()
		return fmt.Errorf("memory: db error: %w", err)
	}
	return nil
}

func (m *Memory) nextID() int64 {
	m.seq++
	return m.seq
}

func notFound(op string) error { return fmt.Errorf("%s: %w", op, ErrNotFound) }

func duplicate(op string) error { return fmt.Errorf("%s: %w", op, ErrDuplicate) }

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAccount(a models.Account) models.Account {
	a.Nickname = clonePtr(a.Nickname)
	a.AccountNumber = clonePtr(a.AccountNumber)
	a.CardNumber = clonePtr(a.CardNumber)
	a.IBAN = clonePtr(a.IBAN)
	a.CardImageRef = clonePtr(a.CardImageRef)
	return a
}

// GetUser implements the user store.
func (m *Memory) GetUser(_ context.Context, chatID int64) (models.User, error) {
	if err := m.lock(); err != nil {
		return models.User{}, err
	}
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return models.User{}, notFound("get user")
	}
	return u, nil
}

// InsertUser implements the user store.
func (m *Memory) InsertUser(_ context.Context, chatID int64, name string, isAdmin, granted bool) (models.User, error) {
	if err := m.lock(); err != nil {
		return models.User{}, err
	}
	defer m.mu.Unlock()
	if u, ok := m.users[chatID]; ok {
		return u, nil
	}
	now := m.Now()
	u := models.User{ChatID: chatID, Name: name, IsAdmin: isAdmin, AccessGranted: granted, CreatedAt: now, UpdatedAt: now}
	m.users[chatID] = u
	return u, nil
}

// UpdateUserName implements the user store.
func (m *Memory) UpdateUserName(_ context.Context, chatID int64, name string) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return notFound("update user name")
	}
	u.Name, u.UpdatedAt = name, m.Now()
	m.users[chatID] = u
	return nil
}

// GrantUser implements the user store.
func (m *Memory) GrantUser(_ context.Context, chatID int64, placeholder string) (models.User, error) {
	if err := m.lock(); err != nil {
		return models.User{}, err
	}
	defer m.mu.Unlock()
	now := m.Now()
	u, ok := m.users[chatID]
	if !ok {
		u = models.User{ChatID: chatID, Name: placeholder, CreatedAt: now}
	}
	u.AccessGranted, u.UpdatedAt = true, now
	m.users[chatID] = u
	return u, nil
}

// RevokeUser implements the user store.
func (m *Memory) RevokeUser(_ context.Context, chatID int64) (models.User, error) {
	if err := m.lock(); err != nil {
		return models.User{}, err
	}
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok || u.IsAdmin {
		return models.User{}, notFound("revoke user")
	}
	u.AccessGranted, u.UpdatedAt = false, m.Now()
	m.users[chatID] = u
	return u, nil
}

// ListUsers implements the user store.
func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsAdmin != out[j].IsAdmin {
			return out[i].IsAdmin
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ChatID < out[j].ChatID
	})
	return out, nil
}

// EnsureAdmin implements the admin seeder contract.
func (m *Memory) EnsureAdmin(_ context.Context, chatID int64, name string) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	now := m.Now()
	for id, u := range m.users {
		if u.IsAdmin && id != chatID {
			u.IsAdmin = false
			m.users[id] = u
		}
	}
	u, ok := m.users[chatID]
	if !ok {
		u = models.User{ChatID: chatID, Name: name, CreatedAt: now}
	}
	u.IsAdmin, u.AccessGranted, u.UpdatedAt = true, true, now
	m.users[chatID] = u
	return nil
}

func (m *Memory) personNameTaken(name string, except int64) bool {
	for id, p := range m.persons {
		if p.Name == name && id != except {
			return true
		}
	}
	return false
}

// CreatePerson implements book.Store.
func (m *Memory) CreatePerson(_ context.Context, name string) (models.Person, error) {
	if err := m.lock(); err != nil {
		return models.Person{}, err
	}
	defer m.mu.Unlock()
	if m.personNameTaken(name, 0) {
		return models.Person{}, duplicate("create person")
	}
	p := models.Person{ID: m.nextID(), Name: name}
	m.persons[p.ID] = p
	return p, nil
}

// ListPersons implements book.Store.
func (m *Memory) ListPersons(_ context.Context) ([]models.Person, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	out := make([]models.Person, 0, len(m.persons))
	for _, p := range m.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetPerson implements book.Store.
func (m *Memory) GetPerson(_ context.Context, id int64) (models.Person, error) {
	if err := m.lock(); err != nil {
		return models.Person{}, err
	}
	defer m.mu.Unlock()
	p, ok := m.persons[id]
	if !ok {
		return models.Person{}, notFound("get person")
	}
	return p, nil
}

// RenamePerson implements book.Store.
func (m *Memory) RenamePerson(_ context.Context, id int64, name string) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	p, ok := m.persons[id]
	if !ok {
		return notFound("rename person")
	}
	if m.personNameTaken(name, id) {
		return duplicate("rename person")
	}
	p.Name = name
	m.persons[id] = p
	return nil
}

// deleteBankLocked removes a bank and its accounts and returns the count of
// removed accounts.
func (m *Memory) deleteBankLocked(id int64) int64 {
	var n int64
	for aid, a := range m.accounts {
		if a.BankID == id {
			delete(m.accounts, aid)
			n++
		}
	}
	delete(m.banks, id)
	return n
}

// DeletePerson implements book.Store.
func (m *Memory) DeletePerson(_ context.Context, id int64) (models.DeleteResult, error) {
	if err := m.lock(); err != nil {
		return models.DeleteResult{}, err
	}
	defer m.mu.Unlock()
	if _, ok := m.persons[id]; !ok {
		return models.DeleteResult{}, nil
	}
	res := models.DeleteResult{Persons: 1}
	for bid, b := range m.banks {
		if b.PersonID == id {
			res.Accounts += m.deleteBankLocked(bid)
			res.Banks++
		}
	}
	delete(m.persons, id)
	return res, nil
}

func (m *Memory) bankNameTaken(personID int64, name string, except int64) bool {
	for id, b := range m.banks {
		if b.PersonID == personID && b.Name == name && id != except {
			return true
		}
	}
	return false
}

// CreateBank implements book.Store.
func (m *Memory) CreateBank(_ context.Context, personID int64, name string) (models.Bank, error) {
	if err := m.lock(); err != nil {
		return models.Bank{}, err
	}
	defer m.mu.Unlock()
	if _, ok := m.persons[personID]; !ok {
		return models.Bank{}, notFound("create bank: parent row")
	}
	if m.bankNameTaken(personID, name, 0) {
		return models.Bank{}, duplicate("create bank")
	}
	b := models.Bank{ID: m.nextID(), PersonID: personID, Name: name}
	m.banks[b.ID] = b
	return b, nil
}

// ListBanks implements book.Store.
func (m *Memory) ListBanks(_ context.Context, personID int64) ([]models.Bank, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []models.Bank
	for _, b := range m.banks {
		if b.PersonID == personID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetBank implements book.Store.
func (m *Memory) GetBank(_ context.Context, id int64) (models.Bank, error) {
	if err := m.lock(); err != nil {
		return models.Bank{}, err
	}
	defer m.mu.Unlock()
	b, ok := m.banks[id]
	if !ok {
		return models.Bank{}, notFound("get bank")
	}
	return b, nil
}

// RenameBank implements book.Store.
func (m *Memory) RenameBank(_ context.Context, id int64, name string) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	b, ok := m.banks[id]
	if !ok {
		return notFound("rename bank")
	}
	if m.bankNameTaken(b.PersonID, name, id) {
		return duplicate("rename bank")
	}
	b.Name = name
	m.banks[id] = b
	return nil
}

// DeleteBank implements book.Store.
func (m *Memory) DeleteBank(_ context.Context, id int64) (models.DeleteResult, error) {
	if err := m.lock(); err != nil {
		return models.DeleteResult{}, err
	}
	defer m.mu.Unlock()
	if _, ok := m.banks[id]; !ok {
		return models.DeleteResult{}, nil
	}
	return models.DeleteResult{Banks: 1, Accounts: m.deleteBankLocked(id)}, nil
}

// CreateAccount implements book.Store.
func (m *Memory) CreateAccount(_ context.Context, bankID int64, a models.NewAccount) (models.Account, error) {
	if err := m.lock(); err != nil {
		return models.Account{}, err
	}
	defer m.mu.Unlock()
	if _, ok := m.banks[bankID]; !ok {
		return models.Account{}, notFound("create account: parent row")
	}
	acc := models.Account{
		ID:            m.nextID(),
		BankID:        bankID,
		Nickname:      clonePtr(a.Nickname),
		AccountNumber: clonePtr(a.AccountNumber),
		CardNumber:    clonePtr(a.CardNumber),
		IBAN:          clonePtr(a.IBAN),
		CardImageRef:  clonePtr(a.CardImageRef),
	}
	m.accounts[acc.ID] = acc
	return cloneAccount(acc), nil
}

func sortAccounts(out []models.Account) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsSpecial != out[j].IsSpecial {
			return out[i].IsSpecial
		}
		return out[i].ID < out[j].ID
	})
}

// ListAccounts implements book.Store.
func (m *Memory) ListAccounts(_ context.Context, bankID int64) ([]models.Account, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.BankID == bankID {
			out = append(out, cloneAccount(a))
		}
	}
	sortAccounts(out)
	return out, nil
}

// ListSpecialAccounts implements book.Store.
func (m *Memory) ListSpecialAccounts(_ context.Context) ([]models.SpecialAccount, error) {
	if err := m.lock(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	var out []models.SpecialAccount
	for _, a := range m.accounts {
		if !a.IsSpecial {
			continue
		}
		b := m.banks[a.BankID]
		p := m.persons[b.PersonID]
		out = append(out, models.SpecialAccount{
			Account:    cloneAccount(a),
			BankName:   b.Name,
			PersonID:   p.ID,
			PersonName: p.Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PersonName != out[j].PersonName {
			return out[i].PersonName < out[j].PersonName
		}
		if out[i].BankName != out[j].BankName {
			return out[i].BankName < out[j].BankName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetAccount implements book.Store.
func (m *Memory) GetAccount(_ context.Context, id int64) (models.Account, error) {
	if err := m.lock(); err != nil {
		return models.Account{}, err
	}
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return models.Account{}, notFound("get account")
	}
	return cloneAccount(a), nil
}

// UpdateAccountField implements book.Store.
func (m *Memory) UpdateAccountField(_ context.Context, id int64, field models.AccountField, value *string) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return notFound("update account")
	}
	v := clonePtr(value)
	switch field {
	case models.FieldNickname:
		a.Nickname = v
	case models.FieldAccountNumber:
		a.AccountNumber = v
	case models.FieldCardNumber:
		a.CardNumber = v
	case models.FieldIBAN:
		a.IBAN = v
	case models.FieldCardImage:
		a.CardImageRef = v
	default:
		return fmt.Errorf("update account: unsupported field %d", int(field))
	}
	m.accounts[id] = a
	return nil
}

// SetAccountSpecial implements book.Store.
func (m *Memory) SetAccountSpecial(_ context.Context, id int64, special bool) error {
	if err := m.lock(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return notFound("set account special")
	}
	a.IsSpecial = special
	m.accounts[id] = a
	return nil
}

// DeleteAccount implements book.Store.
func (m *Memory) DeleteAccount(_ context.Context, id int64) (models.DeleteResult, error) {
	if err := m.lock(); err != nil {
		return models.DeleteResult{}, err
	}
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return models.DeleteResult{}, nil
	}
	delete(m.accounts, id)
	return models.DeleteResult{Accounts: 1}, nil
}

// Counts reports the number of persons, banks and accounts.
func (m *Memory) Counts() models.DeleteResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.DeleteResult{
		Persons:  int64(len(m.persons)),
		Banks:    int64(len(m.banks)),
		Accounts: int64(len(m.accounts)),
	}
}
