// Package models holds the rows shared by the repository, the gate and the
// navigator.
package models

import "time"

// User is a chat that has contacted the bot.
type User struct {
	ChatID        int64     `db:"chat_id"`
	Name          string    `db:"name"`
	IsAdmin       bool      `db:"is_admin"`
	AccessGranted bool      `db:"access_granted"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Person owns banks.
type Person struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Bank belongs to exactly one person.
type Bank struct {
	ID       int64  `db:"id"`
	PersonID int64  `db:"person_id"`
	Name     string `db:"name"`
}

// Account holds the banking details of one card or account. Nil fields are
// not set.
type Account struct {
	ID            int64   `db:"id"`
	BankID        int64   `db:"bank_id"`
	Nickname      *string `db:"nickname"`
	AccountNumber *string `db:"account_number"`
	CardNumber    *string `db:"card_number"`
	IBAN          *string `db:"iban"`
	CardImageRef  *string `db:"card_image_ref"`
	IsSpecial     bool    `db:"is_special"`
}

// Value returns the current value of field.
func (a Account) Value(field AccountField) *string {
	switch field {
	case FieldNickname:
		return a.Nickname
	case FieldAccountNumber:
		return a.AccountNumber
	case FieldCardNumber:
		return a.CardNumber
	case FieldIBAN:
		return a.IBAN
	case FieldCardImage:
		return a.CardImageRef
	}
	return nil
}

// SpecialAccount is an account flagged special together with its owners.
type SpecialAccount struct {
	Account
	BankName   string `db:"bank_name"`
	PersonID   int64  `db:"person_id"`
	PersonName string `db:"person_name"`
}

// NewAccount carries the fields of an account being created.
type NewAccount struct {
	Nickname      *string
	AccountNumber *string
	CardNumber    *string
	IBAN          *string
	CardImageRef  *string
}

// DeleteResult counts the rows removed by a delete, cascaded children included.
// All zero means the id was stale.
type DeleteResult struct {
	Persons  int64
	Banks    int64
	Accounts int64
}

// Empty reports whether nothing was deleted.
func (r DeleteResult) Empty() bool {
	return r.Persons == 0 && r.Banks == 0 && r.Accounts == 0
}
