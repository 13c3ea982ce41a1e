package flow

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxNameRunes = 50

// inputError is a validation failure shown to the user as is.
type inputError string

func (e inputError) Error() string { return string(e) }

const (
	errNameEmpty     inputError = "The name cannot be empty."
	errNameLong      inputError = "The name must be at most 50 characters."
	errNameReserved  inputError = "That text is a menu button. Please choose another name."
	errNameCommand   inputError = "The name cannot start with \"/\"."
	errCardNumber    inputError = "The card number must be exactly 16 digits."
	errAccountNumber inputError = "The account number must be 4 to 30 digits."
	errIBAN          inputError = "The IBAN must be 24 digits, optionally starting with IR."
	errChatID        inputError = "Please send a numeric chat id."
)

// NormalizeDigits maps Persian and Arabic-Indic digits to ASCII.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}

// compactDigits normalizes s and drops spaces and dashes. ok is false when
// anything other than digits remains.
func compactDigits(s string) (string, bool) {
	s = NormalizeDigits(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '\u00a0':
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			return "", false
		}
	}
	return b.String(), b.Len() > 0
}

// ValidateName trims s and checks it can name a person, bank or account.
func ValidateName(s string) (string, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", errNameEmpty
	case utf8.RuneCountInString(s) > maxNameRunes:
		return "", errNameLong
	case strings.HasPrefix(s, "/"):
		return "", errNameCommand
	case Reserved(s):
		return "", errNameReserved
	}
	return s, nil
}

// ParseCardNumber returns the 16 card digits.
func ParseCardNumber(s string) (string, error) {
	d, ok := compactDigits(s)
	if !ok || len(d) != 16 {
		return "", errCardNumber
	}
	return d, nil
}

// ParseAccountNumber returns the account digits.
func ParseAccountNumber(s string) (string, error) {
	d, ok := compactDigits(s)
	if !ok || len(d) < 4 || len(d) > 30 {
		return "", errAccountNumber
	}
	return d, nil
}

// ParseIBAN returns the IBAN in its stored "IR" + 24 digits form.
func ParseIBAN(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "IR")
	d, ok := compactDigits(s)
	if !ok || len(d) != 24 {
		return "", errIBAN
	}
	return "IR" + d, nil
}

// ParseChatID parses a positive chat id.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(NormalizeDigits(strings.TrimSpace(s)), 10, 64)
	if err != nil || id <= 0 {
		return 0, errChatID
	}
	return id, nil
}
