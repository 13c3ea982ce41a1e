package models

// AccountField enumerates the account columns that can be edited one at a time.
type AccountField int

const (
	FieldUnknown AccountField = iota
	FieldNickname
	FieldAccountNumber
	FieldCardNumber
	FieldIBAN
	FieldCardImage
)

// EditableFields lists the fields in menu order.
var EditableFields = []AccountField{
	FieldNickname,
	FieldAccountNumber,
	FieldCardNumber,
	FieldIBAN,
	FieldCardImage,
}

var fieldNames = map[AccountField]string{
	FieldNickname:      "nickname",
	FieldAccountNumber: "account_number",
	FieldCardNumber:    "card_number",
	FieldIBAN:          "iban",
	FieldCardImage:     "card_image",
}

var fieldLabels = map[AccountField]string{
	FieldNickname:      "Nickname",
	FieldAccountNumber: "Account number",
	FieldCardNumber:    "Card number",
	FieldIBAN:          "IBAN",
	FieldCardImage:     "Card image",
}

// String returns the log name of the field.
func (f AccountField) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return "unknown"
}

// Label returns the button label of the field.
func (f AccountField) Label() string {
	return fieldLabels[f]
}

// Valid reports whether f is an editable field.
func (f AccountField) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

// FieldByLabel resolves a button label back to its field.
func FieldByLabel(label string) (AccountField, bool) {
	for _, f := range EditableFields {
		if fieldLabels[f] == label {
			return f, true
		}
	}
	return FieldUnknown, false
}
