package flow

// State is a conversation step. The zero value is the main menu.
type State int

const (
	MainMenu State = iota

	ViewPersons
	ViewBanks
	ViewAccounts

	EditPersons
	AddPersonName
	EditPerson
	RenamePerson
	ConfirmDeletePerson
	AddBankName
	EditBank
	RenameBank
	ConfirmDeleteBank
	AccountMenu
	EditAccountField
	EditAccountValue
	ConfirmDeleteAccount

	AddAccountNickname
	AddAccountNumber
	AddAccountCard
	AddAccountIBAN
	AddAccountImage

	AdminMenu
	AdminGrant
	AdminRevoke
	AdminRevokeConfirm

	stateCount
)

var stateNames = [stateCount]string{
	MainMenu:             "main_menu",
	ViewPersons:          "view_persons",
	ViewBanks:            "view_banks",
	ViewAccounts:         "view_accounts",
	EditPersons:          "edit_persons",
	AddPersonName:        "add_person_name",
	EditPerson:           "edit_person",
	RenamePerson:         "rename_person",
	ConfirmDeletePerson:  "confirm_delete_person",
	AddBankName:          "add_bank_name",
	EditBank:             "edit_bank",
	RenameBank:           "rename_bank",
	ConfirmDeleteBank:    "confirm_delete_bank",
	AccountMenu:          "account_menu",
	EditAccountField:     "edit_account_field",
	EditAccountValue:     "edit_account_value",
	ConfirmDeleteAccount: "confirm_delete_account",
	AddAccountNickname:   "add_account_nickname",
	AddAccountNumber:     "add_account_number",
	AddAccountCard:       "add_account_card",
	AddAccountIBAN:       "add_account_iban",
	AddAccountImage:      "add_account_image",
	AdminMenu:            "admin_menu",
	AdminGrant:           "admin_grant",
	AdminRevoke:          "admin_revoke",
	AdminRevokeConfirm:   "admin_revoke_confirm",
}

func (s State) String() string {
	if s >= 0 && s < stateCount {
		return stateNames[s]
	}
	return "unknown"
}

// Valid reports whether s is a known state.
func (s State) Valid() bool { return s >= 0 && s < stateCount }

// parent is the state "Back" returns to. Stale entities fall back along the
// same edges.
func (s State) parent() State {
	switch s {
	case ViewBanks:
		return ViewPersons
	case ViewAccounts:
		return ViewBanks
	case AddPersonName, EditPerson:
		return EditPersons
	case RenamePerson, ConfirmDeletePerson, AddBankName, EditBank:
		return EditPerson
	case RenameBank, ConfirmDeleteBank, AccountMenu,
		AddAccountNickname, AddAccountNumber, AddAccountCard, AddAccountIBAN, AddAccountImage:
		return EditBank
	case EditAccountField, ConfirmDeleteAccount:
		return AccountMenu
	case EditAccountValue:
		return EditAccountField
	case AdminGrant, AdminRevoke:
		return AdminMenu
	case AdminRevokeConfirm:
		return AdminRevoke
	}
	return MainMenu
}

// depth is how many selections the state needs: person, bank, account.
func (s State) depth() int {
	switch s {
	case ViewBanks, EditPerson, RenamePerson, ConfirmDeletePerson, AddBankName:
		return 1
	case ViewAccounts, EditBank, RenameBank, ConfirmDeleteBank,
		AddAccountNickname, AddAccountNumber, AddAccountCard, AddAccountIBAN, AddAccountImage:
		return 2
	case AccountMenu, EditAccountField, EditAccountValue, ConfirmDeleteAccount:
		return 3
	}
	return 0
}

func (s State) addingAccount() bool {
	return s >= AddAccountNickname && s <= AddAccountImage
}

func (s State) adminOnly() bool {
	return s >= AdminMenu && s <= AdminRevokeConfirm
}
