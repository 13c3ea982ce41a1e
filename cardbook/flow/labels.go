package flow

// Reply keyboard labels. User supplied names may not collide with these.
const (
	BtnView   = "👁 View"
	BtnManage = "✏️ Manage"
	BtnUsers  = "🛡 Users"

	BtnHome   = "🏠 Home"
	BtnCancel = "❌ Cancel"
	BtnBack   = "⬅️ Back"
	BtnSkip   = "⏭ Skip"
	BtnClear  = "🗑 Clear field"

	BtnAddPerson    = "➕ Add person"
	BtnRenamePerson = "✏️ Rename person"
	BtnDeletePerson = "🗑 Delete person"

	BtnAddBank    = "➕ Add bank"
	BtnRenameBank = "✏️ Rename bank"
	BtnDeleteBank = "🗑 Delete bank"

	BtnAddAccount    = "➕ Add account"
	BtnEditField     = "✏️ Edit field"
	BtnToggleSpecial = "⭐ Toggle special"
	BtnDeleteAccount = "🗑 Delete account"

	BtnConfirmDelete = "✅ Yes, delete"

	BtnGrant         = "➕ Grant access"
	BtnRevoke        = "➖ Revoke access"
	BtnConfirmRevoke = "✅ Yes, revoke"
)

var reservedLabels = map[string]struct{}{}

func init() {
	for _, l := range []string{
		BtnView, BtnManage, BtnUsers, BtnHome, BtnCancel, BtnBack, BtnSkip, BtnClear,
		BtnAddPerson, BtnRenamePerson, BtnDeletePerson,
		BtnAddBank, BtnRenameBank, BtnDeleteBank,
		BtnAddAccount, BtnEditField, BtnToggleSpecial, BtnDeleteAccount,
		BtnConfirmDelete, BtnGrant, BtnRevoke, BtnConfirmRevoke,
	} {
		reservedLabels[l] = struct{}{}
	}
}

// Reserved reports whether s is a control label.
func Reserved(s string) bool {
	_, ok := reservedLabels[s]
	return ok
}

var (
	navRow    = []string{BtnBack, BtnHome}
	inputRow  = []string{BtnBack, BtnCancel}
	skipInput = [][]string{{BtnSkip}, inputRow}
)

// listKeyboard lays labels out two per row between head and tail rows.
func listKeyboard(head []string, labels []string, tail ...[]string) [][]string {
	rows := make([][]string, 0, len(labels)/2+len(tail)+2)
	if len(head) > 0 {
		rows = append(rows, head)
	}
	for i := 0; i < len(labels); i += 2 {
		end := i + 2
		if end > len(labels) {
			end = len(labels)
		}
		rows = append(rows, append([]string(nil), labels[i:end]...))
	}
	return append(rows, tail...)
}
