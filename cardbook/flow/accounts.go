package flow

import (
	"context"
	"fmt"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
)

var addSteps = []State{AddAccountNickname, AddAccountNumber, AddAccountCard, AddAccountIBAN, AddAccountImage}

// addStepField returns the field collected by an add-account step.
func addStepField(s State) models.AccountField {
	return models.EditableFields[s-AddAccountNickname]
}

func fieldPrompt(f models.AccountField) string {
	switch f {
	case models.FieldNickname:
		return "Send a nickname for the account."
	case models.FieldAccountNumber:
		return "Send the account number (4 to 30 digits)."
	case models.FieldCardNumber:
		return "Send the 16-digit card number."
	case models.FieldIBAN:
		return "Send the IBAN (24 digits, the IR prefix is optional)."
	case models.FieldCardImage:
		return "Send a photo of the card."
	}
	return ""
}

// parseField validates one input for field and returns the value to store.
func parseField(f models.AccountField, in Input) (string, error) {
	if f == models.FieldCardImage {
		if in.Kind != InputPhoto || in.PhotoID == "" {
			return "", inputError("Please send a photo of the card.")
		}
		return in.PhotoID, nil
	}
	if in.Kind != InputText {
		return "", inputError("Please send the value as text.")
	}
	switch f {
	case models.FieldNickname:
		return ValidateName(in.Text)
	case models.FieldAccountNumber:
		return ParseAccountNumber(in.Text)
	case models.FieldCardNumber:
		return ParseCardNumber(in.Text)
	case models.FieldIBAN:
		return ParseIBAN(in.Text)
	}
	return "", inputError("This field cannot be edited.")
}

func (d Draft) with(f models.AccountField, v string) Draft {
	switch f {
	case models.FieldNickname:
		d.Nickname = v
	case models.FieldAccountNumber:
		d.AccountNumber = v
	case models.FieldCardNumber:
		d.CardNumber = v
	case models.FieldIBAN:
		d.IBAN = v
	case models.FieldCardImage:
		d.CardImage = v
	}
	return d
}

func (n *Navigator) renderAddAccount(ctx context.Context, sess Session) ([]Reply, error) {
	step := int(sess.State-AddAccountNickname) + 1
	prompt := fmt.Sprintf("➕ New account, step %d of %d.\n%s Tap Skip to leave it empty.",
		step, len(addSteps), fieldPrompt(addStepField(sess.State)))
	return n.renderBankPrompt(ctx, sess, prompt, skipInput)
}

// onAddAccount collects one field per step. The account is written once,
// after the last step; leaving earlier writes nothing.
func (n *Navigator) onAddAccount(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	field := addStepField(sess.State)
	value := ""
	if !(t.in.Kind == InputText && t.in.Text == BtnSkip) {
		v, err := parseField(field, t.in)
		if err != nil {
			return n.retry(ctx, t, sess, err.Error())
		}
		value = v
	}
	sess.Draft = sess.Draft.with(field, value)
	if sess.State != AddAccountImage {
		return n.show(ctx, t, sess.to(sess.State+1), "")
	}

	a, err := n.book.CreateAccount(ctx, sess.BankID, sess.Draft.newAccount())
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	return n.show(ctx, t, sess.to(EditBank), fmt.Sprintf("✅ Account %s saved.", format.Bold(accountLabel(a))))
}

func (n *Navigator) renderAccountMenu(ctx context.Context, sess Session) ([]Reply, error) {
	p, b, a, err := n.account(ctx, sess)
	if err != nil {
		return nil, err
	}
	kb := [][]string{{BtnEditField, BtnToggleSpecial}, {BtnDeleteAccount}, navRow}
	text := breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\n\n" + accountDetails(a)
	return []Reply{{Text: text, Keyboard: kb}}, nil
}

func (n *Navigator) onAccountMenu(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	_, _, a, err := n.account(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	switch t.in.Text {
	case BtnEditField:
		return n.show(ctx, t, sess.to(EditAccountField), "")
	case BtnDeleteAccount:
		return n.show(ctx, t, sess.to(ConfirmDeleteAccount), "")
	case BtnToggleSpecial:
		if err := n.book.SetAccountSpecial(ctx, a.ID, !a.IsSpecial); err != nil {
			return n.fail(ctx, t, sess, err)
		}
		notice := "⭐ Marked as special."
		if a.IsSpecial {
			notice = "Special mark removed."
		}
		return n.show(ctx, t, sess, notice)
	}
	return n.retry(ctx, t, sess, "Please choose an action.")
}

func (n *Navigator) renderEditAccountField(ctx context.Context, sess Session) ([]Reply, error) {
	p, b, a, err := n.account(ctx, sess)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(models.EditableFields))
	for i, f := range models.EditableFields {
		labels[i] = f.Label()
	}
	text := breadcrumb("👤 "+p.Name, "🏦 "+b.Name, accountLabel(a)) + "\nWhich field do you want to change?"
	return []Reply{{Text: text, Keyboard: listKeyboard(nil, labels, inputRow)}}, nil
}

func (n *Navigator) onEditAccountField(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	f, ok := models.FieldByLabel(t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose a field from the list.")
	}
	if _, _, _, err := n.account(ctx, sess); err != nil {
		return n.fail(ctx, t, sess, err)
	}
	sess = sess.to(EditAccountValue)
	sess.Field = f
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) renderEditAccountValue(ctx context.Context, sess Session) ([]Reply, error) {
	p, b, a, err := n.account(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !sess.Field.Valid() {
		return nil, fmt.Errorf("render: no field selected for account %d", a.ID)
	}
	text := fmt.Sprintf("%s\nCurrent %s: %s\n%s Tap Clear field to remove it.",
		breadcrumb("👤 "+p.Name, "🏦 "+b.Name, accountLabel(a)),
		sess.Field.Label(), fieldValue(a, sess.Field), fieldPrompt(sess.Field))
	return []Reply{{Text: text, Keyboard: [][]string{{BtnClear}, inputRow}}}, nil
}

func (n *Navigator) onEditAccountValue(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if !sess.Field.Valid() {
		return n.show(ctx, t, sess.to(EditAccountField), "")
	}
	var value *string
	if !(t.in.Kind == InputText && t.in.Text == BtnClear) {
		v, err := parseField(sess.Field, t.in)
		if err != nil {
			return n.retry(ctx, t, sess, err.Error())
		}
		value = &v
	}
	if _, _, _, err := n.account(ctx, sess); err != nil {
		return n.fail(ctx, t, sess, err)
	}
	if err := n.book.UpdateAccountField(ctx, sess.AccountID, sess.Field, value); err != nil {
		return n.fail(ctx, t, sess, err)
	}
	notice := fmt.Sprintf("✅ %s updated.", sess.Field.Label())
	if value == nil {
		notice = fmt.Sprintf("🗑 %s cleared.", sess.Field.Label())
	}
	return n.show(ctx, t, sess.to(EditBank), notice)
}

func (n *Navigator) renderConfirmDeleteAccount(ctx context.Context, sess Session) ([]Reply, error) {
	_, _, a, err := n.account(ctx, sess)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("⚠️ Delete account %s? This cannot be undone.", format.Bold(accountLabel(a)))
	return []Reply{{Text: text, Keyboard: [][]string{{BtnConfirmDelete}, inputRow}}}, nil
}

func (n *Navigator) onConfirmDeleteAccount(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if t.in.Text != BtnConfirmDelete {
		return n.retry(ctx, t, sess, "Tap the confirm button, or Back to keep it.")
	}
	_, _, a, err := n.account(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	res, err := n.book.DeleteAccount(ctx, a.ID)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	if res.Empty() {
		return n.stale(ctx, t, sess)
	}
	return n.show(ctx, t, sess.to(EditBank), fmt.Sprintf("🗑 Account %s deleted.", format.Bold(accountLabel(a))))
}
