package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/book"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
)

func (n *Navigator) renderEditPersons(ctx context.Context) ([]Reply, error) {
	persons, err := n.book.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	text := "✏️ *Manage*\nChoose a person to edit, or add a new one."
	if len(persons) == 0 {
		text = "✏️ *Manage*\nNo persons recorded yet. Add the first one."
	}
	return []Reply{{Text: text, Keyboard: listKeyboard([]string{BtnAddPerson}, personLabels(persons), navRow)}}, nil
}

func (n *Navigator) onEditPersons(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if t.in.Text == BtnAddPerson {
		return n.show(ctx, t, sess.to(AddPersonName), "")
	}
	persons, err := n.book.ListPersons(ctx)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(personLabels(persons), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose a person or an action.")
	}
	sess = sess.to(EditPerson)
	sess.PersonID = persons[i].ID
	return n.show(ctx, t, sess, "")
}

// textInput returns the validated name typed by the user, or the message
// to show when it is not acceptable.
func textInput(in Input) (string, error) {
	if in.Kind != InputText {
		return "", inputError("Please send the name as text.")
	}
	return ValidateName(in.Text)
}

func (n *Navigator) onAddPersonName(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	name, err := textInput(t.in)
	if err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	p, err := n.book.CreatePerson(ctx, name)
	switch {
	case errors.Is(err, book.ErrAlreadyExists):
		return n.retry(ctx, t, sess, fmt.Sprintf("A person named %s already exists.", format.Bold(name)))
	case err != nil:
		return sess, nil, err
	}
	return n.show(ctx, t, sess.to(EditPersons), fmt.Sprintf("✅ Person %s added.", format.Bold(p.Name)))
}

func (n *Navigator) renderEditPerson(ctx context.Context, sess Session) ([]Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return nil, err
	}
	banks, err := n.book.ListBanks(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	text := breadcrumb("👤 "+p.Name) + "\nChoose a bank, or pick an action."
	if len(banks) == 0 {
		text = breadcrumb("👤 "+p.Name) + "\nNo banks yet. Add one, or pick an action."
	}
	kb := listKeyboard([]string{BtnAddBank}, bankLabels(banks),
		[]string{BtnRenamePerson, BtnDeletePerson}, navRow)
	return []Reply{{Text: text, Keyboard: kb}}, nil
}

func (n *Navigator) onEditPerson(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	switch t.in.Text {
	case BtnAddBank:
		return n.show(ctx, t, sess.to(AddBankName), "")
	case BtnRenamePerson:
		return n.show(ctx, t, sess.to(RenamePerson), "")
	case BtnDeletePerson:
		return n.show(ctx, t, sess.to(ConfirmDeletePerson), "")
	}
	banks, err := n.book.ListBanks(ctx, p.ID)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(bankLabels(banks), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose a bank or an action.")
	}
	sess = sess.to(EditBank)
	sess.BankID = banks[i].ID
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) renderPersonPrompt(ctx context.Context, sess Session, prompt string) ([]Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: breadcrumb("👤 "+p.Name) + "\n" + prompt, Keyboard: [][]string{inputRow}}}, nil
}

func (n *Navigator) onRenamePerson(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	name, err := textInput(t.in)
	if err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	err = n.book.RenamePerson(ctx, sess.PersonID, name)
	switch {
	case errors.Is(err, book.ErrAlreadyExists):
		return n.retry(ctx, t, sess, fmt.Sprintf("A person named %s already exists.", format.Bold(name)))
	case err != nil:
		return n.fail(ctx, t, sess, err)
	}
	return n.show(ctx, t, sess.to(EditPerson), fmt.Sprintf("✅ Renamed to %s.", format.Bold(name)))
}

func (n *Navigator) renderConfirmDeletePerson(ctx context.Context, sess Session) ([]Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return nil, err
	}
	banks, err := n.book.ListBanks(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("⚠️ Delete %s together with %d bank(s) and all their accounts? This cannot be undone.",
		format.Bold(p.Name), len(banks))
	return []Reply{{Text: text, Keyboard: [][]string{{BtnConfirmDelete}, inputRow}}}, nil
}

func (n *Navigator) onConfirmDeletePerson(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if t.in.Text != BtnConfirmDelete {
		return n.retry(ctx, t, sess, "Tap the confirm button, or Back to keep it.")
	}
	p, err := n.person(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	res, err := n.book.DeletePerson(ctx, p.ID)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	if res.Empty() {
		return n.stale(ctx, t, sess)
	}
	notice := fmt.Sprintf("🗑 Deleted %s with %d bank(s) and %d account(s).", format.Bold(p.Name), res.Banks, res.Accounts)
	return n.show(ctx, t, sess.to(EditPersons), notice)
}

func (n *Navigator) onAddBankName(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	name, err := textInput(t.in)
	if err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	b, err := n.book.CreateBank(ctx, sess.PersonID, name)
	switch {
	case errors.Is(err, book.ErrAlreadyExists):
		return n.retry(ctx, t, sess, fmt.Sprintf("This person already has a bank named %s.", format.Bold(name)))
	case err != nil:
		return n.fail(ctx, t, sess, err)
	}
	return n.show(ctx, t, sess.to(EditPerson), fmt.Sprintf("✅ Bank %s added.", format.Bold(b.Name)))
}

func (n *Navigator) renderEditBank(ctx context.Context, sess Session) ([]Reply, error) {
	p, b, err := n.bank(ctx, sess)
	if err != nil {
		return nil, err
	}
	accounts, err := n.book.ListAccounts(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	text := breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\nChoose an account, or pick an action."
	if len(accounts) == 0 {
		text = breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\nNo accounts yet. Add one, or pick an action."
	}
	kb := listKeyboard([]string{BtnAddAccount}, accountLabels(accounts),
		[]string{BtnRenameBank, BtnDeleteBank}, navRow)
	return []Reply{{Text: text, Keyboard: kb}}, nil
}

func (n *Navigator) onEditBank(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	_, b, err := n.bank(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	switch t.in.Text {
	case BtnAddAccount:
		return n.show(ctx, t, sess.to(AddAccountNickname), "")
	case BtnRenameBank:
		return n.show(ctx, t, sess.to(RenameBank), "")
	case BtnDeleteBank:
		return n.show(ctx, t, sess.to(ConfirmDeleteBank), "")
	}
	accounts, err := n.book.ListAccounts(ctx, b.ID)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(accountLabels(accounts), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose an account or an action.")
	}
	sess = sess.to(AccountMenu)
	sess.AccountID = accounts[i].ID
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) renderBankPrompt(ctx context.Context, sess Session, prompt string, kb [][]string) ([]Reply, error) {
	p, b, err := n.bank(ctx, sess)
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\n" + prompt, Keyboard: kb}}, nil
}

func (n *Navigator) onRenameBank(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	name, err := textInput(t.in)
	if err != nil {
		return n.retry(ctx, t, sess, err.Error())
	}
	if _, _, err := n.bank(ctx, sess); err != nil {
		return n.fail(ctx, t, sess, err)
	}
	err = n.book.RenameBank(ctx, sess.BankID, name)
	switch {
	case errors.Is(err, book.ErrAlreadyExists):
		return n.retry(ctx, t, sess, fmt.Sprintf("This person already has a bank named %s.", format.Bold(name)))
	case err != nil:
		return n.fail(ctx, t, sess, err)
	}
	return n.show(ctx, t, sess.to(EditBank), fmt.Sprintf("✅ Renamed to %s.", format.Bold(name)))
}

func (n *Navigator) renderConfirmDeleteBank(ctx context.Context, sess Session) ([]Reply, error) {
	_, b, err := n.bank(ctx, sess)
	if err != nil {
		return nil, err
	}
	accounts, err := n.book.ListAccounts(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("⚠️ Delete bank %s with %d account(s)? This cannot be undone.", format.Bold(b.Name), len(accounts))
	return []Reply{{Text: text, Keyboard: [][]string{{BtnConfirmDelete}, inputRow}}}, nil
}

func (n *Navigator) onConfirmDeleteBank(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	if t.in.Text != BtnConfirmDelete {
		return n.retry(ctx, t, sess, "Tap the confirm button, or Back to keep it.")
	}
	_, b, err := n.bank(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	res, err := n.book.DeleteBank(ctx, b.ID)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	if res.Empty() {
		return n.stale(ctx, t, sess)
	}
	notice := fmt.Sprintf("🗑 Deleted bank %s with %d account(s).", format.Bold(b.Name), res.Accounts)
	return n.show(ctx, t, sess.to(EditPerson), notice)
}
