package flow

import (
	"context"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/book"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
)

func (n *Navigator) renderMainMenu(t turn) []Reply {
	kb := [][]string{{BtnView, BtnManage}}
	if t.admin {
		kb = append(kb, []string{BtnUsers})
	}
	return []Reply{{Text: "🏠 *Main menu*\nWhat would you like to do?", Keyboard: kb}}
}

func (n *Navigator) onMainMenu(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	switch t.in.Text {
	case BtnView:
		return n.show(ctx, t, sess.to(ViewPersons), "")
	case BtnManage:
		return n.show(ctx, t, sess.to(EditPersons), "")
	case BtnUsers:
		if !t.admin {
			return n.show(ctx, t, sess, msgDenied)
		}
		return n.show(ctx, t, sess.to(AdminMenu), "")
	}
	return n.retry(ctx, t, sess, "Please choose one of the options below.")
}

// person loads the selected person.
func (n *Navigator) person(ctx context.Context, sess Session) (models.Person, error) {
	return n.book.GetPerson(ctx, sess.PersonID)
}

// bank loads the selected bank and its owner. A bank that moved out from
// under the selected person counts as missing.
func (n *Navigator) bank(ctx context.Context, sess Session) (models.Person, models.Bank, error) {
	b, err := n.book.GetBank(ctx, sess.BankID)
	if err != nil {
		return models.Person{}, models.Bank{}, err
	}
	if b.PersonID != sess.PersonID {
		return models.Person{}, models.Bank{}, book.ErrNotFound
	}
	p, err := n.person(ctx, sess)
	if err != nil {
		return models.Person{}, models.Bank{}, err
	}
	return p, b, nil
}

// account loads the selected account with its bank and owner.
func (n *Navigator) account(ctx context.Context, sess Session) (models.Person, models.Bank, models.Account, error) {
	p, b, err := n.bank(ctx, sess)
	if err != nil {
		return p, b, models.Account{}, err
	}
	a, err := n.book.GetAccount(ctx, sess.AccountID)
	if err != nil {
		return p, b, models.Account{}, err
	}
	if a.BankID != b.ID {
		return p, b, models.Account{}, book.ErrNotFound
	}
	return p, b, a, nil
}

func (n *Navigator) renderViewPersons(ctx context.Context) ([]Reply, error) {
	specials, err := n.book.ListSpecialAccounts(ctx)
	if err != nil {
		return nil, err
	}
	persons, err := n.book.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("👁 *Browse*")
	if len(specials) > 0 {
		b.WriteString("\n\n⭐ *Special accounts*")
		for _, s := range specials {
			b.WriteString("\n\n")
			b.WriteString(breadcrumb(s.PersonName, s.BankName))
			b.WriteString("\n")
			b.WriteString(accountDetails(s.Account))
		}
	}
	if len(persons) == 0 {
		b.WriteString("\n\nNo persons recorded yet.")
	} else {
		b.WriteString("\n\nChoose a person:")
	}
	return []Reply{{Text: b.String(), Keyboard: listKeyboard(nil, personLabels(persons), navRow)}}, nil
}

func (n *Navigator) onViewPersons(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	persons, err := n.book.ListPersons(ctx)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(personLabels(persons), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose a person from the list.")
	}
	sess = sess.to(ViewBanks)
	sess.PersonID = persons[i].ID
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) renderViewBanks(ctx context.Context, sess Session) ([]Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return nil, err
	}
	banks, err := n.book.ListBanks(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	text := breadcrumb("👤 "+p.Name) + "\nChoose a bank:"
	if len(banks) == 0 {
		text = breadcrumb("👤 "+p.Name) + "\nNo banks recorded for this person."
	}
	return []Reply{{Text: text, Keyboard: listKeyboard(nil, bankLabels(banks), navRow)}}, nil
}

func (n *Navigator) onViewBanks(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	p, err := n.person(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	banks, err := n.book.ListBanks(ctx, p.ID)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(bankLabels(banks), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose a bank from the list.")
	}
	sess = sess.to(ViewAccounts)
	sess.BankID = banks[i].ID
	return n.show(ctx, t, sess, "")
}

func (n *Navigator) accountsKeyboard(accounts []models.Account) [][]string {
	return listKeyboard(nil, accountLabels(accounts), navRow)
}

func (n *Navigator) renderViewAccounts(ctx context.Context, sess Session) ([]Reply, error) {
	p, b, err := n.bank(ctx, sess)
	if err != nil {
		return nil, err
	}
	accounts, err := n.book.ListAccounts(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	text := breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\nChoose an account:"
	if len(accounts) == 0 {
		text = breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\nNo accounts recorded in this bank."
	}
	return []Reply{{Text: text, Keyboard: n.accountsKeyboard(accounts)}}, nil
}

// onViewAccounts shows the chosen account and stays on the list so the
// next account can be picked right away.
func (n *Navigator) onViewAccounts(ctx context.Context, t turn, sess Session) (Session, []Reply, error) {
	p, b, err := n.bank(ctx, sess)
	if err != nil {
		return n.fail(ctx, t, sess, err)
	}
	accounts, err := n.book.ListAccounts(ctx, b.ID)
	if err != nil {
		return sess, nil, err
	}
	i, ok := pick(accountLabels(accounts), t.in.Text)
	if !ok {
		return n.retry(ctx, t, sess, "Please choose an account from the list.")
	}
	a := accounts[i]
	replies := []Reply{{
		Text:     breadcrumb("👤 "+p.Name, "🏦 "+b.Name) + "\n\n" + accountDetails(a),
		Keyboard: n.accountsKeyboard(accounts),
	}}
	if a.CardImageRef != nil && *a.CardImageRef != "" {
		replies = append(replies, Reply{PhotoID: *a.CardImageRef})
	}
	return sess, replies, nil
}
