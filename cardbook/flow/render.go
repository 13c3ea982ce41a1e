package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
)

const notSet = "not set"

// accountLabel is the short form of an account used on buttons.
func accountLabel(a models.Account) string {
	var label string
	switch {
	case a.Nickname != nil && *a.Nickname != "":
		label = *a.Nickname
	case a.CardNumber != nil && len(*a.CardNumber) >= 4:
		label = "💳 •••• " + (*a.CardNumber)[len(*a.CardNumber)-4:]
	case a.AccountNumber != nil && *a.AccountNumber != "":
		label = "🏦 " + *a.AccountNumber
	default:
		label = "Account #" + strconv.FormatInt(a.ID, 10)
	}
	if a.IsSpecial {
		label = "⭐ " + label
	}
	return label
}

// accountLabels returns one distinct label per account. Labels shared by
// several accounts get the account id appended, repeatedly while the result
// is still taken by another account.
func accountLabels(accounts []models.Account) []string {
	labels := make([]string, len(accounts))
	count := make(map[string]int, len(accounts))
	for i, a := range accounts {
		labels[i] = accountLabel(a)
		count[labels[i]]++
	}
	used := make(map[string]bool, len(accounts))
	for _, l := range labels {
		if count[l] == 1 {
			used[l] = true
		}
	}
	for i, a := range accounts {
		if count[labels[i]] == 1 {
			continue
		}
		suffix := " #" + strconv.FormatInt(a.ID, 10)
		labels[i] += suffix
		for used[labels[i]] {
			labels[i] += suffix
		}
		used[labels[i]] = true
	}
	return labels
}

func personLabels(persons []models.Person) []string {
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.Name
	}
	return out
}

func bankLabels(banks []models.Bank) []string {
	out := make([]string, len(banks))
	for i, b := range banks {
		out[i] = b.Name
	}
	return out
}

// pick returns the index of label in labels.
func pick(labels []string, label string) (int, bool) {
	for i, l := range labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

func fieldValue(a models.Account, f models.AccountField) string {
	v := a.Value(f)
	if v == nil || *v == "" {
		return notSet
	}
	if f == models.FieldCardImage {
		return "attached"
	}
	return format.Code(*v)
}

// accountDetails renders every field of an account, unset ones included.
func accountDetails(a models.Account) string {
	var b strings.Builder
	title := accountLabel(a)
	b.WriteString(format.Bold(title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Nickname: %s\n", displayValue(a.Nickname))
	fmt.Fprintf(&b, "Account number: %s\n", fieldValue(a, models.FieldAccountNumber))
	fmt.Fprintf(&b, "Card number: %s\n", fieldValue(a, models.FieldCardNumber))
	fmt.Fprintf(&b, "IBAN: %s\n", fieldValue(a, models.FieldIBAN))
	fmt.Fprintf(&b, "Card image: %s", fieldValue(a, models.FieldCardImage))
	return b.String()
}

func displayValue(p *string) string {
	if v := format.DerefString(p, ""); v != "" {
		return format.Escape(v)
	}
	return notSet
}

func breadcrumb(parts ...string) string {
	for i, p := range parts {
		parts[i] = format.Bold(p)
	}
	return strings.Join(parts, " › ")
}

// withNotice puts notice in front of the first text reply.
func withNotice(notice string, replies []Reply) []Reply {
	if notice == "" {
		return replies
	}
	for i := range replies {
		if replies[i].PhotoID == "" {
			replies[i].Text = notice + "\n\n" + replies[i].Text
			return replies
		}
	}
	return append([]Reply{{Text: notice}}, replies...)
}

func userLine(u models.User, status string) string {
	return fmt.Sprintf("%s %s · %s", format.Code(strconv.FormatInt(u.ChatID, 10)), format.Escape(u.Name), status)
}
