package flow

import (
	"time"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/models"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/format"
)

// Session is the per-chat conversation value. Handle takes one and returns
// the next; nothing else mutates it. Entity names are never cached here.
type Session struct {
	State     State               `json:"state"`
	PersonID  int64               `json:"person_id,omitempty"`
	BankID    int64               `json:"bank_id,omitempty"`
	AccountID int64               `json:"account_id,omitempty"`
	Field     models.AccountField `json:"field,omitempty"`
	// TargetID is the chat id an admin is about to revoke.
	TargetID int64 `json:"target_id,omitempty"`
	Draft    Draft `json:"draft"`
	// Touched is the time of the last handled input.
	Touched time.Time `json:"touched"`
}

// Draft buffers the fields of an account being added. Empty means skipped.
type Draft struct {
	Nickname      string `json:"nickname,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	IBAN          string `json:"iban,omitempty"`
	CardImage     string `json:"card_image,omitempty"`
}

func (d Draft) newAccount() models.NewAccount {
	return models.NewAccount{
		Nickname:      format.StringPtr(d.Nickname),
		AccountNumber: format.StringPtr(d.AccountNumber),
		CardNumber:    format.StringPtr(d.CardNumber),
		IBAN:          format.StringPtr(d.IBAN),
		CardImageRef:  format.StringPtr(d.CardImage),
	}
}

// Idle reports whether the session holds nothing worth storing.
func (s Session) Idle() bool { return s.State == MainMenu }

// to moves to state and drops the selections and buffers it does not use.
func (s Session) to(state State) Session {
	s.State = state
	d := state.depth()
	if d < 3 {
		s.AccountID = 0
		s.Field = 0
	}
	if d < 2 {
		s.BankID = 0
	}
	if d < 1 {
		s.PersonID = 0
	}
	if state != EditAccountValue {
		s.Field = 0
	}
	if !state.addingAccount() {
		s.Draft = Draft{}
	}
	if state != AdminRevokeConfirm {
		s.TargetID = 0
	}
	return s
}

// InputKind tells text, photo and command inputs apart.
type InputKind int

const (
	InputText InputKind = iota
	InputPhoto
	InputCommand
)

// Input is one user action.
type Input struct {
	Kind InputKind
	// Text is the message text, or the command with its slash.
	Text string
	// Args is the command payload.
	Args string
	// PhotoID is the file id of the largest photo size.
	PhotoID string
}

// Text returns a text input.
func Text(s string) Input { return Input{Kind: InputText, Text: s} }

// Photo returns a photo input.
func Photo(fileID string) Input { return Input{Kind: InputPhoto, PhotoID: fileID} }

// Command returns a command input; name includes the slash.
func Command(name, args string) Input { return Input{Kind: InputCommand, Text: name, Args: args} }

// Reply is one outbound message. Text is legacy Markdown. A nil Keyboard
// leaves the current reply keyboard in place unless RemoveKeyboard is set.
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
	// PhotoID sends a photo by file id instead of text.
	PhotoID string
}
