package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/keyboard"
)

type sent struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeAPI struct {
	calls []sent
	err   error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, sent{to: to.Recipient(), what: what, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func TestNotifySendsMarkdownWithButtons(t *testing.T) {
	api := &fakeAPI{}
	f := New(api, nil)

	err := f.Notify(context.Background(), 100, Message{
		Text:     "New user `42`",
		Markdown: true,
		Buttons:  []keyboard.InlineBtn{{Text: "✅ Grant", Unique: "grant", Data: "42"}},
	})
	require.NoError(t, err)
	require.Len(t, api.calls, 1)
	call := api.calls[0]
	assert.Equal(t, "100", call.to)
	assert.Equal(t, "New user `42`", call.what)
	require.Len(t, call.opts, 2)
	assert.Equal(t, tele.ModeMarkdown, call.opts[0])
	markup, ok := call.opts[1].(*tele.ReplyMarkup)
	require.True(t, ok)
	assert.Equal(t, "grant", markup.InlineKeyboard[0][0].Unique)
}

func TestNotifyReturnsFailure(t *testing.T) {
	api := &fakeAPI{err: errors.New("telegram: Forbidden: bot was blocked by the user (403)")}
	f := New(api, nil)

	err := f.Notify(context.Background(), 7, Message{Text: "Access granted"})
	require.Error(t, err)
	assert.Len(t, api.calls, 1, "permanent errors are not retried")
}
