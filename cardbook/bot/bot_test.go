package bot

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/config"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/flow"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/storage"
	coreconfig "github.com/mohammaddehghani/TelegBotCardNum/core/config"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/sender"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID  = 100
	memberID = 7
)

type sent struct {
	to   int64
	text string
}

type fakeAPI struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := strconv.ParseInt(to.Recipient(), 10, 64)
	text, _ := what.(string)
	f.sent = append(f.sent, sent{to: id, text: text})
	return &tele.Message{}, f.err
}

func (f *fakeAPI) to(id int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.to == id {
			out = append(out, s.text)
		}
	}
	return out
}

type fixture struct {
	app      *App
	mem      *storage.Memory
	sessions *state.MemoryStore[flow.Session]
	api      *fakeAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemory()
	require.NoError(t, mem.EnsureAdmin(context.Background(), adminID, "Admin"))
	sessions := state.NewMemoryStore[flow.Session](time.Hour)
	api := &fakeAPI{}
	cfg := &config.Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc", AdminID: adminID}},
		Storage: config.StorageMemory,
		Session: config.SessionConfig{Timeout: 10 * time.Minute, TTL: time.Hour},
	}
	app, err := New(Deps{
		Config:   cfg,
		Store:    mem,
		Sessions: sessions,
		API:      api,
		Sender:   sender.New(sender.Options{RetryBackoff: time.Millisecond}),
	})
	require.NoError(t, err)
	return &fixture{app: app, mem: mem, sessions: sessions, api: api}
}

func (f *fixture) session(t *testing.T, chatID int64) (flow.Session, bool) {
	t.Helper()
	s, ok, err := f.sessions.Load(context.Background(), chatID)
	require.NoError(t, err)
	return s, ok
}

func TestUnknownUserIsPendingAndAdminIsNotified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.app.Process(ctx, memberID, "Sara", flow.Command("/start", ""))
	require.Len(t, r, 1)
	assert.Equal(t, msgRequested+"\nYour id: `7`", r[0].Text)
	assert.True(t, r[0].RemoveKeyboard)
	require.Len(t, f.api.to(adminID), 1)
	assert.Contains(t, f.api.to(adminID)[0], "Sara")

	r = f.app.Process(ctx, memberID, "Sara", flow.Text(flow.BtnView))
	require.Len(t, r, 1)
	assert.Equal(t, msgPending, r[0].Text)
	assert.Len(t, f.api.to(adminID), 1)

	_, ok := f.session(t, memberID)
	assert.False(t, ok)
}

func TestRegistrationWarnsWhenAdminUnreachable(t *testing.T) {
	f := newFixture(t)
	f.api.err = errors.New("Forbidden: bot was blocked by the user")

	r := f.app.Process(context.Background(), memberID, "Sara", flow.Command("/start", ""))
	require.Len(t, r, 1)
	assert.Contains(t, r[0].Text, msgAdminUnaware)

	u, err := f.mem.GetUser(context.Background(), memberID)
	require.NoError(t, err)
	assert.False(t, u.AccessGranted)
}

func TestSessionIsSavedAndClearedAtRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.app.Process(ctx, adminID, "Admin", flow.Command("/start", ""))
	require.Len(t, r, 1)
	_, ok := f.session(t, adminID)
	assert.False(t, ok)

	f.app.Process(ctx, adminID, "Admin", flow.Text(flow.BtnManage))
	s, ok := f.session(t, adminID)
	require.True(t, ok)
	assert.Equal(t, flow.EditPersons, s.State)

	f.app.Process(ctx, adminID, "Admin", flow.Text(flow.BtnHome))
	_, ok = f.session(t, adminID)
	assert.False(t, ok)
}

func TestStoreFailureKeepsSavedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.app.Process(ctx, adminID, "Admin", flow.Text(flow.BtnManage))
	f.app.Process(ctx, adminID, "Admin", flow.Text(flow.BtnAddPerson))

	f.mem.Fail = errors.New("connection refused")
	r := f.app.Process(ctx, adminID, "Admin", flow.Text("Alice"))
	require.Len(t, r, 1)
	assert.Equal(t, msgUnavailable, r[0].Text)

	f.mem.Fail = nil
	s, ok := f.session(t, adminID)
	require.True(t, ok)
	assert.Equal(t, flow.AddPersonName, s.State)

	f.app.Process(ctx, adminID, "Admin", flow.Text("Alice"))
	s, _ = f.session(t, adminID)
	assert.Equal(t, flow.EditPersons, s.State)
}

func TestGrantThenRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.app.Process(ctx, memberID, "Sara", flow.Command("/start", ""))

	assert.Equal(t, "⛔ Permission denied.", f.app.approve(ctx, memberID, 7))
	assert.Equal(t, "Invalid request.", f.app.approve(ctx, adminID, 0))
	assert.Equal(t, "✅ Access granted to 7", f.app.approve(ctx, adminID, 7))
	assert.Contains(t, f.api.to(memberID), "✅ Your access has been granted. Send /start to begin.")

	r := f.app.Process(ctx, memberID, "Sara", flow.Text(flow.BtnView))
	require.NotEmpty(t, r)
	assert.NotEqual(t, msgPending, r[0].Text)
	s, ok := f.session(t, memberID)
	require.True(t, ok)
	assert.Equal(t, flow.ViewPersons, s.State)

	r = f.app.Process(ctx, adminID, "Admin", flow.Command("/revoke", "7"))
	require.Len(t, r, 1)
	assert.Contains(t, r[0].Text, "Access revoked")

	r = f.app.Process(ctx, memberID, "Sara", flow.Text(flow.BtnHome))
	require.Len(t, r, 1)
	assert.Equal(t, msgPending, r[0].Text)
}

func TestMemberCannotUseAdminCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.mem.InsertUser(ctx, memberID, "Sara", false, true)
	require.NoError(t, err)

	r := f.app.Process(ctx, memberID, "Sara", flow.Command("/grant", "55"))
	require.Len(t, r, 1)
	assert.Contains(t, r[0].Text, "Permission denied")
	_, err = f.mem.GetUser(ctx, 55)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInputFrom(t *testing.T) {
	in, ok := inputFrom(&tele.Message{Text: "  hello "})
	require.True(t, ok)
	assert.Equal(t, flow.Text("hello"), in)

	in, ok = inputFrom(&tele.Message{Text: "/Grant@cardbook_bot 42"})
	require.True(t, ok)
	assert.Equal(t, flow.Command("/grant", "42"), in)

	in, ok = inputFrom(&tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "file-1"}}, Caption: "card"})
	require.True(t, ok)
	assert.Equal(t, flow.Photo("file-1"), in)

	_, ok = inputFrom(&tele.Message{})
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Sara Karimi", displayName(&tele.User{FirstName: "Sara", LastName: "Karimi"}))
	assert.Equal(t, "sara", displayName(&tele.User{Username: "sara"}))
	assert.Equal(t, "", displayName(nil))
}

type recordingReplier struct {
	what []interface{}
	opts [][]interface{}
	fail func(what interface{}) error
}

func (r *recordingReplier) Send(what interface{}, opts ...interface{}) error {
	if r.fail != nil {
		if err := r.fail(what); err != nil {
			return err
		}
	}
	r.what = append(r.what, what)
	r.opts = append(r.opts, opts)
	return nil
}

func TestDeliverSendsMarkdownWithKeyboard(t *testing.T) {
	f := newFixture(t)
	rec := &recordingReplier{}

	err := f.app.deliver(context.Background(), rec, []flow.Reply{
		{Text: "*menu*", Keyboard: [][]string{{flow.BtnView}}},
		{Text: "bye", RemoveKeyboard: true},
	})
	require.NoError(t, err)
	require.Len(t, rec.what, 2)
	assert.Equal(t, "*menu*", rec.what[0])
	assert.Contains(t, rec.opts[0], tele.ModeMarkdown)
	require.Len(t, rec.opts[0], 2)
	markup, ok := rec.opts[0][1].(*tele.ReplyMarkup)
	require.True(t, ok)
	assert.True(t, markup.ResizeKeyboard)

	markup, ok = rec.opts[1][1].(*tele.ReplyMarkup)
	require.True(t, ok)
	assert.True(t, markup.RemoveKeyboard)
}

func TestDeliverWarnsWhenPhotoFails(t *testing.T) {
	f := newFixture(t)
	rec := &recordingReplier{fail: func(what interface{}) error {
		if _, ok := what.(*tele.Photo); ok {
			return errors.New("Bad Request: wrong file identifier")
		}
		return nil
	}}

	err := f.app.deliver(context.Background(), rec, []flow.Reply{{Text: "details"}, {PhotoID: "gone"}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"details", msgPhotoFailed}, rec.what)
}

func TestRegistry(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.app.registry.Commands(), 5)
	public := f.app.registry.ListCommands(true)
	require.Len(t, public, 2)
	assert.Equal(t, "cancel", public[0].Text)
	assert.Equal(t, "start", public[1].Text)
	_, ok := f.app.registry.GetCallback("grant")
	assert.True(t, ok)

	_, err := f.app.TelegramRunOptions()
	assert.Error(t, err)
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
	_, err = New(Deps{Config: &config.Config{}})
	assert.Error(t, err)
}

func TestAdminSeeder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET is_admin = FALSE`).
		WithArgs(int64(adminID)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(int64(adminID), "Admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, AdminSeeder(adminID).Seed(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
