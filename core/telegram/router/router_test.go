package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/mohammaddehghani/TelegBotCardNum/core/telegram"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/commands"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func message(b *tele.Bot, userID int64, text string) tele.Context {
	return b.NewContext(tele.Update{
		ID: int(userID),
		Message: &tele.Message{
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		},
	})
}

func callback(b *tele.Bot, userID int64, data string) tele.Context {
	return b.NewContext(tele.Update{
		ID: int(userID) + 1000,
		Callback: &tele.Callback{
			Sender: &tele.User{ID: userID},
			Data:   data,
		},
	})
}

type fakeConversation struct{ texts []string }

func (f *fakeConversation) HandleMessage(c tele.Context) error {
	f.texts = append(f.texts, c.Text())
	return nil
}

func TestCommandRoutesAdminOnly(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var ran, rejected []string
	require.NoError(t, reg.RegisterCommand("/users", commands.Command{
		Handler:     func(tele.Context) error { ran = append(ran, "users"); return nil },
		Description: "List users",
		AdminOnly:   true,
	}))
	require.NoError(t, reg.RegisterCommand("/cancel", commands.Command{
		Handler:     func(tele.Context) error { ran = append(ran, "cancel"); return nil },
		Description: "Cancel",
	}))

	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminID:       1,
		OnAdminReject: func(c tele.Context) error { rejected = append(rejected, c.Text()); return nil },
	})
	require.Len(t, routes, 2)
	assert.Equal(t, "/cancel", routes[0].Endpoint)
	assert.Equal(t, "/users", routes[1].Endpoint)

	require.NoError(t, routes[1].Handler(message(b, 1, "/users")))
	require.NoError(t, routes[1].Handler(message(b, 2, "/users")))
	require.NoError(t, routes[0].Handler(message(b, 2, "/cancel")))

	assert.Equal(t, []string{"users", "cancel"}, ran)
	assert.Equal(t, []string{"/users"}, rejected)
}

func TestTextRoutesDelegateToConversation(t *testing.T) {
	b := offlineBot(t)
	conv := &fakeConversation{}
	routes := TextRoutes(conv, TextOptions{})
	require.Len(t, routes, 3)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)
	assert.Equal(t, tele.OnPhoto, routes[1].Endpoint)

	require.NoError(t, routes[0].Handler(message(b, 3, "👁 View")))
	require.NoError(t, routes[1].Handler(message(b, 4, "")))
	assert.Equal(t, []string{"👁 View", ""}, conv.texts)

	assert.NoError(t, routes[2].Handler(message(b, 5, "")))
}

func TestCallbackRoute(t *testing.T) {
	b := offlineBot(t)
	reg := tg.NewRegistry()
	var payloads []string
	require.NoError(t, reg.RegisterCallback("grant", func(c tele.Context) error {
		payloads = append(payloads, c.Callback().Data)
		return nil
	}))
	missing := 0
	reg.SetCallbackNotFound(func(tele.Context) error { missing++; return nil })

	route := CallbackRoute(reg, CallbackOptions{})
	assert.Equal(t, tele.OnCallback, route.Endpoint)

	require.NoError(t, route.Handler(callback(b, 1, "\fgrant|42")))
	require.NoError(t, route.Handler(callback(b, 1, "\fnope|1")))
	assert.Equal(t, []string{"\fgrant|42"}, payloads)
	assert.Equal(t, 1, missing)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "access denied" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "ACCESS_DENIED", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "PLAINERR", deriveErrorCode(fmt.Errorf("wrap: %w", &plainErr{})))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "grant", normalizeHandlerName("/Grant"))
	assert.Equal(t, "unknown", normalizeHandlerName(" "))
}
