package router

import (
	"log/slog"
	"time"

	tg "github.com/mohammaddehghani/TelegBotCardNum/core/telegram"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/callbacks"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry
// by their unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		var cbHandler tele.HandlerFunc
		if reg != nil {
			cbHandler, _ = reg.GetCallback(key)
		}
		if cbHandler == nil {
			var fallback tele.HandlerFunc
			if reg != nil {
				fallback = reg.CallbackNotFound()
			}
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return c.Respond()
			}, extras...)
		}

		return handleWithSummary(c, name, start, func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
