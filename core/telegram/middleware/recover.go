package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
	tghelpers "github.com/mohammaddehghani/TelegBotCardNum/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into a logged error so one bad
// update cannot stop the poller.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
					slog.String("status", "fail"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic in handler: %v", r)
			}
		}()
		return next(c)
	}
}
