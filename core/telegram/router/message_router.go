package router

import (
	"time"

	tg "github.com/mohammaddehghani/TelegBotCardNum/core/telegram"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation consumes free-form messages: text, including commands that
// have no registered route, and photos.
type Conversation interface {
	HandleMessage(c tele.Context) error
}

// TextOptions controls fallback behaviour for message updates.
type TextOptions struct {
	// UnknownDocument answers files sent as documents; nil ignores them.
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds the text, photo and document routes.
func TextRoutes(conv Conversation, opts TextOptions) []tg.Route {
	wrap := func(name string) tele.HandlerFunc {
		h := func(c tele.Context) error {
			start := time.Now()
			if conv == nil {
				logHandlerSummary(c, name, start, "skip", nil)
				return nil
			}
			return handleWithSummary(c, name, start, func() error {
				return conv.HandleMessage(c)
			})
		}
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument == nil {
			logHandlerSummary(c, "unexpected_document", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "unexpected_document", start, func() error {
			return opts.UnknownDocument(c)
		})
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap("conversation.text")},
		{Endpoint: tele.OnPhoto, Handler: wrap("conversation.photo")},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
