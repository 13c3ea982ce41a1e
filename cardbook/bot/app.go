// Package bot wires the access gate, the navigator and the session store
// to Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/access"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/book"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/config"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/flow"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/notify"
	"github.com/mohammaddehghani/TelegBotCardNum/cardbook/storage"
	"github.com/mohammaddehghani/TelegBotCardNum/core/bootstrap"
	"github.com/mohammaddehghani/TelegBotCardNum/core/buildinfo"
	"github.com/mohammaddehghani/TelegBotCardNum/core/logger"
	tg "github.com/mohammaddehghani/TelegBotCardNum/core/telegram"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/commands"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/router"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/sender"
	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/state"
	"github.com/mohammaddehghani/TelegBotCardNum/migrations"

	tele "gopkg.in/telebot.v4"
)

// Store is the persistence the bot needs: the book and the users.
type Store interface {
	book.Store
	access.Store
}

// Deps are the collaborators of an App.
type Deps struct {
	Config   *config.Config
	Store    Store
	Sessions state.Store[flow.Session]
	// Bot serves updates; it may be nil in tests that only call Process.
	Bot *tele.Bot
	// API sends notifications to other chats; defaults to Bot.
	API    notify.API
	Sender *sender.Sender
}

// App is the running cardbook bot.
type App struct {
	cfg      *config.Config
	sessions state.Store[flow.Session]
	gate     *access.Gate
	nav      *flow.Navigator
	sender   *sender.Sender
	bot      *tele.Bot
	registry *tg.Registry

	closers []func() error
}

// New assembles an App from deps and registers its commands.
func New(deps Deps) (*App, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("bot: nil config")
	case deps.Store == nil:
		return nil, errors.New("bot: nil store")
	case deps.Sessions == nil:
		return nil, errors.New("bot: nil session store")
	}
	snd := deps.Sender
	if snd == nil {
		snd = sender.New(sender.Options{MaxRetries: 2})
	}
	api := deps.API
	if api == nil && deps.Bot != nil {
		api = deps.Bot
	}
	var notifier access.Notifier
	if api != nil {
		notifier = notify.New(api, snd)
	}

	gate := access.NewGate(deps.Store, deps.Config.Telegram.AdminID, notifier)
	a := &App{
		cfg:      deps.Config,
		sessions: deps.Sessions,
		gate:     gate,
		nav:      flow.New(book.New(deps.Store), gate, deps.Config.Session.Timeout),
		sender:   snd,
		bot:      deps.Bot,
		registry: tg.NewRegistry(),
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) register() error {
	cmds := map[string]commands.Command{
		"/start":  {Handler: a.HandleMessage, Description: "Open the main menu"},
		"/cancel": {Handler: a.HandleMessage, Description: "Cancel the current action"},
		"/users":  {Handler: a.HandleMessage, Description: "List users and their access", AdminOnly: true},
		"/grant":  {Handler: a.HandleMessage, Description: "Grant access: /grant <chat id>", AdminOnly: true},
		"/revoke": {Handler: a.HandleMessage, Description: "Revoke access: /revoke <chat id>", AdminOnly: true},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	if err := a.registry.RegisterCallback(access.CallbackGrant, a.onGrantCallback); err != nil {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}

// AdminSeeder makes sure the configured admin owns the admin row.
func AdminSeeder(adminID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		return storage.New(db).EnsureAdmin(ctx, adminID, "Admin")
	})
}

// Bootstrap opens storage and sessions, connects the bot and returns the App.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	core := cfg.CoreConfig()

	var (
		store   Store
		closers []func() error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		if err := logger.InitLogger(core); err != nil {
			return nil, fmt.Errorf("bot: logger init failed: %w", err)
		}
		mem := storage.NewMemory()
		if err := mem.EnsureAdmin(ctx, core.Telegram.AdminID, "Admin"); err != nil {
			return nil, err
		}
		logger.Warn(ctx, logger.CompApp, "storage.memory", slog.String("note", "data is lost on restart"))
		store = mem
	default:
		res, err := bootstrap.Run(ctx, bootstrap.Options{
			Config:     core,
			Database:   cfg.Database,
			Migrations: migrations.Source(),
			Seeders:    []bootstrap.Seeder{AdminSeeder(core.Telegram.AdminID)},
		})
		if err != nil {
			return nil, err
		}
		store = storage.New(res.DB)
		closers = append(closers, res.DB.Close)
	}

	sessions, closeSessions, err := state.New[flow.Session](cfg.StateOptions())
	if err != nil {
		_ = closeAll(closers)
		return nil, fmt.Errorf("bot: session store: %w", err)
	}
	closers = append(closers, closeSessions)

	b, err := tg.NewBot(core)
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}

	a, err := New(Deps{Config: cfg, Store: store, Sessions: sessions, Bot: b})
	if err != nil {
		_ = closeAll(closers)
		return nil, err
	}
	a.closers = closers
	logger.Info(ctx, logger.CompApp, "bootstrap",
		slog.String("version", buildinfo.String()),
		slog.String("storage", cfg.Storage),
		slog.String("sessions", cfg.Session.Backend),
		slog.Duration("session_timeout", cfg.Session.Timeout),
	)
	return a, nil
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the database and the session backend.
func (a *App) Close() error {
	return closeAll(a.closers)
}

// TelegramRunOptions builds the middlewares and routes for tg.RunTelegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a.bot == nil {
		return tg.RunOptions{}, errors.New("bot: no telegram bot configured")
	}
	core := a.cfg.CoreConfig()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.gate.AdminID(),
		OnAdminReject: a.HandleMessage,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, router.TextOptions{UnknownDocument: a.onDocument})...)
	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Bot:         a.bot,
		Middlewares: tg.DefaultMiddlewares(core, a.onLimited),
		Routes:      routes,
	}, nil
}
