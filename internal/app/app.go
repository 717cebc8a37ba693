// Package app wires the catalogue, the navigation engine and the Telegram runtime
// into the topicbot process.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/bootstrap"
	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
	"github.com/m3rciful/topicbot/core/telegram/middleware"
	"github.com/m3rciful/topicbot/core/telegram/router"
	"github.com/m3rciful/topicbot/core/telegram/sender"
	"github.com/m3rciful/topicbot/internal/catalogue"
	"github.com/m3rciful/topicbot/internal/nav"
)

// App holds the long-lived dependencies of the bot.
type App struct {
	cfg   *Config
	infra *bootstrap.Result
	store *catalogue.Store
}

// Bootstrap initialises logging and the optional database, then loads the catalogue.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	opts := bootstrap.Options{Config: cfg.CoreConfig()}
	if cfg.UsesDatabase() {
		opts.Database = &cfg.Database
		if cfg.Catalogue.SeedFromFile {
			opts.Modules.Seeders = append(opts.Modules.Seeders, seedFromFile(cfg.Catalogue.Path))
		}
	}
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	store, err := loadCatalogue(ctx, cfg, infra.DB)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return &App{cfg: cfg, infra: infra, store: store}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	return a.infra.Close()
}

// Catalogue returns the loaded catalogue.
func (a *App) Catalogue() *catalogue.Store { return a.store }

// TelegramRunOptions builds the runtime options with the navigation handler.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	return tg.RunOptions{
		Config:   a.cfg.CoreConfig(),
		Registry: reg,
		Build: func(bot *tele.Bot) (tg.HandlerFunc, error) {
			return NewHandler(reg, a.store, sender.New(bot), a.cfg.Assets.PublicOrigin)
		},
	}, nil
}

// Outbound is what the handler needs from the Bot API client.
type Outbound interface {
	nav.Messenger
	router.Acknowledger
}

// NewHandler registers the navigation routes on reg and returns the handler for
// every inbound event. Group chats are answered by the guard instead.
func NewHandler(reg *tg.Registry, cat nav.Catalogue, out Outbound, origin string) (tg.HandlerFunc, error) {
	engine, err := nav.New(nav.Options{Catalogue: cat, Messenger: out, Origin: origin})
	if err != nil {
		return nil, err
	}
	if err := engine.Register(reg); err != nil {
		return nil, err
	}
	return router.New(router.Options{
		Registry:         reg,
		Ack:              out,
		Middlewares:      middleware.Default(),
		RouteMiddlewares: []tg.MiddlewareFunc{middleware.PrivateOnly(engine.GuardGroup)},
	}), nil
}

func loadCatalogue(ctx context.Context, cfg *Config, db *sqlx.DB) (*catalogue.Store, error) {
	var (
		store *catalogue.Store
		err   error
	)
	switch cfg.Catalogue.Source {
	case SourcePostgres:
		store, err = catalogue.LoadPostgres(ctx, db)
	default:
		store, err = catalogue.LoadFile(cfg.Catalogue.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("app: load catalogue from %s: %w", cfg.Catalogue.Source, err)
	}
	st := store.Stats()
	logger.LogEvent(ctx, logger.CAT, slog.LevelInfo, "catalogue.loaded",
		slog.String("source", cfg.Catalogue.Source),
		slog.Int("classes", st.Classes),
		slog.Int("topics", st.Topics),
		slog.Int("images", st.Images),
		slog.Int("tests", st.Tests),
		slog.Int("sources", st.Sources),
	)
	return store, nil
}

// seedFromFile publishes the catalogue file when the database holds none yet.
func seedFromFile(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if _, ok, err := catalogue.PublishedAt(ctx, db); err != nil || ok {
			return err
		}
		store, err := catalogue.LoadFile(path)
		if err != nil {
			return err
		}
		st, err := catalogue.Publish(ctx, db, store.Data())
		if err != nil {
			return err
		}
		logger.LogEvent(ctx, logger.CAT, slog.LevelInfo, "catalogue.seeded",
			slog.String("path", path),
			slog.Int("topics", st.Topics),
		)
		return nil
	})
}
