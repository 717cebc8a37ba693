package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/topicbot/core/config"
	"github.com/m3rciful/topicbot/core/logger"
)

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Build receives the connected bot and returns the handler for every event.
	Build func(bot *tele.Bot) (HandlerFunc, error)

	// APIURL overrides the Bot API base URL.
	APIURL string

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Registry *Registry
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Build == nil {
		return fmt.Errorf("telegram: nil handler builder provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		URL:    opts.APIURL,
		Client: BuildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			attrs := []slog.Attr{slog.String("err", logger.SanitizeLimit(err.Error(), 256))}
			if c != nil {
				attrs = append(attrs, slog.Int("update_id", c.Update().ID))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "bot.error", attrs...)
		},
	}
	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll {
		settings.Poller = NewLongPoller(cfg.Telegram.LongPollTimeoutSeconds)
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "bot.ready",
		slog.String("username", bot.Me.Username),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.Took(buildStart)),
	)

	dispatch, err := opts.Build(bot)
	if err != nil {
		return fmt.Errorf("telegram: handler build failed: %w", err)
	}

	if cfg.Telegram.SetCommands {
		InitBotCommands(bot, reg)
	}

	rt := Runtime{Bot: bot, Registry: reg}

	var runErr error
	switch cfg.Telegram.RunMode {
	case coreconfig.RunModeLongpoll:
		runErr = runLongPoll(ctx, bot, dispatch, rt, opts)
	default:
		runErr = runWebhook(ctx, bot, dispatch, rt, opts)
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return stopErr
}

func runLongPoll(ctx context.Context, bot *tele.Bot, dispatch HandlerFunc, rt Runtime, opts RunOptions) error {
	if err := bot.RemoveWebhook(); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "delete_webhook",
			slog.String("status", "fail"),
			slog.String("mode", RunModeLongpoll),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	} else {
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "delete_webhook",
			slog.String("status", "ok"),
			slog.String("mode", RunModeLongpoll),
		)
	}

	handle := func(c tele.Context) error {
		if err := dispatch(ctx, FromUpdate(c.Update())); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "dispatch",
				slog.String("status", "fail"),
				slog.Int("update_id", c.Update().ID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
		return nil
	}
	bot.Handle(tele.OnCallback, handle)
	bot.Handle(tele.OnText, handle)
	bot.Handle(tele.OnMedia, handle)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

func runWebhook(ctx context.Context, bot *tele.Bot, dispatch HandlerFunc, rt Runtime, opts RunOptions) error {
	cfg := opts.Config
	if cfg.Webhook.Register {
		if err := bot.SetWebhook(WebhookRegistration(cfg.Webhook.URL, cfg.Webhook.SecretToken)); err != nil {
			return fmt.Errorf("telegram: set webhook: %w", err)
		}
		logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "set_webhook",
			slog.String("status", "ok"),
			slog.String("public_url", cfg.Webhook.URL),
		)
	}

	var ready atomic.Bool
	mux := NewMux(ServerOptions{
		WebhookPath: cfg.Webhook.Path,
		Webhook: WebhookHandler(WebhookOptions{
			Secret:   cfg.Webhook.SecretToken,
			Origin:   cfg.Assets.PublicOrigin,
			Dispatch: dispatch,
		}),
		AssetsDir: cfg.Assets.Dir,
		Ready:     &ready,
	})
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
		slog.String("mode", RunModeWebhook),
		slog.String("listen", srv.Addr),
		slog.String("path", cfg.Webhook.Path),
	)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}
	ready.Store(true)

	return Serve(ctx, srv, time.Duration(cfg.Webhook.ShutdownTimeoutSeconds)*time.Second)
}
