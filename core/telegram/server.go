package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/topicbot/core/logger"
)

// ServerOptions configures the inbound HTTP surface of webhook mode.
type ServerOptions struct {
	Addr        string
	WebhookPath string
	Webhook     http.Handler
	// AssetsDir is served under /assets/ when set.
	AssetsDir string
	Ready     *atomic.Bool
}

// NewMux wires the webhook, health probes and static assets.
func NewMux(opts ServerOptions) *http.ServeMux {
	mux := http.NewServeMux()
	path := opts.WebhookPath
	if path == "" {
		path = "/webhook"
	}
	if opts.Webhook != nil {
		mux.Handle(path, opts.Webhook)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Ready != nil && !opts.Ready.Load() {
			writeText(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeText(w, http.StatusOK, "ready")
	})
	if opts.AssetsDir != "" {
		files := http.StripPrefix("/assets/", http.FileServer(http.Dir(opts.AssetsDir)))
		mux.Handle("/assets/", noDirListing(files))
	}
	return mux
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve runs srv until ctx is cancelled, then shuts it down within shutdownTimeout.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.LogEvent(gctx, logger.HTTP, slog.LevelInfo, "server.listen",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		start := time.Now()
		err := srv.Shutdown(shutdownCtx)
		status := "ok"
		if err != nil {
			status = "fail"
		}
		logger.LogEvent(shutdownCtx, logger.HTTP, slog.LevelInfo, "server.shutdown",
			slog.String("status", status),
			slog.Duration("duration", logger.Took(start)),
		)
		if err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
