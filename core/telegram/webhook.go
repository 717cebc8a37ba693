package telegram

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/topicbot/core/logger"
)

// SecretHeader is the header Telegram fills with the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const defaultMaxBodyBytes = 1 << 20

type originKey struct{}

// WithOrigin stores the public origin (scheme://host) used to build asset URLs.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin stored by WithOrigin.
func OriginFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}

// WebhookOptions configures WebhookHandler.
type WebhookOptions struct {
	// Secret must match the secret header of every POST.
	Secret string
	// Origin overrides the origin derived from the request when set.
	Origin string
	// Dispatch receives every decoded event.
	Dispatch     HandlerFunc
	MaxBodyBytes int64
}

// WebhookHandler authenticates, decodes and dispatches Telegram webhook calls.
// Events are handled synchronously; the response is sent once handling completes.
func WebhookHandler(opts WebhookOptions) http.Handler {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithRID(r.Context(), uuid.NewString())

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			writeText(w, http.StatusOK, "OK")
			return
		case http.MethodPost:
		default:
			w.Header().Set("Allow", "GET, POST")
			writeText(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(opts.Secret)) != 1 {
			logger.LogEvent(ctx, logger.HTTP, slog.LevelWarn, "webhook.rejected",
				slog.String("status", "rejected"),
				slog.String("reason", "secret_mismatch"),
				slog.Bool("header_present", got != ""),
				slog.String("remote", r.RemoteAddr),
			)
			writeText(w, http.StatusForbidden, "forbidden")
			return
		}

		ev := DecodeUpdate(http.MaxBytesReader(w, r.Body, maxBody))
		if bad, ok := ev.(MalformedEvent); ok {
			logger.LogEvent(ctx, logger.HTTP, slog.LevelWarn, "webhook.rejected",
				slog.String("status", "rejected"),
				slog.String("reason", "malformed"),
				slog.String("err", logger.SanitizeLimit(bad.Err.Error(), 256)),
			)
			writeText(w, http.StatusBadRequest, "bad request")
			return
		}

		if src := ev.EventSource(); src.UpdateID != 0 {
			ctx = logger.WithRID(ctx, logger.BuildRID(src.UpdateID, src.ChatID, src.UserID))
		}

		origin := opts.Origin
		if origin == "" {
			origin = RequestOrigin(r)
		}
		ctx = WithOrigin(ctx, origin)

		status := "ok"
		if opts.Dispatch != nil {
			if err := opts.Dispatch(ctx, ev); err != nil {
				status = "fail"
				logger.LogEvent(ctx, logger.HTTP, slog.LevelError, "webhook.dispatch",
					slog.String("status", "fail"),
					slog.Int("update_id", ev.EventSource().UpdateID),
					slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				)
			}
		}
		logger.LogEvent(ctx, logger.HTTP, slog.LevelDebug, "webhook.handled",
			slog.String("status", status),
			slog.Int("update_id", ev.EventSource().UpdateID),
			slog.Duration("duration", logger.Took(start)),
		)
		writeText(w, http.StatusOK, "ok")
	})
}

// RequestOrigin derives scheme://host of the public endpoint that received r.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		if first = strings.ToLower(strings.TrimSpace(first)); first == "http" || first == "https" {
			scheme = first
		}
	}
	return scheme + "://" + r.Host
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
