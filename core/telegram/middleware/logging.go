package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

// Logger derives the request id from the update, exposes it through ctx and
// writes a sampled receipt line per update.
func Logger(next tg.HandlerFunc) tg.HandlerFunc {
	return func(ctx context.Context, ev tg.Event) error {
		src := ev.EventSource()
		rid := logger.BuildRID(src.UpdateID, src.ChatID, src.UserID)

		ctx = logger.WithRID(ctx, rid)
		ctx = logger.WithUpdateMeta(ctx, src.UpdateID, src.UserID, src.ChatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", eventKind(ev)),
			}
			if src.ChatType != "" {
				attrs = append(attrs, slog.String("chat_type", string(src.ChatType)))
			}
			switch e := ev.(type) {
			case tg.CallbackEvent:
				attrs = append(attrs,
					slog.String("cb_key", logger.SanitizeLimit(tg.CallbackAction(e.Data), 64)),
					slog.String("token", logger.SanitizeLimit(e.Data, 128)),
				)
			case tg.MessageEvent:
				if e.Text != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(e.Text, 256)))
				}
			}
			logger.Debug(ctx, "tg", "update.received", attrs...)
		}

		return next(ctx, ev)
	}
}

func eventKind(ev tg.Event) string {
	switch e := ev.(type) {
	case tg.CallbackEvent:
		return "callback"
	case tg.MessageEvent:
		return "message"
	case tg.MalformedEvent:
		return "malformed"
	case tg.IgnoredEvent:
		return e.Kind
	default:
		return "unknown"
	}
}
