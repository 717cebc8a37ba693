package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

// PrivateOnly lets events from private chats through. Events from groups and
// channels are handed to onGroup instead and reported with the "guarded" outcome.
func PrivateOnly(onGroup tg.HandlerFunc) tg.MiddlewareFunc {
	return func(next tg.HandlerFunc) tg.HandlerFunc {
		return func(ctx context.Context, ev tg.Event) error {
			src := ev.EventSource()
			if src.Private() {
				return next(ctx, ev)
			}
			tg.MarkOutcome(ctx, "guarded")
			logger.Info(ctx, "tg", "guard.non_private",
				slog.String("chat_type", string(src.ChatType)),
			)
			if onGroup == nil {
				return nil
			}
			return onGroup(ctx, ev)
		}
	}
}
