package middleware

import (
	"context"

	tg "github.com/m3rciful/topicbot/core/telegram"
)

// Metrics attaches per-event counters that the sender fills and the router reports.
func Metrics(next tg.HandlerFunc) tg.HandlerFunc {
	return func(ctx context.Context, ev tg.Event) error {
		if tg.StatsFrom(ctx) == nil {
			ctx, _ = tg.WithStats(ctx)
		}
		return next(ctx, ev)
	}
}
