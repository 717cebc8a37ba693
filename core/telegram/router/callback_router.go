package router

import (
	"context"
	"log/slog"
	"time"

	tg "github.com/m3rciful/topicbot/core/telegram"
)

// routeCallback acknowledges the press first, then resolves the handler by action.
func (r *Router) routeCallback(ctx context.Context, ev tg.CallbackEvent, start time.Time) error {
	action := tg.CallbackAction(ev.Data)
	name := "callback." + normalizeHandlerName(action)
	extras := []slog.Attr{slog.String("cb_key", action)}

	if r.ack != nil {
		// Failures are logged by the sender and never stop the event.
		_ = r.ack.AnswerCallback(ctx, ev.ID)
	}

	if !ev.HasMessage {
		extras = append(extras, slog.String("reason", "no_message"))
		logHandlerSummary(ctx, name, start, "skip", "noop", nil, extras...)
		return nil
	}

	// Unknown actions still pass through the route middlewares.
	h, ok := r.reg.GetCallback(action)
	if !ok || h == nil {
		h = r.reg.CallbackNotFound()
		extras = append(extras, slog.String("reason", "not_found"))
		tg.MarkOutcome(ctx, "noop")
	}
	return handleWithSummary(ctx, name, start, r.wrap(h, ev), extras...)
}
