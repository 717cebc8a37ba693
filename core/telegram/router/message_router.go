package router

import (
	"context"
	"time"

	tg "github.com/m3rciful/topicbot/core/telegram"
)

// routeMessage resolves commands first and falls back to the registry text handler.
func (r *Router) routeMessage(ctx context.Context, ev tg.MessageEvent, start time.Time) error {
	if key, cmd, ok := r.reg.LookupCommand(ev.Text); ok && cmd.Handler != nil {
		return handleWithSummary(ctx, "command."+normalizeHandlerName(key), start, r.wrap(cmd.Handler, ev))
	}

	if fb := r.reg.TextFallback(); fb != nil {
		return handleWithSummary(ctx, "fallback", start, r.wrap(fb, ev))
	}

	logHandlerSummary(ctx, "unknown_text", start, "skip", "noop", nil)
	return nil
}
