// Package router turns parsed events into registry handler calls and writes one
// summary line per handled event.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

// Acknowledger answers callback queries so the client stops its progress indicator.
type Acknowledger interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Options configures New.
type Options struct {
	Registry *tg.Registry
	Ack      Acknowledger
	// Middlewares wrap the whole dispatcher, outermost first.
	Middlewares []tg.MiddlewareFunc
	// RouteMiddlewares wrap every resolved handler. For callbacks they run after
	// the acknowledgement has been sent.
	RouteMiddlewares []tg.MiddlewareFunc
}

// Router dispatches events to the handlers of a Registry.
type Router struct {
	reg     *tg.Registry
	ack     Acknowledger
	routeMW []tg.MiddlewareFunc
}

// New builds the event handler for opts.
func New(opts Options) tg.HandlerFunc {
	reg := opts.Registry
	if reg == nil {
		reg = tg.NewRegistry()
	}
	r := &Router{reg: reg, ack: opts.Ack, routeMW: opts.RouteMiddlewares}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "complete",
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return tg.Chain(r.Dispatch, opts.Middlewares...)
}

// Dispatch routes one event without the outer middleware chain.
func (r *Router) Dispatch(ctx context.Context, ev tg.Event) error {
	start := time.Now()
	switch e := ev.(type) {
	case tg.CallbackEvent:
		return r.routeCallback(ctx, e, start)
	case tg.MessageEvent:
		return r.routeMessage(ctx, e, start)
	case tg.MalformedEvent:
		logHandlerSummary(ctx, "malformed", start, "rejected", "noop", nil)
		return e.Err
	case tg.IgnoredEvent:
		logHandlerSummary(ctx, "ignored", start, "skip", "noop", nil, slog.String("kind", e.Kind))
		return nil
	default:
		return fmt.Errorf("router: unexpected event %T", ev)
	}
}

func (r *Router) wrap(h tg.HandlerFunc, ev tg.Event) func(context.Context) error {
	h = tg.Chain(h, r.routeMW...)
	return func(ctx context.Context) error { return h(ctx, ev) }
}
