package router

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

func handleWithSummary(ctx context.Context, handlerName string, start time.Time, fn func(context.Context) error, extras ...slog.Attr) error {
	ctx = logger.WithHandler(ctx, handlerName)
	err := fn(ctx)
	logHandlerSummary(ctx, handlerName, start, "", "", err, extras...)
	return err
}

func logHandlerSummary(ctx context.Context, handlerName string, start time.Time, statusOverride, outcomeOverride string, err error, extras ...slog.Attr) {
	ctx = logger.WithHandler(ctx, handlerName)
	msgs, kb, calls, failures, marked := tg.StatsFrom(ctx).Snapshot()

	status := statusOverride
	if status == "" {
		if err != nil {
			status = "fail"
		} else {
			status = "ok"
		}
	}
	outcome := outcomeOverride
	if outcome == "" {
		switch {
		case marked != "":
			outcome = marked
		case err != nil:
			outcome = "fail"
		default:
			outcome = "ok"
		}
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int("calls", calls),
		slog.Duration("duration", logger.Took(start)),
	}
	if failures > 0 {
		attrs = append(attrs, slog.Int("calls_failed", failures))
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", handlerName),
		)
	}
	attrs = append(attrs, extras...)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		code := strings.TrimSpace(c.Code())
		if code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}
