package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

// Recover catches panics in handlers and turns them into errors.
func Recover(next tg.HandlerFunc) tg.HandlerFunc {
	return func(ctx context.Context, ev tg.Event) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("telegram: handler panic: %v", r)
			}
		}()
		return next(ctx, ev)
	}
}
