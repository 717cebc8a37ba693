package middleware

import tg "github.com/m3rciful/topicbot/core/telegram"

// Default returns the chain applied to every inbound event, outermost first.
func Default() []tg.MiddlewareFunc {
	return []tg.MiddlewareFunc{Recover, Logger, Metrics}
}
