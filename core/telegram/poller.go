package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// AllowedUpdates lists the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query"}

// NewLongPoller returns the poller used in long-poll mode.
func NewLongPoller(timeoutSeconds int) *tele.LongPoller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		AllowedUpdates: AllowedUpdates,
	}
}

// WebhookRegistration describes the setWebhook call for webhook mode.
func WebhookRegistration(publicURL, secret string) *tele.Webhook {
	return &tele.Webhook{
		SecretToken:    secret,
		AllowedUpdates: AllowedUpdates,
		Endpoint:       &tele.WebhookEndpoint{PublicURL: publicURL},
	}
}
