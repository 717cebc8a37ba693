// Package sender performs outbound Bot API calls. Calls are issued synchronously
// in the order they are made and are never retried.
package sender

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

// SendError describes a failed API call. Its message never contains the bot token.
type SendError struct {
	Method    string
	Kind      string
	Retryable bool
	Err       error
}

func (e *SendError) Error() string {
	return "telegram " + e.Method + ": " + sanitizeErrorMessage(e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Code reports the failure class, e.g. "timeout" or "http_4xx".
func (e *SendError) Code() string { return e.Kind }

// Client wraps a telebot Bot with logging and per-event accounting.
type Client struct {
	bot *tele.Bot
}

// New returns a Client that calls the Bot API through bot.
func New(bot *tele.Bot) *Client {
	return &Client{bot: bot}
}

// BotUsername returns the bot's @username without the "@", or "" when unknown.
func (c *Client) BotUsername() string {
	if c.bot == nil || c.bot.Me == nil {
		return ""
	}
	return c.bot.Me.Username
}

// AnswerCallback acknowledges a callback query without showing a notification.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.do(ctx, "answerCallbackQuery", false, false, func() error {
		return c.bot.Respond(&tele.Callback{ID: callbackID})
	})
}

// SendText sends a plain text message, with an inline keyboard when markup is not nil.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	return c.do(ctx, "sendMessage", true, markup != nil, func() error {
		_, err := c.bot.Send(tele.ChatID(chatID), text, sendOptions(markup))
		return err
	})
}

// EditText replaces the text and keyboard of a message.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	return c.do(ctx, "editMessageText", true, markup != nil, func() error {
		_, err := c.bot.Edit(stored(chatID, messageID), text, sendOptions(markup))
		return err
	})
}

// EditKeyboard replaces only the inline keyboard of a message.
func (c *Client) EditKeyboard(ctx context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error {
	return c.do(ctx, "editMessageReplyMarkup", true, markup != nil, func() error {
		_, err := c.bot.EditReplyMarkup(stored(chatID, messageID), markup)
		return err
	})
}

// SendPhoto sends one photo referenced by URL.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL string) error {
	return c.do(ctx, "sendPhoto", true, false, func() error {
		_, err := c.bot.Send(tele.ChatID(chatID), &tele.Photo{File: tele.FromURL(photoURL)})
		return err
	})
}

// SendAlbum sends 2 to 10 photos referenced by URL as one media group.
func (c *Client) SendAlbum(ctx context.Context, chatID int64, photoURLs []string) error {
	album := make(tele.Album, 0, len(photoURLs))
	for _, u := range photoURLs {
		album = append(album, &tele.Photo{File: tele.FromURL(u)})
	}
	return c.do(ctx, "sendMediaGroup", true, false, func() error {
		_, err := c.bot.SendAlbum(tele.ChatID(chatID), album)
		return err
	})
}

func sendOptions(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ReplyMarkup: markup}
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

func (c *Client) do(ctx context.Context, method string, message, keyboard bool, call func() error) error {
	start := time.Now()
	err := call()
	took := logger.Took(start)

	if isNotModified(err) {
		logger.Debug(ctx, "tg.sender", "send.not_modified", slog.String("method", method))
		err = nil
	}
	tg.StatsFrom(ctx).Call(message, keyboard, err)

	if err != nil {
		kind := classifyError(err)
		sendErr := &SendError{
			Method:    method,
			Kind:      kind,
			Retryable: retryableKind(kind),
			Err:       err,
		}
		logger.Error(ctx, "tg.sender", "send.fail",
			slog.String("method", method),
			slog.String("error", logger.SanitizeLimit(sendErr.Error(), 512)),
			slog.String("error_kind", sendErr.Kind),
			slog.Bool("retryable", sendErr.Retryable),
			slog.Duration("duration", took),
		)
		return sendErr
	}

	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "tg.sender", "send.success",
			slog.String("method", method),
			slog.Duration("duration", took),
		)
	}
	return nil
}
