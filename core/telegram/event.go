package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	tele "gopkg.in/telebot.v4"
)

// ErrMalformedUpdate marks an inbound body that could not be decoded as a Telegram update.
var ErrMalformedUpdate = errors.New("telegram: malformed update")

// Source carries the routing metadata shared by every event kind.
type Source struct {
	UpdateID int
	ChatID   int64
	ChatType tele.ChatType
	UserID   int64
}

// EventSource returns the metadata of the event.
func (s Source) EventSource() Source { return s }

// Private reports whether the event comes from a one-to-one chat with the bot.
func (s Source) Private() bool { return s.ChatType == tele.ChatPrivate }

// Event is one parsed inbound update. The set of implementations is closed:
// CallbackEvent, MessageEvent, MalformedEvent and IgnoredEvent.
type Event interface {
	EventSource() Source
	isEvent()
}

// CallbackEvent is a press on an inline button.
type CallbackEvent struct {
	Source
	ID   string
	Data string
	// HasMessage is false when Telegram did not attach the originating message.
	HasMessage bool
	MessageID  int
	// Markup is the keyboard attached to the originating message before the press.
	Markup *tele.ReplyMarkup
}

// MessageEvent is a message typed by the user. Text is empty for non-text messages.
type MessageEvent struct {
	Source
	MessageID int
	Text      string
}

// MalformedEvent is produced when the body is not a decodable update.
type MalformedEvent struct {
	Source
	Err error
}

// IgnoredEvent is a well-formed update of a kind the bot does not handle.
type IgnoredEvent struct {
	Source
	Kind string
}

func (CallbackEvent) isEvent()  {}
func (MessageEvent) isEvent()   {}
func (MalformedEvent) isEvent() {}
func (IgnoredEvent) isEvent()   {}

// DecodeUpdate reads one update from r and classifies it.
func DecodeUpdate(r io.Reader) Event {
	var u tele.Update
	if err := json.NewDecoder(r).Decode(&u); err != nil {
		return MalformedEvent{Err: fmt.Errorf("%w: %v", ErrMalformedUpdate, err)}
	}
	return FromUpdate(u)
}

// FromUpdate maps a decoded update onto its event kind.
func FromUpdate(u tele.Update) Event {
	switch {
	case u.Callback != nil:
		cb := u.Callback
		ev := CallbackEvent{
			Source: Source{UpdateID: u.ID},
			ID:     cb.ID,
			Data:   cb.Data,
		}
		if cb.Unique != "" {
			// Telebot splits "\f<unique>|<data>" payloads while processing updates.
			ev.Data = cb.Unique
			if cb.Data != "" {
				ev.Data += "|" + cb.Data
			}
		}
		if cb.Sender != nil {
			ev.UserID = cb.Sender.ID
		}
		if m := cb.Message; m != nil && m.Chat != nil && m.ID != 0 {
			ev.HasMessage = true
			ev.MessageID = m.ID
			ev.ChatID = m.Chat.ID
			ev.ChatType = m.Chat.Type
			ev.Markup = m.ReplyMarkup
		}
		return ev
	case u.Message != nil:
		m := u.Message
		ev := MessageEvent{
			Source:    Source{UpdateID: u.ID},
			MessageID: m.ID,
			Text:      m.Text,
		}
		if m.Chat != nil {
			ev.ChatID = m.Chat.ID
			ev.ChatType = m.Chat.Type
		}
		if m.Sender != nil {
			ev.UserID = m.Sender.ID
		}
		if ev.ChatID == 0 {
			return IgnoredEvent{Source: ev.Source, Kind: "message_without_chat"}
		}
		return ev
	default:
		return IgnoredEvent{Source: Source{UpdateID: u.ID}, Kind: updateKind(u)}
	}
}

func updateKind(u tele.Update) string {
	switch {
	case u.EditedMessage != nil:
		return "edited_message"
	case u.ChannelPost != nil:
		return "channel_post"
	case u.Query != nil:
		return "inline_query"
	case u.MyChatMember != nil:
		return "my_chat_member"
	default:
		return "other"
	}
}
