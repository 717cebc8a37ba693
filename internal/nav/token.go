// Package nav is the stateless navigation state machine of the bot. Every screen
// is derived from the pressed button's token and, for accordion toggles, from the
// keyboard of the message being edited.
package nav

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/topicbot/core/telegram/callbacks"
)

// ErrMalformedToken is returned by ParseToken for payloads outside the token grammar.
var ErrMalformedToken = errors.New("nav: malformed token")

// Action is the first field of a token.
type Action string

const (
	ActionMenu         Action = "menu"
	ActionClass        Action = "class"
	ActionBackToTopics Action = "back-to-topics"
	ActionTopic        Action = "topic"
	ActionTests        Action = "tests"
	ActionSources      Action = "sources"
)

// Actions lists every action the engine handles.
var Actions = []Action{ActionMenu, ActionClass, ActionBackToTopics, ActionTopic, ActionTests, ActionSources}

var fieldCount = map[Action]int{
	ActionMenu:         1,
	ActionClass:        2,
	ActionBackToTopics: 2,
	ActionTopic:        3,
	ActionTests:        4,
	ActionSources:      4,
}

// Toggle is the requested state of an accordion section.
type Toggle string

const (
	ToggleOpen  Toggle = "open"
	ToggleClose Toggle = "close"
)

// Token is the parsed form of a button's callback payload.
type Token struct {
	Action Action
	Class  string
	Topic  int
	Toggle Toggle
}

// MenuToken returns the token of the class picker.
func MenuToken() Token { return Token{Action: ActionMenu} }

// ClassToken selects a class.
func ClassToken(class string) Token { return Token{Action: ActionClass, Class: class} }

// BackToTopicsToken returns to the topic list of a class.
func BackToTopicsToken(class string) Token { return Token{Action: ActionBackToTopics, Class: class} }

// TopicToken opens a topic.
func TopicToken(class string, topic int) Token {
	return Token{Action: ActionTopic, Class: class, Topic: topic}
}

// TestsToken toggles the tests section of a topic.
func TestsToken(class string, topic int, t Toggle) Token {
	return Token{Action: ActionTests, Class: class, Topic: topic, Toggle: t}
}

// SourcesToken toggles the sources section of a topic.
func SourcesToken(class string, topic int, t Toggle) Token {
	return Token{Action: ActionSources, Class: class, Topic: topic, Toggle: t}
}

// String renders the callback payload of t.
func (t Token) String() string {
	switch t.Action {
	case ActionMenu:
		return string(ActionMenu)
	case ActionClass, ActionBackToTopics:
		return string(t.Action) + ":" + t.Class
	case ActionTopic:
		return string(ActionTopic) + ":" + t.Class + ":" + strconv.Itoa(t.Topic)
	case ActionTests, ActionSources:
		return string(t.Action) + ":" + t.Class + ":" + strconv.Itoa(t.Topic) + ":" + string(t.Toggle)
	default:
		return ""
	}
}

// ParseToken decodes a callback payload. Field counts, topic numbers and toggle
// values are checked; class membership is not.
func ParseToken(data string) (Token, error) {
	action, _, _ := strings.Cut(data, callbacks.Separator)
	want := fieldCount[Action(action)]
	if want == 0 {
		return Token{}, fmt.Errorf("%w: unknown action in %q", ErrMalformedToken, data)
	}
	parts, ok := callbacks.PayloadParts(data, want)
	if !ok {
		return Token{}, fmt.Errorf("%w: %q needs %d fields", ErrMalformedToken, data, want)
	}

	tok := Token{Action: Action(action)}
	if want >= 2 {
		if parts[1] == "" {
			return Token{}, fmt.Errorf("%w: empty class in %q", ErrMalformedToken, data)
		}
		tok.Class = parts[1]
	}
	if want >= 3 {
		n, err := callbacks.PayloadNum(parts[2])
		if err != nil {
			return Token{}, fmt.Errorf("%w: topic number in %q", ErrMalformedToken, data)
		}
		tok.Topic = n
	}
	if want == 4 {
		switch Toggle(parts[3]) {
		case ToggleOpen, ToggleClose:
			tok.Toggle = Toggle(parts[3])
		default:
			return Token{}, fmt.Errorf("%w: toggle in %q", ErrMalformedToken, data)
		}
	}
	return tok, nil
}
