package nav

import (
	tele "gopkg.in/telebot.v4"
)

// ScreenKind names the screen a token leads to.
type ScreenKind int

const (
	// ScreenNone leaves the chat untouched.
	ScreenNone ScreenKind = iota
	// ScreenHome is the class picker.
	ScreenHome
	// ScreenClass is the topic list of a class.
	ScreenClass
	// ScreenTopic sends the images and caption of a topic.
	ScreenTopic
	// ScreenToggle re-renders the keyboard of a topic already on display.
	ScreenToggle
)

func (k ScreenKind) String() string {
	switch k {
	case ScreenHome:
		return "home"
	case ScreenClass:
		return "class"
	case ScreenTopic:
		return "topic"
	case ScreenToggle:
		return "toggle"
	default:
		return "none"
	}
}

// Screen is the outcome of one transition.
type Screen struct {
	Kind  ScreenKind
	Class string
	Topic int
	State DisplayState
}

// Next maps a token to the screen it leads to. prior is the keyboard of the message
// the button was pressed on; it is only consulted for accordion toggles. Tokens that
// name an unknown class lead nowhere.
func Next(cat Catalogue, tok Token, prior *tele.ReplyMarkup) Screen {
	if tok.Action == ActionMenu {
		return Screen{Kind: ScreenHome}
	}
	if !cat.HasClass(tok.Class) {
		return Screen{Kind: ScreenNone}
	}
	switch tok.Action {
	case ActionClass, ActionBackToTopics:
		return Screen{Kind: ScreenClass, Class: tok.Class}
	case ActionTopic:
		return Screen{Kind: ScreenTopic, Class: tok.Class, Topic: tok.Topic}
	case ActionTests, ActionSources:
		state := Reconstruct(prior, tok.Class, tok.Topic).Apply(tok)
		return Screen{Kind: ScreenToggle, Class: tok.Class, Topic: tok.Topic, State: state}
	}
	return Screen{Kind: ScreenNone}
}
