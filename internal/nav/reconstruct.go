package nav

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/telegram/callbacks"
)

// DisplayState is the accordion state of a topic screen. It is never stored; it is
// read back from the keyboard on display.
type DisplayState struct {
	TestsExpanded   bool
	SourcesExpanded bool
}

// Reconstruct recovers the display state of topic num in class from the keyboard
// currently attached to the message. A section is expanded exactly when its
// collapse button is present. A nil markup yields the collapsed state.
func Reconstruct(markup *tele.ReplyMarkup, class string, num int) DisplayState {
	return DisplayState{
		TestsExpanded:   callbacks.Contains(markup, TestsToken(class, num, ToggleClose).String()),
		SourcesExpanded: callbacks.Contains(markup, SourcesToken(class, num, ToggleClose).String()),
	}
}

// Apply returns s with the section named by tok switched to the requested state.
// Tokens other than tests and sources toggles leave s unchanged.
func (s DisplayState) Apply(tok Token) DisplayState {
	expanded := tok.Toggle == ToggleOpen
	switch tok.Action {
	case ActionTests:
		s.TestsExpanded = expanded
	case ActionSources:
		s.SourcesExpanded = expanded
	}
	return s
}
