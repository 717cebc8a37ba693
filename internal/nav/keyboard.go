package nav

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/telegram/keyboard"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

const (
	labelChangeClass = "⬅️ Другой класс"
	labelTakeTest    = "✅ Пройти тест"
	labelSources     = "📎 Доп. источники"
	labelBack        = "⬅️ Назад"
	labelPrevTopic   = "⬅️ Предыдущая тема"
	labelNextTopic   = "➡️ Следующая тема"
	labelHome        = "🏠 Меню"
	labelOpenBot     = "Открыть бота"

	selectedMark  = " ✅"
	classesPerRow = 2
)

// Catalogue is the read-only view of the topic catalogue the navigation needs.
type Catalogue interface {
	Classes() []string
	HasClass(id string) bool
	TopicsOf(class string) []catalogue.Topic
	Topic(class string, num int) (catalogue.Topic, bool)
	Neighbours(class string, num int) (prev, next int, hasPrev, hasNext bool)
	TestsFor(class string, num int) []catalogue.TestLink
	SourcesFor(class string, num int) []catalogue.SourceLink
}

// ClassPicker lists every class, two per row. The selected class, if any, is marked.
func ClassPicker(cat Catalogue, selected string) *tele.ReplyMarkup {
	classes := cat.Classes()
	buttons := make([]keyboard.InlineBtn, 0, len(classes))
	for _, c := range classes {
		text := c + " класс"
		if c == selected {
			text += selectedMark
		}
		buttons = append(buttons, keyboard.Callback(keyboard.Pad(text, 4, 4), ClassToken(c).String()))
	}
	return keyboard.InlineButtonsNPerRow(buttons, classesPerRow)
}

// TopicPicker lists the topics of class one per row followed by the change-class row.
func TopicPicker(cat Catalogue, class string) *tele.ReplyMarkup {
	topics := cat.TopicsOf(class)
	buttons := make([]keyboard.InlineBtn, 0, len(topics)+1)
	for _, t := range topics {
		buttons = append(buttons, keyboard.Callback(keyboard.Pad(t.Label(), 4, 4), TopicToken(class, t.Num).String()))
	}
	buttons = append(buttons, keyboard.Callback(keyboard.Pad(labelChangeClass, 3, 3), MenuToken().String()))
	return keyboard.InlineButtons(buttons)
}

// TopicDetail renders the keyboard under a topic: the tests and sources accordions,
// the navigation row and the home row.
func TopicDetail(cat Catalogue, class string, num int, state DisplayState) *tele.ReplyMarkup {
	var rows [][]keyboard.InlineBtn

	tests := cat.TestsFor(class, num)
	links := make([]keyboard.InlineBtn, len(tests))
	for i, t := range tests {
		links[i] = keyboard.Link(keyboard.Pad(t.Label, 4, 4), t.URL)
	}
	rows = append(rows, accordion(labelTakeTest, links, state.TestsExpanded,
		func(t Toggle) Token { return TestsToken(class, num, t) })...)

	sources := cat.SourcesFor(class, num)
	links = make([]keyboard.InlineBtn, len(sources))
	for i, s := range sources {
		links[i] = keyboard.Link(keyboard.Pad(s.Title, 4, 4), s.URL)
	}
	rows = append(rows, accordion(labelSources, links, state.SourcesExpanded,
		func(t Toggle) Token { return SourcesToken(class, num, t) })...)

	navRow := []keyboard.InlineBtn{
		keyboard.Callback(keyboard.Pad(labelBack, 3, 3), BackToTopicsToken(class).String()),
	}
	prev, next, hasPrev, hasNext := cat.Neighbours(class, num)
	if hasPrev {
		navRow = append(navRow, keyboard.Callback(keyboard.Pad(labelPrevTopic, 2, 2), TopicToken(class, prev).String()))
	}
	if hasNext {
		navRow = append(navRow, keyboard.Callback(keyboard.Pad(labelNextTopic, 2, 2), TopicToken(class, next).String()))
	}
	rows = append(rows, navRow, homeRow())
	return keyboard.InlineButtonsRows(rows...)
}

// accordion lays out one collapsible section. A single item is shown as a direct
// link under the section title and never toggles.
func accordion(title string, links []keyboard.InlineBtn, expanded bool, token func(Toggle) Token) [][]keyboard.InlineBtn {
	switch {
	case len(links) == 0:
		return nil
	case len(links) == 1:
		return [][]keyboard.InlineBtn{{keyboard.Link(keyboard.Pad(title, 4, 4), links[0].URL)}}
	case !expanded:
		return [][]keyboard.InlineBtn{{keyboard.Callback(keyboard.Pad(title, 4, 4), token(ToggleOpen).String())}}
	}
	rows := keyboard.ChunkButtons(links, 1)
	return append(rows, []keyboard.InlineBtn{keyboard.Callback(keyboard.Pad(labelBack, 3, 3), token(ToggleClose).String())})
}

// HomeOnly is the keyboard of dead-end notices.
func HomeOnly() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(homeRow())
}

// OpenBot links to a private chat with the bot.
func OpenBot(url string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{keyboard.Link(keyboard.Pad(labelOpenBot, 4, 4), url)})
}

func homeRow() []keyboard.InlineBtn {
	return []keyboard.InlineBtn{keyboard.Callback(keyboard.Pad(labelHome, 3, 3), MenuToken().String())}
}
