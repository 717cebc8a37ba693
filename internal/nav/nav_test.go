package nav

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/telegram/callbacks"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

func testCatalogue(t *testing.T) *catalogue.Store {
	t.Helper()
	many := make([]string, 23)
	for i := range many {
		many[i] = strconv.Itoa(i+1) + ".jpg"
	}
	store, err := catalogue.New(catalogue.Data{
		Classes: []string{"5", "6", "9"},
		Topics: map[string][]catalogue.Topic{
			"5": {
				{Num: 3, Title: "Клетка", Folder: "3. Клетка", Images: []string{"1.jpg"}},
				{Num: 7, Folder: "7", Images: many},
				{Num: 8, Title: "Ткани", Folder: "8. Ткани"},
				{Num: 14, Title: "Органы", Folder: "14. Органы", Images: []string{"a.png", "b.png"}},
			},
			"6": {
				{Num: 1, Title: "Введение", Folder: "1. Введение", Images: []string{"x.jpg"}},
			},
		},
		Tests: map[string][]catalogue.TestLink{
			"5|3": {{Label: "✅ Пройти тест", URL: "https://forms.example.org/3"}},
			"5|14": {
				{Label: "🟢 Базовая сложность", URL: "https://forms.example.org/14b"},
				{Label: "🔴 Повышенная сложность", URL: "https://forms.example.org/14a"},
			},
		},
		Sources: map[string][]catalogue.SourceLink{
			"5|14": {
				{Title: "Учебник", URL: "https://example.org/book"},
				{Title: "Видео", URL: "https://example.org/video"},
			},
		},
	})
	require.NoError(t, err)
	return store
}

type call struct {
	Method    string
	ChatID    int64
	MessageID int
	Text      string
	URLs      []string
	Markup    *tele.ReplyMarkup
}

type fakeMessenger struct {
	mu       sync.Mutex
	calls    []call
	username string
	failOn   map[string]error
	failChat map[int64]error
}

func (f *fakeMessenger) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if err := f.failChat[c.ChatID]; err != nil {
		return err
	}
	return f.failOn[c.Method]
}

func (f *fakeMessenger) BotUsername() string { return f.username }

func (f *fakeMessenger) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	return f.record(call{Method: "sendMessage", ChatID: chatID, Text: text, Markup: markup})
}

func (f *fakeMessenger) EditText(_ context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	return f.record(call{Method: "editMessageText", ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
}

func (f *fakeMessenger) EditKeyboard(_ context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error {
	return f.record(call{Method: "editMessageReplyMarkup", ChatID: chatID, MessageID: messageID, Markup: markup})
}

func (f *fakeMessenger) SendPhoto(_ context.Context, chatID int64, photoURL string) error {
	return f.record(call{Method: "sendPhoto", ChatID: chatID, URLs: []string{photoURL}})
}

func (f *fakeMessenger) SendAlbum(_ context.Context, chatID int64, photoURLs []string) error {
	return f.record(call{Method: "sendMediaGroup", ChatID: chatID, URLs: append([]string(nil), photoURLs...)})
}

func (f *fakeMessenger) methods() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

// texts flattens a keyboard into "label|target" pairs with the padding kept.
func texts(markup *tele.ReplyMarkup) []string {
	if markup == nil {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			target := b.Data
			if target == "" {
				target = b.URL
			}
			out = append(out, fmt.Sprintf("%s|%s", b.Text, target))
		}
	}
	return out
}

func rowSizes(markup *tele.ReplyMarkup) []int {
	sizes := make([]int, len(markup.InlineKeyboard))
	for i, row := range markup.InlineKeyboard {
		sizes[i] = len(row)
	}
	return sizes
}

func hasToken(markup *tele.ReplyMarkup, tok Token) bool {
	return callbacks.Contains(markup, tok.String())
}
