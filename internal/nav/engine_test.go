package nav

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/topicbot/core/telegram"
)

const origin = "https://bot.example.org"

func newEngine(t *testing.T, out *fakeMessenger) *Engine {
	t.Helper()
	e, err := New(Options{Catalogue: testCatalogue(t), Messenger: out, Origin: origin})
	require.NoError(t, err)
	return e
}

func press(data string, markup *tele.ReplyMarkup) tg.CallbackEvent {
	return tg.CallbackEvent{
		Source:     tg.Source{UpdateID: 7, ChatID: 100, ChatType: tele.ChatPrivate, UserID: 100},
		ID:         "cb-1",
		Data:       data,
		HasMessage: true,
		MessageID:  55,
		Markup:     markup,
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Messenger: &fakeMessenger{}})
	require.Error(t, err)
	_, err = New(Options{Catalogue: testCatalogue(t)})
	require.Error(t, err)
}

func TestMenuAndClassEditInPlace(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	require.NoError(t, e.HandleCallback(context.Background(), press("menu", nil)))
	require.NoError(t, e.HandleCallback(context.Background(), press("class:5", nil)))
	require.NoError(t, e.HandleCallback(context.Background(), press("back-to-topics:6", nil)))

	require.Equal(t, []string{"editMessageText", "editMessageText", "editMessageText"}, out.methods())
	assert.Equal(t, "Выбери класс:", out.calls[0].Text)
	assert.Equal(t, 55, out.calls[0].MessageID)
	assert.True(t, hasToken(out.calls[0].Markup, ClassToken("9")))
	assert.Equal(t, "Выбранный класс: 5\nВыбери тему:", out.calls[1].Text)
	assert.True(t, hasToken(out.calls[1].Markup, TopicToken("5", 14)))
	assert.Equal(t, "Выбранный класс: 6\nВыбери тему:", out.calls[2].Text)
}

func TestIgnoredTokensSendNothing(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)
	for _, data := range []string{"class:42", "topic:42:1", "topic:5:x", "tests:5:14", "nonsense", "back:topics:5"} {
		ctx, stats := tg.WithStats(context.Background())
		require.NoError(t, e.HandleCallback(ctx, press(data, nil)), data)
		_, _, _, _, outcome := stats.Snapshot()
		assert.Equal(t, "noop", outcome, data)
	}
	assert.Empty(t, out.calls)
}

func TestTopicWithManyImagesIsSentInAlbums(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	require.NoError(t, e.HandleCallback(context.Background(), press("topic:5:7", nil)))

	require.Equal(t, []string{"sendMediaGroup", "sendMediaGroup", "sendMediaGroup", "sendMessage"}, out.methods())
	assert.Len(t, out.calls[0].URLs, 10)
	assert.Len(t, out.calls[1].URLs, 10)
	assert.Len(t, out.calls[2].URLs, 3)
	assert.Equal(t, origin+"/assets/5/7/1.jpg", out.calls[0].URLs[0])
	assert.Equal(t, origin+"/assets/5/7/23.jpg", out.calls[2].URLs[2])

	caption := out.calls[3]
	assert.Equal(t, "📌 5 класс — Параграф 7", caption.Text)
	assert.Equal(t, int64(100), caption.ChatID)
	assert.True(t, hasToken(caption.Markup, TopicToken("5", 3)))
	assert.True(t, hasToken(caption.Markup, TopicToken("5", 8)))
}

func TestTopicWithOneImageUsesSinglePhoto(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	require.NoError(t, e.HandleCallback(context.Background(), press("topic:5:3", nil)))

	require.Equal(t, []string{"sendPhoto", "sendMessage"}, out.methods())
	assert.Equal(t, []string{origin + "/assets/5/3.%20%D0%9A%D0%BB%D0%B5%D1%82%D0%BA%D0%B0/1.jpg"}, out.calls[0].URLs)
	assert.Equal(t, "📌 5 класс — Клетка", out.calls[1].Text)
}

func TestTopicWithoutImagesSendsNotice(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	require.NoError(t, e.HandleCallback(context.Background(), press("topic:5:8", nil)))

	require.Equal(t, []string{"sendMessage"}, out.methods())
	assert.Equal(t, "Картинок не найдено: assets/5/8. Ткани/", out.calls[0].Text)
	assert.True(t, hasToken(out.calls[0].Markup, BackToTopicsToken("5")))
}

func TestMissingTopicGetsHomeOnly(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	require.NoError(t, e.HandleCallback(context.Background(), press("topic:9:999", nil)))

	require.Equal(t, []string{"sendMessage"}, out.methods())
	assert.Equal(t, "Такой темы нет.", out.calls[0].Text)
	assert.Equal(t, texts(HomeOnly()), texts(out.calls[0].Markup))
}

func TestOriginFallsBackToRequestContext(t *testing.T) {
	out := &fakeMessenger{}
	e, err := New(Options{Catalogue: testCatalogue(t), Messenger: out})
	require.NoError(t, err)

	ctx := tg.WithOrigin(context.Background(), "https://req.example.org")
	require.NoError(t, e.HandleCallback(ctx, press("topic:6:1", nil)))
	assert.Equal(t, []string{"https://req.example.org/assets/6/1.%20%D0%92%D0%B2%D0%B5%D0%B4%D0%B5%D0%BD%D0%B8%D0%B5/x.jpg"}, out.calls[0].URLs)
}

func TestFailedAlbumDoesNotStopCaption(t *testing.T) {
	boom := errors.New("album rejected")
	out := &fakeMessenger{failOn: map[string]error{"sendMediaGroup": boom}}
	e := newEngine(t, out)

	err := e.HandleCallback(context.Background(), press("topic:5:7", nil))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"sendMediaGroup", "sendMediaGroup", "sendMediaGroup", "sendMessage"}, out.methods())
}

func TestToggleEditsKeyboardOnly(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)
	cat := testCatalogue(t)

	prior := TopicDetail(cat, "5", 14, DisplayState{TestsExpanded: true})
	require.NoError(t, e.HandleCallback(context.Background(), press("sources:5:14:open", prior)))

	require.Equal(t, []string{"editMessageReplyMarkup"}, out.methods())
	got := out.calls[0].Markup
	assert.True(t, hasToken(got, TestsToken("5", 14, ToggleClose)))
	assert.True(t, hasToken(got, SourcesToken("5", 14, ToggleClose)))
	assert.False(t, hasToken(got, TestsToken("5", 14, ToggleOpen)))
}

func TestCommandsAndFallback(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)
	reg := tg.NewRegistry()
	require.NoError(t, e.Register(reg))

	for _, action := range Actions {
		_, ok := reg.GetCallback(string(action))
		assert.True(t, ok, action)
	}
	_, start, ok := reg.LookupCommand("/start")
	require.True(t, ok)
	_, _, ok = reg.LookupCommand("/menu@topic_bot")
	require.True(t, ok)

	msg := tg.MessageEvent{Source: tg.Source{ChatID: 100, ChatType: tele.ChatPrivate, UserID: 100}, Text: "/start"}
	require.NoError(t, start.Handler(context.Background(), msg))
	require.NoError(t, reg.TextFallback()(context.Background(), msg))

	require.Len(t, out.calls, 2)
	assert.Equal(t, "Выбери класс:", out.calls[0].Text)
	assert.True(t, hasToken(out.calls[0].Markup, ClassToken("5")))
	assert.Equal(t, "Я работаю через кнопки. Нажми /menu", out.calls[1].Text)
	assert.Nil(t, out.calls[1].Markup)
}

func TestGuardGroupSwallowsPrivateFailure(t *testing.T) {
	out := &fakeMessenger{
		username: "topic_bot",
		failChat: map[int64]error{42: errors.New("bot was blocked by the user")},
	}
	e := newEngine(t, out)

	ev := tg.MessageEvent{Source: tg.Source{ChatID: -100500, ChatType: tele.ChatGroup, UserID: 42}, Text: "/menu"}
	require.NoError(t, e.GuardGroup(context.Background(), ev))

	require.Len(t, out.calls, 2)
	assert.Equal(t, int64(42), out.calls[0].ChatID)
	assert.Equal(t, "👋 Открой бота в личных сообщениях, чтобы меню было отдельно для тебя.", out.calls[0].Text)
	assert.Equal(t, int64(-100500), out.calls[1].ChatID)
	assert.Equal(t, texts(OpenBot("https://t.me/topic_bot")), texts(out.calls[0].Markup))
	assert.Equal(t, texts(OpenBot("https://t.me/topic_bot")), texts(out.calls[1].Markup))
}

func TestGuardGroupReportsNoticeFailure(t *testing.T) {
	boom := errors.New("not enough rights")
	out := &fakeMessenger{failChat: map[int64]error{-100500: boom}}
	e := newEngine(t, out)

	ev := tg.MessageEvent{Source: tg.Source{ChatID: -100500, ChatType: tele.ChatGroup, UserID: 42}}
	require.ErrorIs(t, e.GuardGroup(context.Background(), ev), boom)
}

func TestGuardGroupWithoutUsername(t *testing.T) {
	out := &fakeMessenger{}
	e := newEngine(t, out)

	ev := tg.CallbackEvent{Source: tg.Source{ChatID: -1, ChatType: tele.ChatSuperGroup, UserID: 42}, Data: "menu"}
	require.NoError(t, e.GuardGroup(context.Background(), ev))
	require.Len(t, out.calls, 2)
	assert.Nil(t, out.calls[0].Markup)
	assert.Contains(t, out.calls[1].Text, "В группах меню общее")
}
