package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/topicbot/core/telegram"
	"github.com/m3rciful/topicbot/internal/catalogue"
	"github.com/m3rciful/topicbot/internal/nav"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	last  *tele.ReplyMarkup
}

func (r *recorder) add(s string, markup *tele.ReplyMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	if markup != nil {
		r.last = markup
	}
	return nil
}

func (r *recorder) BotUsername() string { return "topic_bot" }

func (r *recorder) AnswerCallback(_ context.Context, id string) error {
	return r.add("answerCallbackQuery:"+id, nil)
}

func (r *recorder) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	return r.add("sendMessage:"+firstLine(text), markup)
}

func (r *recorder) EditText(_ context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	return r.add("editMessageText:"+firstLine(text), markup)
}

func (r *recorder) EditKeyboard(_ context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error {
	return r.add("editMessageReplyMarkup", markup)
}

func (r *recorder) SendPhoto(_ context.Context, chatID int64, photoURL string) error {
	return r.add("sendPhoto:"+photoURL, nil)
}

func (r *recorder) SendAlbum(_ context.Context, chatID int64, photoURLs []string) error {
	return r.add("sendMediaGroup:"+strings.Join(photoURLs, ","), nil)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func testStore(t *testing.T) *catalogue.Store {
	t.Helper()
	store, err := catalogue.New(catalogue.Data{
		Classes: []string{"5"},
		Topics: map[string][]catalogue.Topic{
			"5": {{Num: 14, Title: "Органы", Folder: "14", Images: []string{"1.jpg"}}},
		},
		Tests: map[string][]catalogue.TestLink{
			"5|14": {
				{Label: "🟢 Базовая сложность", URL: "https://forms.example.org/b"},
				{Label: "🔴 Повышенная сложность", URL: "https://forms.example.org/a"},
			},
		},
	})
	require.NoError(t, err)
	return store
}

func newTestHandler(t *testing.T, out *recorder) tg.HandlerFunc {
	t.Helper()
	h, err := NewHandler(tg.NewRegistry(), testStore(t), out, "https://bot.example.org")
	require.NoError(t, err)
	return h
}

func privateSource() tg.Source {
	return tg.Source{UpdateID: 1, ChatID: 77, ChatType: tele.ChatPrivate, UserID: 77}
}

func TestPrivateSessionFlow(t *testing.T) {
	out := &recorder{}
	h := newTestHandler(t, out)
	ctx := context.Background()

	require.NoError(t, h(ctx, tg.MessageEvent{Source: privateSource(), Text: "/start"}))
	require.NoError(t, h(ctx, tg.CallbackEvent{Source: privateSource(), ID: "q1", Data: "class:5", HasMessage: true, MessageID: 9}))
	require.NoError(t, h(ctx, tg.CallbackEvent{Source: privateSource(), ID: "q2", Data: "topic:5:14", HasMessage: true, MessageID: 9}))
	caption := out.last
	require.NoError(t, h(ctx, tg.CallbackEvent{Source: privateSource(), ID: "q3", Data: "tests:5:14:open", HasMessage: true, MessageID: 10, Markup: caption}))
	require.NoError(t, h(ctx, tg.MessageEvent{Source: privateSource(), Text: "hello"}))

	assert.Equal(t, []string{
		"sendMessage:Выбери класс:",
		"answerCallbackQuery:q1",
		"editMessageText:Выбранный класс: 5",
		"answerCallbackQuery:q2",
		"sendPhoto:https://bot.example.org/assets/5/14/1.jpg",
		"sendMessage:📌 5 класс — Органы",
		"answerCallbackQuery:q3",
		"editMessageReplyMarkup",
		"sendMessage:Я работаю через кнопки. Нажми /menu",
	}, out.calls)
}

func TestGroupEventsAreGuarded(t *testing.T) {
	out := &recorder{}
	h := newTestHandler(t, out)
	group := tg.Source{UpdateID: 2, ChatID: -500, ChatType: tele.ChatSuperGroup, UserID: 77}

	require.NoError(t, h(context.Background(), tg.CallbackEvent{Source: group, ID: "q9", Data: "class:5", HasMessage: true, MessageID: 3}))

	require.Len(t, out.calls, 3)
	assert.Equal(t, "answerCallbackQuery:q9", out.calls[0])
	assert.True(t, strings.HasPrefix(out.calls[1], "sendMessage:👋"))
	assert.True(t, strings.HasPrefix(out.calls[2], "sendMessage:⚠️"))
	assert.Equal(t, nav.OpenBot("https://t.me/topic_bot"), out.last)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigCatalogueDefaults(t *testing.T) {
	t.Setenv("CATALOGUE_SOURCE", "")
	require.NoError(t, os.Unsetenv("CATALOGUE_SOURCE"))
	path := writeFile(t, t.TempDir(), "config.yaml", `
telegram:
  token: "1:x"
webhook:
  port: 8080
  secret_token: "s"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, cfg.Catalogue.Source)
	assert.Equal(t, "data/catalogue.json", cfg.Catalogue.Path)
	assert.False(t, cfg.UsesDatabase())
	assert.Equal(t, "1:x", cfg.CoreConfig().Telegram.Token)
}

func TestNormalizeConfig(t *testing.T) {
	base := func() Config {
		var cfg Config
		cfg.Telegram.Token = "1:x"
		cfg.Webhook.Port = 8080
		cfg.Webhook.SecretToken = "s"
		return cfg
	}

	cfg := base()
	cfg.Catalogue.Source = "Postgres"
	cfg.Database.Host = "db"
	cfg.Database.Name = "topics"
	require.NoError(t, NormalizeConfig(&cfg))
	assert.Equal(t, SourcePostgres, cfg.Catalogue.Source)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)

	cfg = base()
	cfg.Catalogue.Source = "postgres"
	require.ErrorContains(t, NormalizeConfig(&cfg), "database.url")

	cfg = base()
	cfg.Catalogue.Source = "redis"
	require.ErrorContains(t, NormalizeConfig(&cfg), "invalid catalogue.source")

	cfg = base()
	cfg.Catalogue.SeedFromFile = true
	require.ErrorContains(t, NormalizeConfig(&cfg), "seed_from_file")
}

func TestBootstrapFromFile(t *testing.T) {
	dir := t.TempDir()
	var buf strings.Builder
	require.NoError(t, catalogue.Encode(&buf, testStore(t).Data()))
	path := writeFile(t, dir, "catalogue.json", buf.String())

	cfg := &Config{Catalogue: CatalogueConfig{Source: SourceFile, Path: path}}
	a, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, []string{"5"}, a.Catalogue().Classes())
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Build)
	assert.Same(t, cfg.CoreConfig(), opts.Config)
}
