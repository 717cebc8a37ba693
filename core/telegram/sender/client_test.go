package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/topicbot/core/telegram"
)

const testToken = "123456:AAH-secret_token"

type apiCall struct {
	Method string
	Body   map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
	fail  map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: body})
	desc, failing := f.fail[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	msg := `{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}`
	switch {
	case failing:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"ok":false,"error_code":400,"description":%q}`, desc)
	case method == "answerCallbackQuery":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	case method == "sendPhoto":
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":2,"date":0,"chat":{"id":42,"type":"private"},"photo":[{"file_id":"f","file_unique_id":"u","width":1,"height":1}]}}`)
	case method == "sendMediaGroup":
		fmt.Fprintf(w, `{"ok":true,"result":[%s,%s]}`, msg, msg)
	default:
		fmt.Fprintf(w, `{"ok":true,"result":%s}`, msg)
	}
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

func newTestClient(t *testing.T, fail map[string]string) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{fail: fail}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tele.NewBot(tele.Settings{
		URL:     srv.URL,
		Token:   testToken,
		Offline: true,
		Client:  srv.Client(),
	})
	require.NoError(t, err)
	return New(bot), api
}

func TestClientIssuesCallsInOrder(t *testing.T) {
	client, api := newTestClient(t, nil)
	ctx, stats := tg.WithStats(context.Background())

	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{{Text: "home", Data: "menu"}}}}

	require.NoError(t, client.AnswerCallback(ctx, "cb-1"))
	require.NoError(t, client.SendAlbum(ctx, 42, []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}))
	require.NoError(t, client.SendPhoto(ctx, 42, "https://a.example/3.jpg"))
	require.NoError(t, client.SendText(ctx, 42, "caption", markup))

	assert.Equal(t, []string{"answerCallbackQuery", "sendMediaGroup", "sendPhoto", "sendMessage"}, api.methods())

	last := api.calls[len(api.calls)-1]
	assert.Equal(t, "caption", last.Body["text"])
	assert.Contains(t, fmt.Sprint(last.Body["reply_markup"]), "menu")

	msgs, kb, calls, failures, _ := stats.Snapshot()
	assert.Equal(t, 3, msgs)
	assert.True(t, kb)
	assert.Equal(t, 4, calls)
	assert.Zero(t, failures)
}

func TestClientFailureIsClassifiedAndRedacted(t *testing.T) {
	client, api := newTestClient(t, map[string]string{"sendMessage": "Bad Request: chat not found"})
	ctx, stats := tg.WithStats(context.Background())

	err := client.SendText(ctx, 42, "hello", nil)
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "sendMessage", sendErr.Method)
	assert.Equal(t, "http_4xx", sendErr.Kind)
	assert.False(t, sendErr.Retryable)
	assert.NotContains(t, err.Error(), "AAH-secret_token")

	// Later calls of the same event still go out.
	require.NoError(t, client.SendPhoto(ctx, 42, "https://a.example/1.jpg"))
	assert.Equal(t, []string{"sendMessage", "sendPhoto"}, api.methods())

	msgs, _, calls, failures, _ := stats.Snapshot()
	assert.Equal(t, 1, msgs)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, failures)
}

func TestClientTreatsNotModifiedAsSuccess(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"editMessageReplyMarkup": "Bad Request: message is not modified: specified new message content and reply markup are exactly the same",
	})
	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{{Text: "home", Data: "menu"}}}}
	assert.NoError(t, client.EditKeyboard(context.Background(), 42, 7, markup))
}

func TestClientTransportErrorIsRedacted(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	url := srv.URL
	srv.Close()

	bot, err := tele.NewBot(tele.Settings{URL: url, Token: testToken, Offline: true})
	require.NoError(t, err)

	err = New(bot).SendText(context.Background(), 1, "x", nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "AAH-secret_token")
	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "dial", sendErr.Kind)
	assert.True(t, sendErr.Retryable)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), "timeout"},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{"dns timeout", &net.DNSError{IsTimeout: true}, "timeout"},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, "dial"},
		{"api 4xx", errors.New("telegram: Bad Request: odd (400)"), "http_4xx"},
		{"api 5xx", errors.New("telegram: Bad Gateway (502)"), "http_5xx"},
		{"flood", errors.New("telegram: Too Many Requests (429)"), "flood"},
		{"other", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAH-x_y/sendMessage": EOF`)
	got := sanitizeErrorMessage(err)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, got)
	assert.False(t, strings.Contains(got, "AAH"))
}
