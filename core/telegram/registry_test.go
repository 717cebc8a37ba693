package telegram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, Event) error { return nil }
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start", Aliases: []string{"begin"}})
	reg.RegisterCommand("/menu", Command{Handler: noop, Description: "Menu"})
	reg.RegisterCommand("/hidden", Command{Handler: noop, Description: "Hidden", Hidden: true})
	reg.RegisterCommand("broken", Command{Handler: noop, Description: "no slash"})

	for _, text := range []string{"/start", "/start payload", "/START", "/start@topic_bot", "/begin"} {
		key, _, ok := reg.LookupCommand(text)
		assert.True(t, ok, text)
		assert.Equal(t, "/start", key, text)
	}
	for _, text := range []string{"", "start", "hello /start", "/unknown"} {
		_, _, ok := reg.LookupCommand(text)
		assert.False(t, ok, text)
	}

	visible := reg.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "menu", visible[0].Text)
	assert.Equal(t, "start", visible[1].Text)
	assert.Len(t, reg.ListCommands(false), 3)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, Event) error { return nil }
	require.NoError(t, reg.RegisterCallback("topic", noop))
	assert.Error(t, reg.RegisterCallback("topic", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("topic")
	assert.True(t, ok)
	_, ok = reg.GetCallback("tests")
	assert.False(t, ok)
	assert.Equal(t, []string{"topic"}, reg.ListCallbacks())
	assert.NotNil(t, reg.CallbackNotFound())
}

func TestCallbackAction(t *testing.T) {
	assert.Equal(t, "menu", CallbackAction("menu"))
	assert.Equal(t, "back-to-topics", CallbackAction("back-to-topics:5"))
	assert.Equal(t, "tests", CallbackAction("tests:5:14:open"))
	assert.Equal(t, "", CallbackAction(""))
}

func TestChainOrder(t *testing.T) {
	var trace []string
	mw := func(name string) MiddlewareFunc {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, ev Event) error {
				trace = append(trace, name)
				return next(ctx, ev)
			}
		}
	}
	h := Chain(func(context.Context, Event) error {
		trace = append(trace, "handler")
		return nil
	}, mw("outer"), nil, mw("inner"))
	require.NoError(t, h(context.Background(), IgnoredEvent{}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}
