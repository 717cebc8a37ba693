package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/logger"
)

// HandlerFunc handles one parsed event.
type HandlerFunc func(ctx context.Context, ev Event) error

// MiddlewareFunc wraps a handler with cross-cutting behaviour.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     HandlerFunc
	Description string
	Hidden      bool
	Aliases     []string
}

// Registry holds bot commands and callback actions.
type Registry struct {
	commands         map[string]Command
	callbacks        map[string]HandlerFunc
	callbacksMu      sync.RWMutex
	callbackNotFound HandlerFunc
	textFallback     HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks are ignored by default.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]HandlerFunc),
		callbackNotFound: func(context.Context, Event) error {
			return nil
		},
	}
}

// RegisterCommand adds a new command.
func (r *Registry) RegisterCommand(name string, cmd Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu entries, optionally without hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves the command a message starts with. Arguments after the
// first word and a "@botname" suffix are ignored.
func (r *Registry) LookupCommand(text string) (string, Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", Command{}, false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// RegisterCallback binds a handler to a callback action, the first ':'-separated
// segment of the button payload.
func (r *Registry) RegisterCallback(action string, handler HandlerFunc) error {
	if r == nil || action == "" || handler == nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.callback.skip",
			slog.String("action", action),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[action]; exists {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.callback.duplicate",
			slog.String("action", action),
		)
		return fmt.Errorf("callback already registered: %s", action)
	}
	r.callbacks[action] = handler
	return nil
}

// GetCallback safely returns the handler bound to action.
func (r *Registry) GetCallback(action string) (HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[action]
	return h, ok
}

// ListCallbacks returns sorted actions (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() HandlerFunc {
	if r.callbackNotFound == nil {
		return func(context.Context, Event) error { return nil }
	}
	return r.callbackNotFound
}

// SetTextFallback sets the handler for messages that are not a known command.
func (r *Registry) SetTextFallback(h HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() HandlerFunc {
	return r.textFallback
}

// CallbackAction extracts the action part of a callback payload.
func CallbackAction(data string) string {
	action, _, _ := strings.Cut(data, ":")
	return strings.TrimSpace(action)
}

// InitBotCommands publishes the visible commands in the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	commands := reg.ListCommands(true)
	if len(commands) == 0 {
		return
	}
	if err := bot.SetCommands(commands); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "register.commands",
		slog.String("status", "ok"),
		slog.Int("commands", len(commands)),
	)
}
