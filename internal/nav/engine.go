package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/topicbot/core/logger"
	tg "github.com/m3rciful/topicbot/core/telegram"
)

const (
	textMenu        = "Выбери класс:"
	textClassChosen = "Выбранный класс: %s\nВыбери тему:"
	textNoTopic     = "Такой темы нет."
	textNoImages    = "Картинок не найдено: assets/%s/%s/"
	textCaption     = "📌 %s класс — %s"
	textButtonsOnly = "Я работаю через кнопки. Нажми /menu"
	textOpenPrivate = "👋 Открой бота в личных сообщениях, чтобы меню было отдельно для тебя."
	textGroupNotice = "⚠️ В группах меню общее на всех. Напиши боту в личку (/start), чтобы всё работало отдельно для каждого."
)

// Messenger is the outbound side of the Bot API used by the engine.
type Messenger interface {
	BotUsername() string
	SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error
	EditKeyboard(ctx context.Context, chatID int64, messageID int, markup *tele.ReplyMarkup) error
	SendPhoto(ctx context.Context, chatID int64, photoURL string) error
	SendAlbum(ctx context.Context, chatID int64, photoURLs []string) error
}

// Options configures an Engine.
type Options struct {
	Catalogue Catalogue
	Messenger Messenger
	// Origin is the public origin serving /assets. When empty the origin attached
	// to the request context is used.
	Origin string
}

// Engine turns navigation events into Bot API calls.
type Engine struct {
	cat    Catalogue
	out    Messenger
	origin string
}

// New returns an Engine. Catalogue and Messenger are required.
func New(opts Options) (*Engine, error) {
	if opts.Catalogue == nil {
		return nil, errors.New("nav: catalogue is required")
	}
	if opts.Messenger == nil {
		return nil, errors.New("nav: messenger is required")
	}
	return &Engine{cat: opts.Catalogue, out: opts.Messenger, origin: opts.Origin}, nil
}

// Register installs the engine's commands, callback actions and text fallback.
func (e *Engine) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", tg.Command{Handler: e.ShowMenu, Description: "Открыть меню"})
	reg.RegisterCommand("/menu", tg.Command{Handler: e.ShowMenu, Description: "Выбрать класс"})
	for _, action := range Actions {
		if err := reg.RegisterCallback(string(action), e.HandleCallback); err != nil {
			return err
		}
	}
	reg.SetTextFallback(e.ButtonsOnly)
	return nil
}

// ShowMenu sends a fresh class picker.
func (e *Engine) ShowMenu(ctx context.Context, ev tg.Event) error {
	return e.out.SendText(ctx, ev.EventSource().ChatID, textMenu, ClassPicker(e.cat, ""))
}

// ButtonsOnly answers free text with a pointer to /menu.
func (e *Engine) ButtonsOnly(ctx context.Context, ev tg.Event) error {
	return e.out.SendText(ctx, ev.EventSource().ChatID, textButtonsOnly, nil)
}

// HandleCallback applies a navigation token to the message it was pressed on.
// Malformed tokens and unknown classes are acknowledged upstream and ignored here.
func (e *Engine) HandleCallback(ctx context.Context, ev tg.Event) error {
	cb, ok := ev.(tg.CallbackEvent)
	if !ok || !cb.HasMessage {
		tg.MarkOutcome(ctx, "noop")
		return nil
	}
	tok, err := ParseToken(cb.Data)
	if err != nil {
		tg.MarkOutcome(ctx, "noop")
		logger.LogEvent(ctx, logger.NAV, slog.LevelDebug, "token.malformed",
			slog.String("token", logger.SanitizeLimit(cb.Data, 64)))
		return nil
	}

	screen := Next(e.cat, tok, cb.Markup)
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.NAV, slog.LevelDebug, "transition",
			slog.String("action", string(tok.Action)),
			slog.String("screen", screen.Kind.String()),
			slog.String("class", screen.Class),
			slog.Int("topic", screen.Topic),
			slog.Bool("tests_expanded", screen.State.TestsExpanded),
			slog.Bool("sources_expanded", screen.State.SourcesExpanded),
		)
	}

	chatID := cb.ChatID
	switch screen.Kind {
	case ScreenHome:
		return e.out.EditText(ctx, chatID, cb.MessageID, textMenu, ClassPicker(e.cat, ""))
	case ScreenClass:
		return e.out.EditText(ctx, chatID, cb.MessageID,
			fmt.Sprintf(textClassChosen, screen.Class), TopicPicker(e.cat, screen.Class))
	case ScreenTopic:
		return e.renderTopic(ctx, chatID, screen.Class, screen.Topic)
	case ScreenToggle:
		return e.out.EditKeyboard(ctx, chatID, cb.MessageID,
			TopicDetail(e.cat, screen.Class, screen.Topic, screen.State))
	default:
		tg.MarkOutcome(ctx, "noop")
		logger.LogEvent(ctx, logger.NAV, slog.LevelDebug, "class.unknown",
			slog.String("class", logger.SanitizeLimit(tok.Class, 32)))
		return nil
	}
}

// renderTopic sends the topic images in albums of at most MaxAlbumSize, then the
// caption with the topic keyboard. A failed send does not stop the later ones.
func (e *Engine) renderTopic(ctx context.Context, chatID int64, class string, num int) error {
	topic, ok := e.cat.Topic(class, num)
	if !ok {
		return e.out.SendText(ctx, chatID, textNoTopic, HomeOnly())
	}
	markup := TopicDetail(e.cat, class, num, DisplayState{})
	if len(topic.Images) == 0 {
		return e.out.SendText(ctx, chatID, fmt.Sprintf(textNoImages, class, topic.Folder), markup)
	}

	origin := e.origin
	if origin == "" {
		origin = tg.OriginFrom(ctx)
	}
	var errs []error
	chunks := Chunk(topic.Images, MaxAlbumSize)
	for _, chunk := range chunks {
		urls := make([]string, len(chunk))
		for i, file := range chunk {
			urls[i] = AssetURL(origin, class, topic.Folder, file)
		}
		if len(urls) == 1 {
			errs = append(errs, e.out.SendPhoto(ctx, chatID, urls[0]))
		} else {
			errs = append(errs, e.out.SendAlbum(ctx, chatID, urls))
		}
	}
	errs = append(errs, e.out.SendText(ctx, chatID, fmt.Sprintf(textCaption, class, topic.Label()), markup))

	logger.LogEvent(ctx, logger.NAV, slog.LevelInfo, "topic.render",
		slog.String("class", class),
		slog.Int("topic", num),
		slog.Int("images", len(topic.Images)),
		slog.Int("chunks", len(chunks)),
	)
	return errors.Join(errs...)
}

// GuardGroup answers events from group chats. It invites the user to a private
// chat, which may fail when the user never started the bot, and then posts a
// notice in the group.
func (e *Engine) GuardGroup(ctx context.Context, ev tg.Event) error {
	src := ev.EventSource()
	var markup *tele.ReplyMarkup
	if username := e.out.BotUsername(); username != "" {
		markup = OpenBot("https://t.me/" + username)
	}
	if src.UserID != 0 {
		if err := e.out.SendText(ctx, src.UserID, textOpenPrivate, markup); err != nil {
			logger.LogEvent(ctx, logger.NAV, slog.LevelDebug, "guard.dm_failed",
				slog.String("err", logger.SanitizeLimit(err.Error(), 200)))
		}
	}
	if src.ChatID == 0 {
		return nil
	}
	return e.out.SendText(ctx, src.ChatID, textGroupNotice, markup)
}
