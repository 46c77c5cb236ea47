// Package adapter bridges telebot updates and conversation engines: it turns
// a tele.Context into a conversation.Event, runs the engine, and renders the
// returned messages with inline keyboards.
package adapter

import (
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/ranggaxyy/deplot-bot/core/logger"
	tg "github.com/ranggaxyy/deplot-bot/core/telegram"
	"github.com/ranggaxyy/deplot-bot/core/telegram/callbacks"
	"github.com/ranggaxyy/deplot-bot/core/telegram/commands"
	tghelpers "github.com/ranggaxyy/deplot-bot/core/telegram/helpers"
	"github.com/ranggaxyy/deplot-bot/core/telegram/keyboard"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
)

// Command is a slash command forwarded to the engine.
type Command struct {
	Name        string
	Description string
	Hidden      bool
}

// Options configures an Adapter.
type Options struct {
	Engine conversation.Engine
	// MenuButtons are the entries of the main menu keyboard, laid out two per row.
	MenuButtons []keyboard.InlineBtn
	// Commands are registered with the registry and routed to the engine.
	Commands []Command
	// Now stamps events; nil means time.Now.
	Now func() time.Time
}

// Adapter is the telebot handler shared by every engine.
type Adapter struct {
	engine   conversation.Engine
	menu     []keyboard.InlineBtn
	commands []Command
	now      func() time.Time
}

// New validates opts and returns an Adapter.
func New(opts Options) (*Adapter, error) {
	if opts.Engine == nil {
		return nil, errors.New("adapter: nil engine")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Adapter{
		engine:   opts.Engine,
		menu:     opts.MenuButtons,
		commands: opts.Commands,
		now:      now,
	}, nil
}

// Register wires the engine commands, every known button key and both
// fallbacks into reg.
func (a *Adapter) Register(reg *tg.Registry) error {
	for _, cmd := range a.commands {
		err := reg.RegisterCommand(cmd.Name, commands.Command{
			Handler:     a.Handle,
			Description: cmd.Description,
			Hidden:      cmd.Hidden,
		})
		if err != nil {
			return err
		}
	}
	keys := []string{
		conversation.TagCategory,
		conversation.TagMenu,
		conversation.TagHelp,
		conversation.TagStats,
		conversation.TagGender,
	}
	for _, key := range keys {
		if err := reg.RegisterCallback(key, a.Handle); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(a.Handle)
	reg.SetTextFallback(a.Handle)
	return nil
}

// EventFrom maps a telebot update to a conversation event. Updates other
// than text messages and callback queries report false.
func EventFrom(c tele.Context, now time.Time) (conversation.Event, bool) {
	userID, chatID := tghelpers.IDs(c)
	if userID == 0 {
		return conversation.Event{}, false
	}
	if chatID == 0 {
		chatID = userID
	}
	var ev conversation.Event
	switch {
	case c.Callback() != nil:
		ev = conversation.ButtonEvent(userID, callbacks.Tag(c.Callback()))
	case c.Message() != nil && c.Message().Text != "":
		ev = conversation.TextEvent(userID, c.Message().Text)
	default:
		return conversation.Event{}, false
	}
	ev.ChatID = chatID
	ev.Timestamp = now
	return ev, true
}

// Handle runs the engine for the current update and renders its reply.
// Engine state is committed before any send, so delivery errors are only
// reported.
func (a *Adapter) Handle(c tele.Context) error {
	ev, ok := EventFrom(c, a.now())
	if !ok {
		return nil
	}
	ctx := logger.WithUser(tghelpers.BuildContext(c), ev.UserID)
	out := a.engine.Handle(ctx, ev)
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "tg", "engine.reply",
			slog.String("kind", ev.Kind.String()),
			slog.Int("messages", len(out)),
		)
	}
	return a.Render(c, out)
}

// Render delivers msgs. On a callback, an Alert message becomes the popup
// answer; otherwise the callback is acknowledged silently. Reply messages are
// threaded under the user's text.
func (a *Adapter) Render(c tele.Context, msgs []conversation.OutgoingMessage) error {
	isCallback := c.Callback() != nil
	answered := false
	var errs []error
	for _, m := range msgs {
		if m.Alert && isCallback && !answered {
			answered = true
			errs = append(errs, tghelpers.RespondAlert(c, m.Text))
			continue
		}
		if m.Text == "" {
			continue
		}
		markup := a.Keyboard(m.Keyboard)
		if m.Reply && !isCallback {
			errs = append(errs, tghelpers.ReplyHTML(c, m.Text, markup))
			continue
		}
		errs = append(errs, tghelpers.SendHTML(c, m.Text, markup))
	}
	if isCallback && !answered {
		errs = append(errs, tghelpers.Acknowledge(c))
	}
	return errors.Join(errs...)
}
