package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/ranggaxyy/deplot-bot/core/logger"
	"github.com/ranggaxyy/deplot-bot/core/telegram/format"
	"github.com/ranggaxyy/deplot-bot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by the helpers. Nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendHTML sends text with the HTML parse mode and an optional markup.
func SendHTML(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
	return sendAsync(c, "send.html", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// ReplyHTML sends text as a reply to the current message. Updates without a
// message fall back to a plain send.
func ReplyHTML(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Message() == nil {
		return SendHTML(c, text, markup)
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
	return sendAsync(c, "reply.html", "sendMessage", func() error {
		return c.Reply(text, opts)
	})
}

// RespondAlert answers the current callback with a popup. Markup is
// stripped since alerts render plain text only.
func RespondAlert(c tele.Context, text string) error {
	resp := &tele.CallbackResponse{Text: format.AlertText(text), ShowAlert: true}
	return sendAsync(c, "respond.alert", "answerCallbackQuery", func() error {
		return c.Respond(resp)
	})
}

// Acknowledge stops the loading spinner of the current callback.
func Acknowledge(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return sendAsync(c, "respond.ack", "answerCallbackQuery", func() error {
		return c.Respond()
	})
}
