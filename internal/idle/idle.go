// Package idle answers every update with the same resting notice while the
// bot is switched off.
package idle

import (
	"context"
	"log/slog"

	"github.com/ranggaxyy/deplot-bot/core/logger"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
)

// DefaultResponse is sent when no custom text is configured.
const DefaultResponse = "😴 Bot lagi mode istirahat nih~ Sabar ya, nanti balik lagi!"

// Recorder counts replies by event kind.
type Recorder interface {
	Replied(kind string)
}

// Engine is stateless.
type Engine struct {
	text string
	rec  Recorder
}

var _ conversation.Engine = (*Engine)(nil)

// New returns an Engine replying with text, or DefaultResponse when empty.
func New(text string, rec Recorder) *Engine {
	if text == "" {
		text = DefaultResponse
	}
	return &Engine{text: text, rec: rec}
}

// Handle replies to text in-thread and shows button presses an alert.
func (e *Engine) Handle(ctx context.Context, ev conversation.Event) []conversation.OutgoingMessage {
	if e.rec != nil {
		e.rec.Replied(ev.Kind.String())
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(logger.WithUser(ctx, ev.UserID), "engine.idle", "idle.reply",
			slog.String("kind", ev.Kind.String()),
			slog.String("text", logger.SanitizeLimit(ev.Text, 64)),
		)
	}
	msg := conversation.OutgoingMessage{Text: e.text, Reply: true}
	if ev.Kind == conversation.KindButton {
		msg.Alert, msg.Reply = true, false
	}
	return []conversation.OutgoingMessage{msg}
}
