package conversation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// EventKind tells text messages apart from inline button presses.
type EventKind int

const (
	// KindText is a plain text message, commands included.
	KindText EventKind = iota
	// KindButton is an inline keyboard press identified by its tag.
	KindButton
)

// String implements fmt.Stringer for logs.
func (k EventKind) String() string {
	if k == KindButton {
		return "button"
	}
	return "text"
}

// Event is one inbound update already stripped of transport details.
type Event struct {
	UserID    int64
	ChatID    int64
	Kind      EventKind
	Text      string
	Tag       string
	Timestamp time.Time
}

// TextEvent builds a text event stamped with now.
func TextEvent(userID int64, text string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: KindText, Text: text, Timestamp: time.Now()}
}

// ButtonEvent builds a button event stamped with now.
func ButtonEvent(userID int64, tag string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: KindButton, Tag: tag, Timestamp: time.Now()}
}

// Command returns the lowercased command name ("/start") when the text is a
// command, dropping any "@botname" suffix and arguments.
func (e Event) Command() (string, bool) {
	if e.Kind != KindText {
		return "", false
	}
	text := strings.TrimSpace(e.Text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), true
}

// ButtonTag splits a "name:payload" tag.
func (e Event) ButtonTag() (name, payload string) {
	name, payload, _ = strings.Cut(e.Tag, ":")
	return name, payload
}

// KeyboardHint names the keyboard the transport should attach; rendering is
// entirely the transport's concern.
type KeyboardHint int

const (
	KeyboardNone KeyboardHint = iota
	KeyboardMainMenu
	KeyboardBackToMenu
	KeyboardGenderChoice
)

// String implements fmt.Stringer for logs.
func (k KeyboardHint) String() string {
	switch k {
	case KeyboardMainMenu:
		return "main_menu"
	case KeyboardBackToMenu:
		return "back_to_menu"
	case KeyboardGenderChoice:
		return "gender_choice"
	default:
		return "none"
	}
}

// OutgoingMessage is what an engine wants shown to the user. Text may carry
// HTML markup (<b>, <code>). Alert asks the transport to answer a button press
// with a popup instead of a chat message. Reply threads the message under the
// user's text; it is ignored for button presses.
type OutgoingMessage struct {
	Text     string
	Keyboard KeyboardHint
	Alert    bool
	Reply    bool
}

// Message is a shorthand constructor.
func Message(text string, kb KeyboardHint) OutgoingMessage {
	return OutgoingMessage{Text: text, Keyboard: kb}
}

// Engine consumes one event and returns the messages to render. Handle never
// fails: problems are logged and turned into user-facing text. State changes
// are committed before Handle returns, whether or not delivery succeeds.
type Engine interface {
	Handle(ctx context.Context, ev Event) []OutgoingMessage
}

// EngineFunc adapts a plain function to Engine.
type EngineFunc func(ctx context.Context, ev Event) []OutgoingMessage

// Handle calls f.
func (f EngineFunc) Handle(ctx context.Context, ev Event) []OutgoingMessage {
	return f(ctx, ev)
}

var (
	// ErrInvalidTransition marks an event that has no handler in the user's current state.
	ErrInvalidTransition = errors.New("conversation: invalid transition")
	// ErrMalformedInput marks input that could not be parsed; the step is re-prompted.
	ErrMalformedInput = errors.New("conversation: malformed input")
	// ErrRateLimited marks a game start rejected by a guard.
	ErrRateLimited = errors.New("conversation: rate limited")
)

// ErrorCode maps the sentinel errors to stable log codes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrMalformedInput):
		return "MALFORMED_INPUT"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	default:
		return "INTERNAL"
	}
}
