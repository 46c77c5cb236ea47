package survey

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/google/uuid"

	"github.com/ranggaxyy/deplot-bot/core/logger"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
	"github.com/ranggaxyy/deplot-bot/internal/session"
)

const component = "engine.survey"

// MaxNameRunes bounds accepted names.
const MaxNameRunes = 64

// Options wires an Engine. Repository is required.
type Options struct {
	Repository Repository
	Sessions   *session.Store[State]
	Recorder   Recorder
	MinAge     int
	MaxAge     int
	Now        func() time.Time
	NewID      func() string
}

// Engine drives the survey form for every user.
type Engine struct {
	repo     Repository
	sessions *session.Store[State]
	rec      Recorder
	minAge   int
	maxAge   int
	now      func() time.Time
	newID    func() string

	locks conversation.KeyedMutex
}

var _ conversation.Engine = (*Engine)(nil)

// New builds an Engine. Age bounds default to 1..120.
func New(opts Options) (*Engine, error) {
	if opts.Repository == nil {
		return nil, fmt.Errorf("survey: repository is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = session.New(session.Options[State]{Default: Idle})
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.MinAge <= 0 {
		opts.MinAge = 1
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 120
	}
	if opts.MinAge > opts.MaxAge {
		return nil, fmt.Errorf("survey: min age %d exceeds max age %d", opts.MinAge, opts.MaxAge)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		repo:     opts.Repository,
		sessions: opts.Sessions,
		rec:      opts.Recorder,
		minAge:   opts.MinAge,
		maxAge:   opts.MaxAge,
		now:      opts.Now,
		newID:    opts.NewID,
	}, nil
}

// State returns the user's current form state.
func (e *Engine) State(userID int64) State {
	return e.sessions.Get(userID)
}

// Sessions exposes the store so the app can sweep abandoned forms.
func (e *Engine) Sessions() *session.Store[State] {
	return e.sessions
}

// Repository returns the submission store.
func (e *Engine) Repository() Repository {
	return e.repo
}

// Handle runs one transition for ev.UserID.
func (e *Engine) Handle(ctx context.Context, ev conversation.Event) []conversation.OutgoingMessage {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	ctx = logger.WithUser(ctx, ev.UserID)
	cur := e.sessions.Get(ev.UserID)
	next, out, err := e.transition(ctx, cur, ev)
	if next.Step == StepIdle {
		e.sessions.Clear(ev.UserID)
	} else {
		e.sessions.Set(ev.UserID, next)
	}
	if err != nil {
		logger.Debug(ctx, component, "transition.rejected",
			slog.String("step", string(cur.Step)),
			slog.String("kind", ev.Kind.String()),
			slog.String("err_code", conversation.ErrorCode(err)),
			slog.String("err", err.Error()),
		)
	}
	return out
}

func (e *Engine) transition(ctx context.Context, st State, ev conversation.Event) (State, []conversation.OutgoingMessage, error) {
	if ev.Kind == conversation.KindButton {
		return e.onButton(ctx, st, ev)
	}

	if cmd, ok := ev.Command(); ok {
		switch cmd {
		case conversation.CmdStart:
			e.rec.FormStarted()
			logger.Info(ctx, component, "survey.start", slog.String("step", string(st.Step)))
			return State{Step: StepAskName}, reply(msgAskName, conversation.KeyboardNone), nil
		case conversation.CmdCancel, conversation.CmdMenu:
			if st.Step != StepIdle {
				logger.Info(ctx, component, "survey.cancel", slog.String("step", string(st.Step)))
			}
			return Idle(), reply(msgCancelled, conversation.KeyboardNone), nil
		case conversation.CmdHelp:
			return st, reply(msgHelp, stepKeyboard(st)), nil
		}
		return st, reply(msgNotUnderstood, stepKeyboard(st)),
			fmt.Errorf("%w: command %s in %s", conversation.ErrInvalidTransition, cmd, st.Step)
	}

	switch st.Step {
	case StepAskName:
		name, ok := cleanName(ev.Text)
		if !ok {
			e.rec.InputRejected(st.Step)
			return st, reply(msgNameInvalid, conversation.KeyboardNone),
				fmt.Errorf("%w: name", conversation.ErrMalformedInput)
		}
		return State{Step: StepAskAge, Name: name}, reply(askAgeText(name), conversation.KeyboardNone), nil
	case StepAskAge:
		age, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		if err != nil || age < e.minAge || age > e.maxAge {
			e.rec.InputRejected(st.Step)
			return st, reply(ageInvalidText(e.minAge, e.maxAge), conversation.KeyboardNone),
				fmt.Errorf("%w: age %q", conversation.ErrMalformedInput, logger.SanitizeLimit(ev.Text, 32))
		}
		st.Step, st.Age = StepAskGender, age
		return st, reply(msgAskGender, conversation.KeyboardGenderChoice), nil
	case StepAskGender:
		return st, reply(msgGenderButtons, conversation.KeyboardGenderChoice), nil
	default:
		return Idle(), reply(msgIdleHint, conversation.KeyboardNone), nil
	}
}

func (e *Engine) onButton(ctx context.Context, st State, ev conversation.Event) (State, []conversation.OutgoingMessage, error) {
	name, payload := ev.ButtonTag()
	switch name {
	case conversation.TagHelp:
		return st, reply(msgHelp, stepKeyboard(st)), nil
	case conversation.TagGender:
		gender, ok := ParseGender(payload)
		if st.Step == StepAskGender && ok {
			return e.submit(ctx, ev.UserID, st, gender)
		}
	}
	return st, reply(msgNotUnderstood, stepKeyboard(st)),
		fmt.Errorf("%w: button %q in %s", conversation.ErrInvalidTransition, ev.Tag, st.Step)
}

// submit saves the form and always ends it, even when the write fails.
func (e *Engine) submit(ctx context.Context, userID int64, st State, gender Gender) (State, []conversation.OutgoingMessage, error) {
	sub := Submission{
		ID:        e.newID(),
		UserID:    userID,
		Name:      st.Name,
		Age:       st.Age,
		Gender:    gender,
		CreatedAt: e.now(),
	}
	start := time.Now()
	err := e.repo.Save(ctx, sub)
	e.rec.SubmissionSaved(err)
	if err != nil {
		logger.Error(ctx, component, "survey.saved",
			slog.String("status", "fail"),
			slog.String("submission_id", sub.ID),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return Idle(), reply(msgSaveFailed, conversation.KeyboardNone), nil
	}
	logger.Info(ctx, component, "survey.saved",
		slog.String("status", "ok"),
		slog.String("submission_id", sub.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return Idle(), reply(summaryText(sub), conversation.KeyboardNone), nil
}

// cleanName strips emoji and collapses whitespace.
func cleanName(text string) (string, bool) {
	name := strings.Join(strings.Fields(gomoji.RemoveEmojis(text)), " ")
	if name == "" || utf8.RuneCountInString(name) > MaxNameRunes {
		return "", false
	}
	return name, true
}

func stepKeyboard(st State) conversation.KeyboardHint {
	if st.Step == StepAskGender {
		return conversation.KeyboardGenderChoice
	}
	return conversation.KeyboardNone
}

func reply(text string, kb conversation.KeyboardHint) []conversation.OutgoingMessage {
	return []conversation.OutgoingMessage{conversation.Message(text, kb)}
}
