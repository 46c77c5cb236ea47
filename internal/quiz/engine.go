package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ranggaxyy/deplot-bot/core/logger"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
	"github.com/ranggaxyy/deplot-bot/internal/questions"
	"github.com/ranggaxyy/deplot-bot/internal/ratelimit"
	"github.com/ranggaxyy/deplot-bot/internal/session"
)

const component = "engine.quiz"

// Options wires an Engine. Bank and Limiter are required.
type Options struct {
	Bank     *questions.Bank
	Limiter  *ratelimit.Limiter
	Sessions *session.Store[State]
	Recorder Recorder
	// Difficulty restricts question selection; 0 draws from the whole category.
	Difficulty int
}

// Engine is the quiz state machine. It owns its session store and limiter;
// no other component writes them.
type Engine struct {
	bank       *questions.Bank
	limiter    *ratelimit.Limiter
	sessions   *session.Store[State]
	rec        Recorder
	difficulty int

	locks conversation.KeyedMutex
}

var _ conversation.Engine = (*Engine)(nil)

// New builds an Engine. A nil Sessions gets a store without eviction.
func New(opts Options) (*Engine, error) {
	if opts.Bank == nil || opts.Limiter == nil {
		return nil, fmt.Errorf("quiz: bank and limiter are required")
	}
	if opts.Sessions == nil {
		opts.Sessions = session.New(session.Options[State]{Default: MainMenu})
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Engine{
		bank:       opts.Bank,
		limiter:    opts.Limiter,
		sessions:   opts.Sessions,
		rec:        opts.Recorder,
		difficulty: opts.Difficulty,
	}, nil
}

// State returns the user's current state.
func (e *Engine) State(userID int64) State {
	return e.sessions.Get(userID)
}

// Sessions exposes the store so the app can sweep idle games.
func (e *Engine) Sessions() *session.Store[State] {
	return e.sessions
}

// Limiter exposes the guards for pruning.
func (e *Engine) Limiter() *ratelimit.Limiter {
	return e.limiter
}

// ClearToMainMenu drops any active game for the user and reports whether
// there was one. Limiter counters are left alone.
func (e *Engine) ClearToMainMenu(ctx context.Context, userID int64) bool {
	unlock := e.locks.Lock(userID)
	defer unlock()
	st := e.sessions.Get(userID)
	e.abandon(logger.WithUser(ctx, userID), st)
	e.sessions.Clear(userID)
	return st.Kind == KindActiveGame
}

// Handle runs one transition for ev.UserID. Transitions for the same user are
// serialized; the new state is stored before the messages are returned.
func (e *Engine) Handle(ctx context.Context, ev conversation.Event) []conversation.OutgoingMessage {
	unlock := e.locks.Lock(ev.UserID)
	defer unlock()

	ctx = logger.WithUser(ctx, ev.UserID)
	cur := e.sessions.Get(ev.UserID)
	next, out, err := e.transition(ctx, cur, ev)
	if next.Kind == KindMainMenu {
		e.sessions.Clear(ev.UserID)
	} else {
		e.sessions.Set(ev.UserID, next)
	}
	if err != nil {
		logger.Debug(ctx, component, "transition.rejected",
			slog.String("state", cur.Kind.String()),
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
			e.abandon(ctx, st)
			return MainMenu(), reply(msgWelcome, conversation.KeyboardMainMenu), nil
		case conversation.CmdMenu, conversation.CmdCancel:
			return e.backToMenu(ctx, st)
		case conversation.CmdHelp:
			return st, reply(helpText(e.limitsView()), menuKeyboard(st)), nil
		case conversation.CmdStats:
			return st, reply(e.statsText(ev.UserID), menuKeyboard(st)), nil
		}
		if st.Kind != KindActiveGame {
			return st, reply(msgNotUnderstood, conversation.KeyboardMainMenu),
				fmt.Errorf("%w: command %s", conversation.ErrInvalidTransition, cmd)
		}
	}

	if isMenuLabel(ev.Text) {
		return e.backToMenu(ctx, st)
	}

	switch st.Kind {
	case KindActiveGame:
		return e.answer(ctx, st, ev.Text)
	default:
		cat, ok := matchCategory(ev.Text)
		if !ok || !e.bank.Has(cat) {
			return st, reply(msgNotUnderstood, conversation.KeyboardMainMenu),
				fmt.Errorf("%w: text in main menu", conversation.ErrInvalidTransition)
		}
		return e.startGame(ctx, ev.UserID, cat)
	}
}

func (e *Engine) onButton(ctx context.Context, st State, ev conversation.Event) (State, []conversation.OutgoingMessage, error) {
	name, payload := ev.ButtonTag()
	switch name {
	case conversation.TagMenu:
		return e.backToMenu(ctx, st)
	case conversation.TagHelp:
		return st, reply(helpText(e.limitsView()), menuKeyboard(st)), nil
	case conversation.TagStats:
		return st, reply(e.statsText(ev.UserID), menuKeyboard(st)), nil
	case conversation.TagCategory:
		cat := questions.Category(payload)
		if st.Kind == KindMainMenu && e.bank.Has(cat) {
			return e.startGame(ctx, ev.UserID, cat)
		}
	}
	return st, reply(msgNotUnderstood, menuKeyboard(st)),
		fmt.Errorf("%w: button %q in %s", conversation.ErrInvalidTransition, ev.Tag, st.Kind)
}

// startGame applies the guards in order: cooldown, daily cap, consecutive cap.
// A rejected start leaves the user in the main menu with nothing recorded
// beyond what the guards themselves stamp.
func (e *Engine) startGame(ctx context.Context, userID int64, cat questions.Category) (State, []conversation.OutgoingMessage, error) {
	opts := e.limiter.Options()
	if !e.limiter.CheckCooldown(userID) {
		return e.reject(ctx, cat, ratelimit.ReasonCooldown, cooldownText(opts.Cooldown))
	}
	if !e.limiter.CanStartGame(userID) {
		return e.reject(ctx, cat, ratelimit.ReasonDailyLimit, dailyLimitText(opts.MaxDailyGames))
	}
	if !e.limiter.CheckConsecutive(userID, string(cat)) {
		return e.reject(ctx, cat, ratelimit.ReasonConsecutive, msgConsecutive)
	}

	e.limiter.RecordGameStart(userID)
	q, err := e.bank.Select(cat, e.difficulty)
	if err != nil {
		logger.Error(ctx, component, "game.start",
			slog.String("status", "fail"),
			slog.String("category", string(cat)),
			slog.String("err", err.Error()),
		)
		return MainMenu(), reply(msgNoQuestion, conversation.KeyboardMainMenu), nil
	}

	e.rec.GameStarted(string(cat))
	logger.Info(ctx, component, "game.start",
		slog.String("status", "ok"),
		slog.String("category", string(cat)),
		slog.Int("difficulty", q.Difficulty),
		slog.Int("games_today", e.limiter.GamesToday(userID)),
	)
	return ActiveGame(q), reply(questionText(q), conversation.KeyboardBackToMenu), nil
}

func (e *Engine) reject(ctx context.Context, cat questions.Category, reason ratelimit.Reason, text string) (State, []conversation.OutgoingMessage, error) {
	e.rec.GuardRejected(reason)
	logger.Info(ctx, component, "guard.rejected",
		slog.String("status", "rate_limited"),
		slog.String("category", string(cat)),
		slog.String("reason", string(reason)),
	)
	return MainMenu(), reply(text, conversation.KeyboardMainMenu),
		fmt.Errorf("%w: %s", conversation.ErrRateLimited, reason)
}

func (e *Engine) answer(ctx context.Context, st State, text string) (State, []conversation.OutgoingMessage, error) {
	st.Attempts++
	correct := normalizeAnswer(text) == normalizeAnswer(st.Question.Answer)

	var (
		next    State
		msg     conversation.OutgoingMessage
		outcome string
	)
	switch {
	case correct:
		next, outcome = MainMenu(), OutcomeSolved
		msg = conversation.Message(solvedText(st.Question, st.Attempts), conversation.KeyboardMainMenu)
	case st.Attempts >= MaxAttempts:
		next, outcome = MainMenu(), OutcomeExhausted
		msg = conversation.Message(exhaustedText(st.Question), conversation.KeyboardMainMenu)
	default:
		next, outcome = st, OutcomeWrong
		msg = conversation.Message(wrongText(st.AttemptsLeft()), conversation.KeyboardBackToMenu)
	}

	e.rec.AnswerGraded(string(st.Category), outcome, st.Attempts)
	logger.Info(ctx, component, "game.answer",
		slog.String("category", string(st.Category)),
		slog.Int("attempts", st.Attempts),
		slog.String("outcome", outcome),
	)
	return next, []conversation.OutgoingMessage{msg}, nil
}

// backToMenu is valid from any state and always answers with the same text.
func (e *Engine) backToMenu(ctx context.Context, st State) (State, []conversation.OutgoingMessage, error) {
	e.abandon(ctx, st)
	return MainMenu(), reply(msgBackToMenu, conversation.KeyboardMainMenu), nil
}

func (e *Engine) abandon(ctx context.Context, st State) {
	if st.Kind != KindActiveGame {
		return
	}
	e.rec.GameAbandoned(string(st.Category))
	logger.Info(ctx, component, "game.abandon",
		slog.String("category", string(st.Category)),
		slog.Int("attempts", st.Attempts),
	)
}

func (e *Engine) statsText(userID int64) string {
	return statsText(e.limiter.GamesToday(userID), e.limiter.Options().MaxDailyGames)
}

func (e *Engine) limitsView() limitsView {
	opts := e.limiter.Options()
	return limitsView{daily: opts.MaxDailyGames, cooldownSeconds: int(opts.Cooldown.Seconds())}
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func menuKeyboard(st State) conversation.KeyboardHint {
	if st.Kind == KindActiveGame {
		return conversation.KeyboardBackToMenu
	}
	return conversation.KeyboardMainMenu
}

func reply(text string, kb conversation.KeyboardHint) []conversation.OutgoingMessage {
	return []conversation.OutgoingMessage{conversation.Message(text, kb)}
}
