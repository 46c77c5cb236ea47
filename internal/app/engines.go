package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
	"github.com/ranggaxyy/deplot-bot/core/telegram/adapter"
	"github.com/ranggaxyy/deplot-bot/core/telegram/keyboard"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
	"github.com/ranggaxyy/deplot-bot/internal/idle"
	"github.com/ranggaxyy/deplot-bot/internal/metrics"
	"github.com/ranggaxyy/deplot-bot/internal/questions"
	"github.com/ranggaxyy/deplot-bot/internal/quiz"
	"github.com/ranggaxyy/deplot-bot/internal/ratelimit"
	"github.com/ranggaxyy/deplot-bot/internal/session"
	"github.com/ranggaxyy/deplot-bot/internal/survey"
)

// bot is the engine selected by bot.mode plus the hooks the app needs
// around it.
type bot struct {
	engine   conversation.Engine
	menu     []keyboard.InlineBtn
	commands []adapter.Command
	// sessions reports live sessions; sweep evicts idle ones and prunes
	// limiter records, returning both counts.
	sessions func() int
	sweep    func() (evicted, pruned int)
	// repo is set in survey mode only.
	repo survey.Repository
	// reset ends a user's game; set in quiz mode only.
	reset func(ctx context.Context, userID int64) bool
}

func buildBot(cfg *coreconfig.Config, db *sqlx.DB, m *metrics.Metrics) (bot, error) {
	switch cfg.Bot.Mode {
	case coreconfig.BotModeQuiz:
		return buildQuiz(cfg, m)
	case coreconfig.BotModeSurvey:
		return buildSurvey(cfg, db, m)
	case coreconfig.BotModeIdle:
		return bot{
			engine:   idle.New(cfg.Bot.IdleText, m),
			commands: []adapter.Command{{Name: conversation.CmdStart, Description: "Mulai"}},
			sessions: func() int { return 0 },
			sweep:    func() (int, int) { return 0, 0 },
		}, nil
	}
	return bot{}, fmt.Errorf("app: unknown bot mode %q", cfg.Bot.Mode)
}

func buildQuiz(cfg *coreconfig.Config, m *metrics.Metrics) (bot, error) {
	limiter := ratelimit.New(ratelimit.Options{
		MaxDailyGames:          cfg.Game.MaxDailyGames,
		Cooldown:               time.Duration(cfg.Game.CooldownSeconds) * time.Second,
		MaxConsecutiveAttempts: cfg.Game.MaxConsecutiveAttempts,
		ConsecutiveWindow:      time.Duration(cfg.Game.ConsecutiveWindowSeconds) * time.Second,
		Location:               cfg.Game.Location(),
	})
	store := session.New(session.Options[quiz.State]{
		Default: quiz.MainMenu,
		IdleTTL: cfg.Session.IdleTTL(),
	})
	bank := questions.Default(nil)
	engine, err := quiz.New(quiz.Options{
		Bank:       bank,
		Limiter:    limiter,
		Sessions:   store,
		Recorder:   m,
		Difficulty: cfg.Game.Difficulty,
	})
	if err != nil {
		return bot{}, err
	}

	cats := bank.Categories()
	menu := make([]keyboard.InlineBtn, 0, len(cats))
	for _, c := range cats {
		menu = append(menu, adapter.CategoryButton(c.Emoji()+" "+c.Label(), string(c)))
	}
	return bot{
		engine: engine,
		menu:   menu,
		commands: []adapter.Command{
			{Name: conversation.CmdStart, Description: "Mulai dan buka menu"},
			{Name: conversation.CmdHelp, Description: "Cara bermain"},
			{Name: conversation.CmdStats, Description: "Statistik hari ini"},
			{Name: conversation.CmdMenu, Description: "Kembali ke menu utama"},
		},
		sessions: store.Len,
		sweep: func() (int, int) {
			return store.Sweep(), limiter.Prune()
		},
		reset: engine.ClearToMainMenu,
	}, nil
}

func buildSurvey(cfg *coreconfig.Config, db *sqlx.DB, m *metrics.Metrics) (bot, error) {
	var repo survey.Repository
	if cfg.Storage.Driver == coreconfig.DriverMemory {
		repo = survey.NewMemoryRepository()
	} else {
		if db == nil {
			return bot{}, fmt.Errorf("app: storage driver %q needs a database", cfg.Storage.Driver)
		}
		repo = survey.NewSQLRepository(db)
	}
	store := session.New(session.Options[survey.State]{
		Default: survey.Idle,
		IdleTTL: cfg.Session.IdleTTL(),
	})
	engine, err := survey.New(survey.Options{
		Repository: repo,
		Sessions:   store,
		Recorder:   m,
		MinAge:     cfg.Survey.MinAge,
		MaxAge:     cfg.Survey.MaxAge,
	})
	if err != nil {
		return bot{}, err
	}
	return bot{
		engine: engine,
		commands: []adapter.Command{
			{Name: conversation.CmdStart, Description: "Isi survei"},
			{Name: conversation.CmdHelp, Description: "Bantuan"},
			{Name: conversation.CmdCancel, Description: "Batalkan survei"},
		},
		sessions: store.Len,
		sweep:    func() (int, int) { return store.Sweep(), 0 },
		repo:     repo,
	}, nil
}
