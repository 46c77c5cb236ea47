// Package app assembles the bot selected by configuration: engine, transport
// routes, admin commands and background workers.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v4"

	"github.com/ranggaxyy/deplot-bot/core/bootstrap"
	corecmd "github.com/ranggaxyy/deplot-bot/core/cmd"
	coreconfig "github.com/ranggaxyy/deplot-bot/core/config"
	"github.com/ranggaxyy/deplot-bot/core/logger"
	coretelegram "github.com/ranggaxyy/deplot-bot/core/telegram"
	"github.com/ranggaxyy/deplot-bot/core/telegram/adapter"
	"github.com/ranggaxyy/deplot-bot/core/telegram/router"
	"github.com/ranggaxyy/deplot-bot/core/telegram/sender"
	"github.com/ranggaxyy/deplot-bot/internal/metrics"
)

// App is one running bot.
type App struct {
	cfg     *coreconfig.Config
	infra   *bootstrap.Result
	metrics *metrics.Metrics
	bot     bot
	adapter *adapter.Adapter

	dispatcher atomic.Pointer[sender.Dispatcher]
	cancel     context.CancelFunc
	group      *errgroup.Group
	sweepEvery time.Duration
	// metricsDown is set once the metrics server has failed; the bot keeps running.
	metricsDown atomic.Bool
}

// Bootstrap runs the shared infrastructure setup and builds the App.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

// New builds the engine for cfg.Bot.Mode. infra may be nil for memory storage.
func New(cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if infra == nil {
		infra = &bootstrap.Result{}
	}
	m := metrics.New(cfg.Metrics.Namespace)
	b, err := buildBot(cfg, infra.DB, m)
	if err != nil {
		return nil, err
	}
	ad, err := adapter.New(adapter.Options{
		Engine:      b.engine,
		MenuButtons: b.menu,
		Commands:    b.commands,
	})
	if err != nil {
		return nil, err
	}
	logger.Info(logger.Background(), "app", "engine.ready",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("commands", len(b.commands)),
	)
	return &App{
		cfg:        cfg,
		infra:      infra,
		metrics:    m,
		bot:        b,
		adapter:    ad,
		sweepEvery: time.Duration(cfg.Session.SweepIntervalSeconds) * time.Second,
	}, nil
}

// Metrics exposes the instruments, mainly for tests.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.adapter.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	if err := a.registerAdminCommands(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:   a.cfg,
		Registry: reg,
		DispatcherOptions: sender.Options{
			MaxRetries: 2,
			OnResult:   func(_ string, err error) { a.metrics.MessageSent(err) },
		},
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, ackLimited, a.metrics),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

// ackLimited stops the button spinner of throttled callbacks; throttled
// messages are dropped silently.
func ackLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond()
	}
	return nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	a.dispatcher.Store(rt.Dispatcher)

	wctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(wctx)
	a.cancel, a.group = cancel, g

	g.Go(func() error { return a.maintain(gctx) })
	if a.cfg.Metrics.Enabled {
		// A metrics failure must not cancel gctx and take the sweeper down.
		g.Go(func() error {
			if err := a.metrics.Serve(gctx, a.cfg.Metrics.Listen, a.cfg.Bot.Mode); err != nil {
				a.metricsDown.Store(true)
				logger.Error(gctx, "metrics", "metrics.serve",
					slog.String("status", "fail"),
					slog.String("addr", a.cfg.Metrics.Listen),
					logger.Err(err),
				)
			}
			return nil
		})
	}
	return nil
}

func (a *App) stop(_ context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if a.cancel != nil {
		a.cancel()
		errs = append(errs, a.group.Wait())
	}
	errs = append(errs, a.infra.Close())
	return errors.Join(errs...)
}

// maintain evicts idle sessions and prunes limiter records until ctx ends.
func (a *App) maintain(ctx context.Context) error {
	t := time.NewTicker(a.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.sweepOnce(ctx)
		}
	}
}

func (a *App) sweepOnce(ctx context.Context) {
	start := time.Now()
	evicted, pruned := a.bot.sweep()
	active := a.bot.sessions()
	a.metrics.SetActiveSessions(a.cfg.Bot.Mode, active)
	if evicted > 0 || pruned > 0 {
		logger.Debug(ctx, "app", "sweep",
			slog.Int("evicted", evicted),
			slog.Int("pruned", pruned),
			slog.Int("active", active),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}
