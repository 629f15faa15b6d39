package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"yuan-rate-bot/internal/analysis"
	"yuan-rate-bot/internal/config"
	"yuan-rate-bot/internal/fetcher"
	"yuan-rate-bot/internal/metrics"
	"yuan-rate-bot/internal/report"
	"yuan-rate-bot/internal/scheduler"
	"yuan-rate-bot/internal/service"
	"yuan-rate-bot/internal/telegram"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() (*fetcher.CBR, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return fetcher.NewCBR(fetcher.CBROptions{
		BaseURL:      a.Config.Feed.BaseURL,
		CurrencyCode: a.Config.Feed.CurrencyCode,
		WindowDays:   a.Config.Feed.WindowDays,
		Timeout:      a.Config.Feed.RequestTimeout,
		UserAgent:    a.Config.Feed.UserAgent,
		Location:     loc,
	}, a.Logger), nil
}

func (a *App) newService(rec service.Recorder) (*service.Service, error) {
	feed, err := a.newFetcher()
	if err != nil {
		return nil, err
	}
	renderer := report.NewLineChart(report.ChartOptions{
		Width:  a.Config.Chart.Width,
		Height: a.Config.Chart.Height,
		Title:  a.Config.Chart.Title,
	})
	opts := service.Options{
		Analyzer: analysis.Analyzer{FixedDivisor: a.Config.Analysis.FixedDivisor},
	}
	return service.New(feed, renderer, rec, opts, a.Logger), nil
}

// Run starts the bot and, when enabled, the digest scheduler and metrics server.
// The first component to fail stops the others.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Config.ValidateTelegram(); err != nil {
		return err
	}

	var (
		svcRec service.Recorder
		cmdRec telegram.CommandRecorder
		server *metrics.Server
	)
	if a.Config.Metrics.Enabled {
		recorder := metrics.New()
		svcRec, cmdRec = recorder, recorder
		server = metrics.NewServer(a.Config.Metrics.ListenAddr, recorder, a.Logger)
	}

	svc, err := a.newService(svcRec)
	if err != nil {
		return err
	}

	bot, err := telegram.NewBot(telegram.BotOptions{
		Token:          a.Config.Telegram.BotToken,
		APIEndpoint:    a.Config.Telegram.APIEndpoint,
		Debug:          a.Config.Telegram.Debug,
		UpdateTimeout:  a.Config.Telegram.UpdateTimeout,
		HandlerTimeout: a.Config.Telegram.HandlerTimeout,
	}, a.Logger)
	if err != nil {
		return err
	}

	dispatcher := telegram.NewDispatcher(a.Logger)
	telegram.NewHandlers(svc, bot.Sender(), cmdRec, telegram.HandlerOptions{
		ParseMode: a.Config.Telegram.ParseMode,
	}, a.Logger).RegisterAll(dispatcher)

	var sched *scheduler.Scheduler
	if a.Config.Digest.Enabled {
		if sched, err = a.newDigestScheduler(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if server != nil {
		g.Go(func() error {
			return server.Run(gctx)
		})
	}
	if sched != nil {
		a.Logger.Info().
			Int64("chat_id", a.Config.Digest.ChatID).
			Str("cron", a.Config.Digest.Cron).
			Dur("interval", a.Config.Digest.Interval).
			Msg("digest enabled")
		g.Go(func() error {
			return ignoreCanceled(sched.Run(gctx, DigestTick(dispatcher, a.Config.Digest.ChatID)))
		})
	}
	g.Go(func() error {
		defer cancel()
		a.Logger.Info().Msg("starting bot")
		return ignoreCanceled(bot.Run(gctx, dispatcher))
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("bot terminated with error")
		return err
	}
	a.Logger.Info().Msg("bot stopped")
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) newDigestScheduler() (*scheduler.Scheduler, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return scheduler.New(scheduler.Options{
		Cron:         a.Config.Digest.Cron,
		Interval:     a.Config.Digest.Interval,
		Align:        a.Config.Digest.Align,
		Offset:       a.Config.Digest.Offset,
		StartupDelay: a.Config.Digest.StartupDelay,
		Location:     loc,
	}, a.Logger)
}

// DigestTick sends the rate report to chatID on every scheduler tick.
func DigestTick(d *telegram.Dispatcher, chatID int64) scheduler.TickFunc {
	return func(ctx context.Context, at time.Time) error {
		return d.Dispatch(ctx, telegram.Request{ChatID: chatID, Command: telegram.CommandRate})
	}
}
