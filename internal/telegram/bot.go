package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// BotOptions configure the Telegram client.
type BotOptions struct {
	Token          string
	APIEndpoint    string
	Debug          bool
	UpdateTimeout  int
	HandlerTimeout time.Duration
}

// Bot long-polls Telegram and hands updates to a Dispatcher.
type Bot struct {
	api    *tgbotapi.BotAPI
	opts   BotOptions
	logger zerolog.Logger
}

// NewBot authenticates against the Bot API (getMe) and returns a client.
func NewBot(opts BotOptions, logger zerolog.Logger) (*Bot, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 60
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 30 * time.Second
	}

	logger = logger.With().Str("component", "telegram_bot").Logger()
	if err := tgbotapi.SetLogger(zerologBridge{logger: logger}); err != nil {
		return nil, fmt.Errorf("set telegram logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(opts.Token, opts.APIEndpoint)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = opts.Debug

	logger.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")
	return &Bot{api: api, opts: opts, logger: logger}, nil
}

// Sender returns the API client for outgoing messages.
func (b *Bot) Sender() Sender {
	return b.api
}

// Run registers the command list and serves updates until ctx is cancelled.
// Every update is handled in its own goroutine; Run waits for them on exit.
func (b *Bot) Run(ctx context.Context, d *Dispatcher) error {
	d.SetBotName(b.api.Self.UserName)
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(d.Commands()...)); err != nil {
		b.logger.Warn().Err(err).Msg("setMyCommands failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	b.logger.Info().Msg("polling for updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info().Msg("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func(update tgbotapi.Update) {
				defer wg.Done()
				b.handle(ctx, d, update)
			}(update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, d *Dispatcher, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Int("update_id", update.UpdateID).Msg("handler panicked")
		}
	}()

	// In-flight replies outlive shutdown, bounded by the handler timeout.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.HandlerTimeout)
	defer cancel()

	if err := d.HandleUpdate(hctx, update); err != nil {
		b.logger.Error().Err(err).Int("update_id", update.UpdateID).Msg("update handling failed")
	}
}

// zerologBridge routes the library's internal logging into zerolog.
type zerologBridge struct {
	logger zerolog.Logger
}

func (z zerologBridge) Println(v ...interface{}) {
	z.logger.Warn().Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (z zerologBridge) Printf(format string, v ...interface{}) {
	z.logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
