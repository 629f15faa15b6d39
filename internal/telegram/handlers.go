package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"yuan-rate-bot/internal/analysis"
	"yuan-rate-bot/internal/fetcher"
	"yuan-rate-bot/internal/series"
	"yuan-rate-bot/internal/service"
)

const (
	// CommandRate replies with the chart and summary.
	CommandRate = "get_currency_uan_to_ruble"
	// CommandStart greets the user and lists commands.
	CommandStart = "start"

	rateDescription  = "Получить курс Юаня к Рублю"
	startDescription = "Что умеет бот"

	// FailureText is the single reply sent for any pipeline failure.
	FailureText = "Не удалось получить курс Юаня. Попробуйте позже."

	chartFileName = "cny_rub.png"
)

// Reporter builds the rate report.
type Reporter interface {
	BuildReport(ctx context.Context) (service.Report, error)
}

// CommandRecorder counts handled commands. A nil CommandRecorder is allowed.
type CommandRecorder interface {
	RecordCommand(command, outcome string)
}

// HandlerOptions tune reply formatting.
type HandlerOptions struct {
	ParseMode string
}

// Handlers implements the bot commands on top of injected collaborators.
type Handlers struct {
	reporter Reporter
	sender   Sender
	metrics  CommandRecorder
	opts     HandlerOptions
	logger   zerolog.Logger
}

// NewHandlers constructs the command handlers.
func NewHandlers(reporter Reporter, sender Sender, metrics CommandRecorder, opts HandlerOptions, logger zerolog.Logger) *Handlers {
	return &Handlers{
		reporter: reporter,
		sender:   sender,
		metrics:  metrics,
		opts:     opts,
		logger:   logger.With().Str("component", "handlers").Logger(),
	}
}

// RegisterAll binds every command to d.
func (h *Handlers) RegisterAll(d *Dispatcher) {
	d.Register(CommandRate, rateDescription, h.Rate)
	d.Register(CommandStart, startDescription, h.Start)
}

// Rate builds the report and replies with a photo, or with FailureText.
func (h *Handlers) Rate(ctx context.Context, req Request) error {
	rep, err := h.reporter.BuildReport(ctx)
	if err != nil {
		kind := ErrorKind(err)
		h.record(CommandRate, kind)
		h.logger.Error().Err(err).
			Str("error_kind", kind).
			Str("request_id", req.ID).
			Int64("chat_id", req.ChatID).
			Msg("rate report failed")

		if _, sendErr := h.sender.Send(tgbotapi.NewMessage(req.ChatID, FailureText)); sendErr != nil {
			return fmt.Errorf("send failure reply: %w", sendErr)
		}
		return nil
	}

	photo := tgbotapi.NewPhoto(req.ChatID, tgbotapi.FileBytes{Name: chartFileName, Bytes: rep.Chart})
	photo.Caption = rep.Caption
	photo.ParseMode = h.opts.ParseMode

	if _, err := h.sender.Send(photo); err != nil {
		h.record(CommandRate, "send")
		return fmt.Errorf("send rate photo: %w", err)
	}

	h.record(CommandRate, "ok")
	h.logger.Info().Str("request_id", req.ID).Int64("chat_id", req.ChatID).Msg("rate report sent")
	return nil
}

// Start replies with a short help text.
func (h *Handlers) Start(ctx context.Context, req Request) error {
	text := "Привет! Я показываю курс Юаня к Рублю по данным ЦБ РФ.\n\n" +
		"/" + CommandRate + ": график за 5 дней и прогноз на завтра"
	if _, err := h.sender.Send(tgbotapi.NewMessage(req.ChatID, text)); err != nil {
		h.record(CommandStart, "send")
		return fmt.Errorf("send start reply: %w", err)
	}
	h.record(CommandStart, "ok")
	return nil
}

func (h *Handlers) record(command, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordCommand(command, outcome)
	}
}

// ErrorKind names the failure class of a pipeline error for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, fetcher.ErrFetch):
		return "fetch"
	case errors.Is(err, series.ErrMalformedRecord):
		return "malformed"
	case errors.Is(err, analysis.ErrInsufficientData):
		return "insufficient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
