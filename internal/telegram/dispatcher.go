package telegram

import (
	"context"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sender is the part of the bot API handlers need. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Request carries the per-message context a handler gets.
type Request struct {
	// ID correlates log lines of one request; Dispatch fills it when empty.
	ID       string
	ChatID   int64
	Command  string
	Args     string
	UserName string
}

// HandlerFunc serves one command.
type HandlerFunc func(ctx context.Context, req Request) error

type route struct {
	handler     HandlerFunc
	description string
}

// Dispatcher maps command names to handlers. Register everything before
// HandleUpdate is called concurrently.
type Dispatcher struct {
	routes  map[string]route
	botName string
	logger  zerolog.Logger
}

// NewDispatcher builds an empty dispatch table.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		routes: make(map[string]route),
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Register binds a command (without the leading slash) to a handler.
func (d *Dispatcher) Register(command, description string, h HandlerFunc) {
	d.routes[strings.ToLower(command)] = route{handler: h, description: description}
}

// SetBotName makes HandleUpdate ignore commands addressed to other bots
// ("/start@other_bot"). Call it before updates are handled.
func (d *Dispatcher) SetBotName(name string) {
	d.botName = strings.TrimPrefix(name, "@")
}

// Commands lists registered commands for setMyCommands, sorted by name.
func (d *Dispatcher) Commands() []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(d.routes))
	for name, r := range d.routes {
		out = append(out, tgbotapi.BotCommand{Command: name, Description: r.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// Dispatch runs the handler for req.Command. Unknown commands are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	r, ok := d.routes[strings.ToLower(req.Command)]
	if !ok {
		d.logger.Debug().Str("command", req.Command).Int64("chat_id", req.ChatID).Msg("unknown command ignored")
		return nil
	}
	return r.handler(ctx, req)
}

// HandleUpdate turns an incoming update into a Request and dispatches it.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}
	if !d.addressedToUs(msg.CommandWithAt()) {
		d.logger.Debug().Int("update_id", update.UpdateID).Str("command", msg.CommandWithAt()).Msg("command for another bot ignored")
		return nil
	}

	req := Request{
		ID:      uuid.NewString(),
		ChatID:  msg.Chat.ID,
		Command: msg.Command(),
		Args:    strings.TrimSpace(msg.CommandArguments()),
	}
	if msg.From != nil {
		req.UserName = msg.From.UserName
	}

	d.logger.Info().
		Int("update_id", update.UpdateID).
		Str("request_id", req.ID).
		Int64("chat_id", req.ChatID).
		Str("command", req.Command).
		Msg("command received")
	return d.Dispatch(ctx, req)
}

func (d *Dispatcher) addressedToUs(commandWithAt string) bool {
	_, target, found := strings.Cut(commandWithAt, "@")
	if !found || d.botName == "" {
		return true
	}
	return strings.EqualFold(target, d.botName)
}
