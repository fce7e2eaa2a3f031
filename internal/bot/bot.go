// Package bot wires the Telegram update stream to the rule engine: it
// routes operator commands and builder replies, filters monitored-chat
// messages, and forwards match events to the log sink.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"watch_bot/internal/builder"
	"watch_bot/internal/config"
	"watch_bot/internal/rules"
	"watch_bot/internal/sink"
	"watch_bot/internal/state"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the event dispatcher: it consumes the inbound message stream
// and talks back only to the operator's private chat.
type Bot struct {
	api     telegramAPI
	rules   *rules.Store
	builder *builder.Builder
	state   *state.State
	sink    sink.Sink
	cfg     *config.Config
	loc     *time.Location
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token and collaborators.
func New(token string, ruleStore *rules.Store, st *state.State, snk sink.Sink, cfg *config.Config, loc *time.Location, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:     api,
		rules:   ruleStore,
		builder: builder.New(ruleStore),
		state:   st,
		sink:    snk,
		cfg:     cfg,
		loc:     loc,
		log:     log,
	}, nil
}

// Run starts the long-polling loop, blocking until ctx is cancelled.
// Messages are processed one at a time in arrival order, so log rows
// for a chat follow the order its messages arrived in.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.dispatch(ctx, update.Message)
		}
	}
}

// reply sends text to the operator's private chat. The bot never
// produces output in a monitored chat.
func (b *Bot) reply(text string) {
	msg := tgbotapi.NewMessage(b.cfg.OperatorChatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", b.cfg.OperatorChatID, "error", err)
	}
}
