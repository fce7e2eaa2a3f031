package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"watch_bot/internal/model"
	"watch_bot/internal/rules"
	"watch_bot/internal/sink"
)

const cmdWatch = "watch"

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.Chat.ID == b.cfg.OperatorChatID {
		b.handleOperator(ctx, msg, text)
		return
	}

	if msg.IsCommand() && msg.Command() == cmdWatch {
		// Never reply in the monitored chat; redirect the operator
		// to their own channel instead.
		b.log.Warn("watch command outside operator chat", "chat_id", msg.Chat.ID)
		b.reply(fmt.Sprintf(
			"A /watch command was ignored in chat %d (%s). Rule setup only works here.",
			msg.Chat.ID, chatDisplayName(msg.Chat)))
		return
	}

	b.processMessage(ctx, msg, text)
}

func (b *Bot) handleOperator(ctx context.Context, msg *tgbotapi.Message, text string) {
	if !msg.IsCommand() {
		if b.builder.Active() {
			b.reply(b.builder.Apply(text))
			return
		}
		b.reply("No rule setup is in progress. Use /watch <chat_id> to start one, or /help.")
		return
	}

	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	b.log.Debug("operator command", "cmd", cmd, "args", args)

	switch cmd {
	case "start", "help":
		b.reply(helpText)
	case cmdWatch:
		b.handleWatch(args)
	case "cancel":
		b.reply(b.builder.Cancel())
	case "rules":
		b.reply(FormatRuleList(b.rules.Rules()))
	case "recent":
		b.handleRecent(ctx, args)
	default:
		b.reply("Unknown command. Use /help for a list of commands.")
	}
}

func (b *Bot) handleWatch(args string) {
	target, err := ParseChatIDArg(args)
	if err != nil {
		b.reply(fmt.Sprintf("%v\nUsage: /watch <chat_id> (signed integer, negative for groups)", err))
		return
	}

	resp := b.builder.Start(target)
	if len(b.cfg.WatchChatIDs) > 0 && !b.cfg.IsChatWatched(target) {
		resp += fmt.Sprintf(
			"\nNote: chat %d is not in WATCH_CHAT_IDS; update it so its messages are monitored.",
			target)
	}
	b.reply(resp)
}

func (b *Bot) handleRecent(ctx context.Context, args string) {
	reader, ok := b.sink.(sink.Reader)
	if !ok {
		b.reply("The configured sink cannot read rows back. Check the spreadsheet directly.")
		return
	}

	limit, err := ParseLimitArg(args)
	if err != nil {
		b.reply("Usage: /recent [count]")
		return
	}

	events, err := reader.Recent(ctx, limit)
	if err != nil {
		b.log.Error("read recent rows", "error", err)
		b.reply(fmt.Sprintf("Failed to read the log: %v", err))
		return
	}
	b.reply(FormatRecent(events))
}

// processMessage runs an ordinary monitored-chat message through the
// global filters and the rule engine. The per-chat cursor advances only
// after every matched rule was appended successfully, so a failed
// append is re-attempted after a restart instead of silently dropped.
func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message, text string) {
	chatID := msg.Chat.ID

	if !b.cfg.IsChatWatched(chatID) {
		return
	}
	if b.cfg.IgnoreSelfMessages && msg.From != nil && msg.From.ID == b.cfg.OperatorChatID {
		return
	}
	if b.cfg.IgnoreBotMessages && msg.From != nil && msg.From.IsBot {
		return
	}
	if msg.MessageID <= b.state.LastMessageID(chatID) {
		return
	}

	matched := rules.Evaluate(text, b.rules.RulesForChat(chatID))
	if len(matched) == 0 {
		return
	}

	// Let in-flight appends finish during shutdown.
	appendCtx := context.WithoutCancel(ctx)

	appended := 0
	for _, r := range matched {
		ev := b.matchEvent(r, msg, text)
		if err := b.sink.Append(appendCtx, ev); err != nil {
			b.log.Error("append to sink",
				"chat_id", chatID, "message_id", msg.MessageID, "rule", r.ID, "error", err)
			break
		}
		b.log.Info("logged message",
			"chat_id", chatID, "message_id", msg.MessageID, "rule", r.ID, "label", r.Label)
		appended++
	}

	if appended == len(matched) {
		if err := b.state.Advance(chatID, msg.MessageID); err != nil {
			b.log.Warn("advance cursor", "chat_id", chatID, "message_id", msg.MessageID, "error", err)
		}
	}
}

func (b *Bot) matchEvent(r model.Rule, msg *tgbotapi.Message, text string) model.MatchEvent {
	ts := time.Now().UTC()
	if msg.Date > 0 {
		ts = msg.Time().UTC()
	}

	ev := model.MatchEvent{
		RuleID:           r.ID,
		RuleLabel:        r.Label,
		ChatID:           msg.Chat.ID,
		ChatName:         chatDisplayName(msg.Chat),
		MessageID:        msg.MessageID,
		MessageText:      text,
		MessageLink:      messageLink(msg),
		MatchedKeywords:  rules.MatchedKeywords(text, r),
		ExcludedKeywords: r.Exclude,
		TimestampUTC:     ts,
		TimestampLocal:   ts.In(b.loc),
	}
	if msg.From != nil {
		ev.Username = msg.From.UserName
		ev.DisplayName = senderDisplayName(msg.From)
		ev.SenderID = msg.From.ID
	}
	return ev
}
