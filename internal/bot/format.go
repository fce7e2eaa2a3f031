package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"watch_bot/internal/model"
)

const helpText = `Keyword watcher commands (this chat only):
/watch <chat_id> — start creating a rule for a chat
/cancel — abort the current rule setup
/rules — list all stored rules
/recent [count] — show recent log rows (sqlite sink)
/help — this text

Messages in monitored chats are matched against the rules and logged;
the bot never replies in those chats.`

// FormatRuleList formats all stored rules for display.
func FormatRuleList(rs []model.Rule) string {
	if len(rs) == 0 {
		return "No rules yet. Use /watch <chat_id> to create one."
	}
	var b strings.Builder
	b.WriteString("Stored rules:\n")
	for _, r := range rs {
		fmt.Fprintf(&b, "\n%s %q (chat %d)\n", r.ID, r.Label, r.ChatID)
		fmt.Fprintf(&b, "   include_all: %s\n", joinOrDash(r.IncludeAll))
		fmt.Fprintf(&b, "   include_any: %s\n", joinOrDash(r.IncludeAny))
		fmt.Fprintf(&b, "   exclude: %s\n", joinOrDash(r.Exclude))
	}
	return b.String()
}

// FormatRecent formats log rows read back from the sink, newest first.
func FormatRecent(events []model.MatchEvent) string {
	if len(events) == 0 {
		return "The log is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Last %d log row(s):\n", len(events))
	for _, ev := range events {
		fmt.Fprintf(&b, "\n[%s] %s in %s (%d)\n", ev.TimestampUTC.Format("2006-01-02 15:04 UTC"), ev.RuleLabel, ev.ChatName, ev.ChatID)
		text := ev.MessageText
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		b.WriteString("   " + text + "\n")
		if ev.MessageLink != "" {
			b.WriteString("   " + ev.MessageLink + "\n")
		}
	}
	return b.String()
}

func joinOrDash(kws []string) string {
	if len(kws) == 0 {
		return "-"
	}
	return strings.Join(kws, ", ")
}

func chatDisplayName(chat *tgbotapi.Chat) string {
	if chat == nil {
		return ""
	}
	if chat.Title != "" {
		return chat.Title
	}
	name := strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	if name != "" {
		return name
	}
	return chat.UserName
}

func senderDisplayName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name != "" {
		return name
	}
	return user.UserName
}

// messageLink builds a deep link to the message when one is
// constructible: public chats link through their username, private
// supergroups and channels through the t.me/c form. Private dialogs
// have no links.
func messageLink(msg *tgbotapi.Message) string {
	if msg.Chat == nil {
		return ""
	}
	if msg.Chat.UserName != "" && msg.Chat.ID < 0 {
		return fmt.Sprintf("https://t.me/%s/%d", msg.Chat.UserName, msg.MessageID)
	}
	if msg.Chat.ID >= 0 {
		return ""
	}
	s := strconv.FormatInt(msg.Chat.ID, 10)
	if strings.HasPrefix(s, "-100") {
		s = s[4:]
	} else {
		s = s[1:]
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", s, msg.MessageID)
}
