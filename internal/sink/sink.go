// Package sink implements the append-only backends for match log rows.
package sink

import (
	"context"
	"strings"
	"time"

	"watch_bot/internal/model"
)

// Header lists the log columns in append order.
var Header = []string{
	"timestamp_utc",
	"timestamp_local",
	"rule_label",
	"chat_name",
	"chat_id",
	"message_id",
	"message_link",
	"username",
	"display_name",
	"sender_id",
	"message_text",
	"matched_keywords",
	"excluded_keywords",
}

// Sink appends match events to a durable tabular log.
type Sink interface {
	Append(ctx context.Context, ev model.MatchEvent) error
	Close() error
}

// Reader is implemented by sinks that can read their rows back, used
// by the operator's /recent command.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]model.MatchEvent, error)
}

// Row flattens a match event into the column order of Header.
func Row(ev model.MatchEvent) []any {
	return []any{
		ev.TimestampUTC.Format(time.RFC3339),
		ev.TimestampLocal.Format(time.RFC3339),
		ev.RuleLabel,
		ev.ChatName,
		ev.ChatID,
		ev.MessageID,
		ev.MessageLink,
		ev.Username,
		ev.DisplayName,
		ev.SenderID,
		ev.MessageText,
		strings.Join(ev.MatchedKeywords, ", "),
		strings.Join(ev.ExcludedKeywords, ", "),
	}
}
