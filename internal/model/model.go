// Package model defines the domain types used across the application.
package model

import "time"

// Rule is a keyword matching configuration bound to a single chat.
// Keyword sets are stored lowercased and trimmed. A rule with both
// include sets empty is a catch-all: it matches every message in its
// chat that does not hit an exclude keyword.
type Rule struct {
	ID         string    `json:"id"`
	ChatID     int64     `json:"chat_id"`
	Label      string    `json:"label"`
	IncludeAll []string  `json:"include_all,omitempty"`
	IncludeAny []string  `json:"include_any,omitempty"`
	Exclude    []string  `json:"exclude,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// MatchEvent is the derived record produced when a message satisfies a
// rule. It is consumed immediately by a sink and not retained.
type MatchEvent struct {
	RuleID           string
	RuleLabel        string
	ChatID           int64
	ChatName         string
	MessageID        int
	MessageText      string
	MessageLink      string
	Username         string
	DisplayName      string
	SenderID         int64
	MatchedKeywords  []string
	ExcludedKeywords []string
	TimestampUTC     time.Time
	TimestampLocal   time.Time
}
