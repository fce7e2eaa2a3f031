// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sink backend names accepted in the SINK variable.
const (
	SinkSQLite = "sqlite"
	SinkSheets = "sheets"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken   string
	OperatorChatID     int64
	RulesPath          string
	StatePath          string
	WatchChatIDs       []int64
	IgnoreSelfMessages bool
	IgnoreBotMessages  bool
	LocalTimezone      string
	LogLevel           string

	Sink                  string
	SinkDatabasePath      string
	GoogleCredentialsFile string
	SpreadsheetID         string
	SpreadsheetTitle      string
	WorksheetName         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	operatorRaw := os.Getenv("OPERATOR_CHAT_ID")
	if operatorRaw == "" {
		return nil, fmt.Errorf("OPERATOR_CHAT_ID is required")
	}
	operatorID, err := strconv.ParseInt(operatorRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OPERATOR_CHAT_ID %q: %w", operatorRaw, err)
	}

	watchIDs, err := parseChatIDs(os.Getenv("WATCH_CHAT_IDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramBotToken:      token,
		OperatorChatID:        operatorID,
		RulesPath:             envOrDefault("RULES_PATH", "./data/rules.json"),
		StatePath:             envOrDefault("STATE_PATH", "./data/state.json"),
		WatchChatIDs:          watchIDs,
		IgnoreSelfMessages:    envBool("IGNORE_SELF_MESSAGES", true),
		IgnoreBotMessages:     envBool("IGNORE_BOT_MESSAGES", true),
		LocalTimezone:         envOrDefault("LOCAL_TIMEZONE", "UTC"),
		LogLevel:              envOrDefault("LOG_LEVEL", "info"),
		Sink:                  strings.ToLower(envOrDefault("SINK", SinkSQLite)),
		SinkDatabasePath:      envOrDefault("SINK_DATABASE_PATH", "./data/watchlog.db"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		SpreadsheetID:         strings.TrimSpace(os.Getenv("SPREADSHEET_ID")),
		SpreadsheetTitle:      envOrDefault("SPREADSHEET_TITLE", "Keyword Watch Log"),
		WorksheetName:         envOrDefault("WORKSHEET_NAME", "Sheet1"),
	}

	switch cfg.Sink {
	case SinkSQLite:
	case SinkSheets:
		if cfg.GoogleCredentialsFile == "" {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS_FILE is required when SINK=sheets")
		}
	default:
		return nil, fmt.Errorf("invalid SINK %q, use %q or %q", cfg.Sink, SinkSQLite, SinkSheets)
	}

	return cfg, nil
}

// IsChatWatched checks whether a chat is covered by the allow list.
// Returns true if the allow list is empty (all chats watched).
func (c *Config) IsChatWatched(chatID int64) bool {
	if len(c.WatchChatIDs) == 0 {
		return true
	}
	for _, id := range c.WatchChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseChatIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat ID %q in WATCH_CHAT_IDS: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
