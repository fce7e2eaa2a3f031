package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"watch_bot/internal/model"
	"watch_bot/migrations"
)

const timeLayout = time.RFC3339

// SQLite implements Sink backed by a local SQLite database. The
// migration run on open is the sink's "ensure the table and header
// exist" bootstrap.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the log database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append inserts one log row.
func (s *SQLite) Append(ctx context.Context, ev model.MatchEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_rows (
		    timestamp_utc, timestamp_local, rule_label, chat_name, chat_id,
		    message_id, message_link, username, display_name, sender_id,
		    message_text, matched_keywords, excluded_keywords)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.TimestampUTC.Format(timeLayout),
		ev.TimestampLocal.Format(timeLayout),
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
	)
	if err != nil {
		return fmt.Errorf("insert log row: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]model.MatchEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp_utc, timestamp_local, rule_label, chat_name, chat_id,
		        message_id, message_link, username, display_name, sender_id,
		        message_text, matched_keywords, excluded_keywords
		 FROM log_rows ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query log rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.MatchEvent
	for rows.Next() {
		var ev model.MatchEvent
		var utcStr, localStr, matched, excluded string
		err := rows.Scan(&utcStr, &localStr, &ev.RuleLabel, &ev.ChatName, &ev.ChatID,
			&ev.MessageID, &ev.MessageLink, &ev.Username, &ev.DisplayName, &ev.SenderID,
			&ev.MessageText, &matched, &excluded)
		if err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		ev.TimestampUTC, _ = time.Parse(timeLayout, utcStr)
		ev.TimestampLocal, _ = time.Parse(timeLayout, localStr)
		ev.MatchedKeywords = splitKeywords(matched)
		ev.ExcludedKeywords = splitKeywords(excluded)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func splitKeywords(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ", ")
	return parts
}

// Ensure the interfaces are satisfied.
var (
	_ Sink   = (*SQLite)(nil)
	_ Reader = (*SQLite)(nil)
)
