package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"watch_bot/internal/bot"
	"watch_bot/internal/config"
	"watch_bot/internal/rules"
	"watch_bot/internal/sink"
	"watch_bot/internal/state"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	for _, p := range []string{cfg.RulesPath, cfg.StatePath, cfg.SinkDatabasePath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				log.Error("create data directory", "path", dir, "error", err)
				os.Exit(1)
			}
		}
	}

	ruleStore, err := rules.Open(cfg.RulesPath)
	if err != nil {
		log.Error("open rule store", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded rules", "path", cfg.RulesPath, "count", len(ruleStore.Rules()))

	st := state.Load(cfg.StatePath, log)

	loc, err := time.LoadLocation(cfg.LocalTimezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", "timezone", cfg.LocalTimezone, "error", err)
		loc = time.UTC
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	snk, err := newSink(ctx, cfg, st, log)
	if err != nil {
		log.Error("create sink", "sink", cfg.Sink, "error", err)
		os.Exit(1)
	}
	defer func() { _ = snk.Close() }()

	b, err := bot.New(cfg.TelegramBotToken, ruleStore, st, snk, cfg, loc, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	log.Info("starting watcher", "sink", cfg.Sink, "operator_chat_id", cfg.OperatorChatID)
	if len(cfg.WatchChatIDs) > 0 {
		log.Info("watching configured chats only", "chat_ids", cfg.WatchChatIDs)
	}

	b.Run(ctx)

	log.Info("watcher stopped")
}

func newSink(ctx context.Context, cfg *config.Config, st *state.State, log *slog.Logger) (sink.Sink, error) {
	if cfg.Sink != config.SinkSheets {
		return sink.NewSQLite(cfg.SinkDatabasePath)
	}

	spreadsheetID := cfg.SpreadsheetID
	if spreadsheetID == "" {
		spreadsheetID = st.SpreadsheetID()
	}

	sh, err := sink.NewSheets(ctx, sink.SheetsOptions{
		CredentialsFile:  cfg.GoogleCredentialsFile,
		SpreadsheetID:    spreadsheetID,
		SpreadsheetTitle: cfg.SpreadsheetTitle,
		Worksheet:        cfg.WorksheetName,
	}, log)
	if err != nil {
		return nil, err
	}

	if err := st.SetSpreadsheetID(sh.SpreadsheetID()); err != nil {
		log.Warn("remember spreadsheet id", "error", err)
	}
	log.Info("using spreadsheet",
		"url", "https://docs.google.com/spreadsheets/d/"+sh.SpreadsheetID())
	return sh, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
