// Package state persists the watcher's per-chat processing cursor and
// sink bootstrap bookkeeping.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type fileData struct {
	SpreadsheetID string        `json:"spreadsheet_id,omitempty"`
	Cursors       map[int64]int `json:"cursors,omitempty"`
}

// State tracks the highest successfully logged message id per chat so a
// restart does not produce duplicate log rows. The cursor only advances
// after a confirmed sink append.
type State struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
	data fileData
}

// Load reads the state file at path. A missing file is a first run. An
// unreadable file is tolerated with a warning and an empty state:
// losing the cursor only risks duplicate rows, never lost ones.
func Load(path string, log *slog.Logger) *State {
	s := &State{path: path, log: log}
	s.data.Cursors = make(map[int64]int)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s
	}
	if err != nil {
		log.Warn("read state file", "path", path, "error", err)
		return s
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn("parse state file, starting empty", "path", path, "error", err)
		return s
	}
	if data.Cursors == nil {
		data.Cursors = make(map[int64]int)
	}
	s.data = data
	return s
}

// LastMessageID returns the cursor for a chat, zero if none.
func (s *State) LastMessageID(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Cursors[chatID]
}

// Advance moves the cursor for a chat forward to messageID and
// persists. Lower or equal ids are ignored to keep the cursor
// monotonic.
func (s *State) Advance(chatID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if messageID <= s.data.Cursors[chatID] {
		return nil
	}
	s.data.Cursors[chatID] = messageID
	return s.save()
}

// SpreadsheetID returns the remembered spreadsheet id, if any.
func (s *State) SpreadsheetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SpreadsheetID
}

// SetSpreadsheetID records the spreadsheet the sink bootstrapped, so a
// restart reuses it instead of creating another one.
func (s *State) SetSpreadsheetID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.SpreadsheetID == id {
		return nil
	}
	s.data.SpreadsheetID = id
	return s.save()
}

// save writes atomically via temp file + rename. Callers must hold
// s.mu.
func (s *State) save() error {
	payload, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}
