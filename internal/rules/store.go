package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"watch_bot/internal/model"
)

// ErrCorruptStore reports that the rule file exists but cannot be
// parsed. Absence of the file is not corruption; a missing file means a
// first run and yields an empty store.
var ErrCorruptStore = errors.New("corrupt rule store")

type ruleFile struct {
	Rules []model.Rule `json:"rules"`
}

// Store owns the durable rule collection, backed by a JSON file that
// stays hand-editable. Rules are kept in insertion order; that order
// decides which label is logged first when several rules match.
type Store struct {
	mu    sync.Mutex
	path  string
	rules []model.Rule
}

// Open reads the rule file at path. A missing or empty file yields an
// empty store. A file that exists but cannot be parsed fails with
// ErrCorruptStore so the process refuses to start on a silently-empty
// rule set.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return s, nil
	}

	var f ruleFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	for i := range f.Rules {
		normalizeRule(&f.Rules[i])
	}
	s.rules = f.Rules
	return s, nil
}

// Rules returns a copy of all rules in insertion order.
func (s *Store) Rules() []model.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// RulesForChat returns all rules bound to the given chat, in insertion
// order. Most chats have no rules; the empty result is not an error.
func (s *Store) RulesForChat(chatID int64) []model.Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Rule
	for _, r := range s.rules {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out
}

// Add normalizes the rule, assigns an id if it has none, appends it and
// persists the whole collection. Labels are mandatory; duplicate labels
// on the same chat are allowed and log independently.
func (s *Store) Add(rule model.Rule) (model.Rule, error) {
	rule.Label = strings.TrimSpace(rule.Label)
	if rule.Label == "" {
		return model.Rule{}, fmt.Errorf("rule label is required")
	}
	normalizeRule(&rule)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == "" {
		rule.ID = s.nextID(rule.ChatID)
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	s.rules = append(s.rules, rule)
	if err := s.save(); err != nil {
		s.rules = s.rules[:len(s.rules)-1]
		return model.Rule{}, err
	}
	return rule, nil
}

// nextID returns the first unused "<chat>-<n>" identifier. Callers must
// hold s.mu.
func (s *Store) nextID(chatID int64) string {
	used := make(map[string]bool, len(s.rules))
	for _, r := range s.rules {
		used[r.ID] = true
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("%d-%d", chatID, n)
		if !used[id] {
			return id
		}
	}
}

// save writes the collection atomically: marshal to a temp file in the
// same directory, then rename over the target so a crash mid-write
// never truncates the store. Callers must hold s.mu.
func (s *Store) save() error {
	payload, err := json.MarshalIndent(ruleFile{Rules: s.rules}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("create temp rule file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp rule file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp rule file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename rule file: %w", err)
	}
	return nil
}

// normalizeRule lowercases and trims every keyword and drops empties,
// so the include and exclude paths never diverge on case handling.
func normalizeRule(r *model.Rule) {
	r.IncludeAll = NormalizeKeywords(r.IncludeAll)
	r.IncludeAny = NormalizeKeywords(r.IncludeAny)
	r.Exclude = NormalizeKeywords(r.Exclude)
}

// NormalizeKeywords trims and lowercases keywords, dropping empty ones.
func NormalizeKeywords(kws []string) []string {
	var out []string
	for _, kw := range kws {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
