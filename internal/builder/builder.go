// Package builder implements the conversational rule creation flow.
//
// The flow is a finite state machine driven by discrete Apply calls,
// one per operator reply, so the dispatcher never blocks waiting for
// input and tests can feed scripted reply sequences.
package builder

import (
	"fmt"
	"strings"

	"watch_bot/internal/model"
)

// Step identifies the state of the rule creation session.
type Step int

// Session states. Idle means no session is active.
const (
	StepIdle Step = iota
	StepLabel
	StepIncludeAll
	StepIncludeAny
	StepExclude
	StepConfirm
)

// Store persists committed rules.
type Store interface {
	Add(rule model.Rule) (model.Rule, error)
}

// Builder holds the single active rule-creation session. The system is
// single-operator, so one session slot is enough; starting a new
// session replaces the previous one.
type Builder struct {
	store Store

	step       Step
	targetChat int64
	label      string
	includeAll []string
	includeAny []string
	exclude    []string
}

// New creates a Builder in the idle state.
func New(store Store) *Builder {
	return &Builder{store: store}
}

// Active reports whether a session is in progress.
func (b *Builder) Active() bool {
	return b.step != StepIdle
}

// Step returns the current session state.
func (b *Builder) Step() Step {
	return b.step
}

// Start begins a session for the given target chat and returns the
// first prompt. An already active session is replaced.
func (b *Builder) Start(targetChatID int64) string {
	replaced := b.Active()
	b.reset()
	b.targetChat = targetChatID
	b.step = StepLabel

	var sb strings.Builder
	if replaced {
		sb.WriteString("The previous rule setup was replaced by this request.\n")
	}
	fmt.Fprintf(&sb, "Configuring a new rule for chat %d.\n", targetChatID)
	sb.WriteString("Step 1 of 4 — send a label for this rule (e.g. Urgent Deals).\n")
	sb.WriteString("Send /cancel at any time to abort.")
	return sb.String()
}

// Cancel aborts the active session. Nothing is persisted.
func (b *Builder) Cancel() string {
	if !b.Active() {
		return "No rule setup is in progress."
	}
	b.reset()
	return "Rule setup cancelled."
}

// Apply consumes one operator reply and returns the response to send
// back. A cancel keyword aborts from any step.
func (b *Builder) Apply(reply string) string {
	text := strings.TrimSpace(reply)
	if isCancel(text) {
		return b.Cancel()
	}

	switch b.step {
	case StepLabel:
		if text == "" {
			return "Label cannot be empty. Send a label for the rule."
		}
		b.label = text
		b.step = StepIncludeAll
		return "Step 2 of 4 — required keywords (include_all), comma-separated.\n" +
			"A message must contain every one of them. Send '-' to skip."

	case StepIncludeAll:
		b.includeAll = ParseKeywords(text)
		b.step = StepIncludeAny
		return "Step 3 of 4 — optional keywords (include_any), comma-separated.\n" +
			"A message must contain at least one of them. Send '-' to skip.\n" +
			"Skipping both include steps makes this a catch-all rule."

	case StepIncludeAny:
		b.includeAny = ParseKeywords(text)
		b.step = StepExclude
		return "Step 4 of 4 — excluded keywords, comma-separated.\n" +
			"A message containing any of them is never logged. Send '-' to skip."

	case StepExclude:
		b.exclude = ParseKeywords(text)
		b.step = StepConfirm
		return b.summary() + "\n\nSave this rule? (yes/no)"

	case StepConfirm:
		if !isAffirmative(text) {
			b.reset()
			return "Rule discarded. Run /watch again to start over."
		}
		rule := model.Rule{
			ChatID:     b.targetChat,
			Label:      b.label,
			IncludeAll: b.includeAll,
			IncludeAny: b.includeAny,
			Exclude:    b.exclude,
		}
		saved, err := b.store.Add(rule)
		b.reset()
		if err != nil {
			return fmt.Sprintf("Failed to save the rule: %v\nRun /watch again to retry.", err)
		}
		return fmt.Sprintf("Rule %s saved for chat %d.", saved.ID, saved.ChatID)
	}

	return "No rule setup is in progress. Use /watch <chat_id> to start one."
}

func (b *Builder) summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New rule for chat %d:\n", b.targetChat)
	fmt.Fprintf(&sb, "- Label: %s\n", b.label)
	fmt.Fprintf(&sb, "- include_all: %s\n", fmtKeywords(b.includeAll))
	fmt.Fprintf(&sb, "- include_any: %s\n", fmtKeywords(b.includeAny))
	fmt.Fprintf(&sb, "- exclude: %s", fmtKeywords(b.exclude))
	return sb.String()
}

func (b *Builder) reset() {
	b.step = StepIdle
	b.targetChat = 0
	b.label = ""
	b.includeAll = nil
	b.includeAny = nil
	b.exclude = nil
}

// ParseKeywords splits a reply on commas, semicolons and newlines into
// trimmed, lowercased, non-empty keywords. Skip tokens and the empty
// reply yield an empty set.
func ParseKeywords(raw string) []string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil
	}
	switch strings.ToLower(cleaned) {
	case "-", "skip", "none":
		return nil
	}
	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fmtKeywords(kws []string) string {
	if len(kws) == 0 {
		return "-"
	}
	return strings.Join(kws, ", ")
}

func isCancel(text string) bool {
	t := strings.ToLower(text)
	return t == "/cancel" || t == "cancel"
}

func isAffirmative(text string) bool {
	switch strings.ToLower(text) {
	case "yes", "y":
		return true
	}
	return false
}
