package builder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"watch_bot/internal/model"
)

type mockStore struct {
	added  []model.Rule
	addErr error
}

func (m *mockStore) Add(rule model.Rule) (model.Rule, error) {
	if m.addErr != nil {
		return model.Rule{}, m.addErr
	}
	rule.ID = fmt.Sprintf("%d-%d", rule.ChatID, len(m.added)+1)
	m.added = append(m.added, rule)
	return rule, nil
}

func TestFullFlowCommits(t *testing.T) {
	store := &mockStore{}
	b := New(store)

	if b.Active() {
		t.Fatal("expected idle builder")
	}

	prompt := b.Start(-100123)
	if !strings.Contains(prompt, "chat -100123") {
		t.Errorf("start prompt missing target chat: %q", prompt)
	}

	replies := []string{"Promo Watch", "promo, SALE", "urgent; asap", "-", "yes"}
	var last string
	for _, r := range replies {
		last = b.Apply(r)
	}

	if !strings.Contains(last, "saved for chat -100123") {
		t.Errorf("expected save acknowledgement, got %q", last)
	}
	if b.Active() {
		t.Error("expected builder back in idle after commit")
	}

	want := []model.Rule{{
		ID:         "-100123-1",
		ChatID:     -100123,
		Label:      "Promo Watch",
		IncludeAll: []string{"promo", "sale"},
		IncludeAny: []string{"urgent", "asap"},
	}}
	if diff := cmp.Diff(want, store.added); diff != "" {
		t.Errorf("persisted rule mismatch (-want +got):\n%s", diff)
	}
}

func TestSkipEverythingMakesCatchAll(t *testing.T) {
	store := &mockStore{}
	b := New(store)
	b.Start(-5)

	confirm := ""
	for _, r := range []string{"Log All", "-", "skip", "none"} {
		confirm = b.Apply(r)
	}
	if !strings.Contains(confirm, "Save this rule?") {
		t.Errorf("expected confirmation prompt, got %q", confirm)
	}
	b.Apply("y")

	if len(store.added) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(store.added))
	}
	r := store.added[0]
	if len(r.IncludeAll) != 0 || len(r.IncludeAny) != 0 || len(r.Exclude) != 0 {
		t.Errorf("expected catch-all rule, got %+v", r)
	}
}

func TestEmptyLabelReprompts(t *testing.T) {
	b := New(&mockStore{})
	b.Start(1)

	resp := b.Apply("   ")
	if !strings.Contains(resp, "Label cannot be empty") {
		t.Errorf("expected re-prompt, got %q", resp)
	}
	if b.Step() != StepLabel {
		t.Errorf("expected to stay in label step, got %v", b.Step())
	}
}

func TestCancelFromAnyStep(t *testing.T) {
	tests := []struct {
		name    string
		replies []string
	}{
		{name: "during label", replies: nil},
		{name: "during include_all", replies: []string{"L"}},
		{name: "during include_any", replies: []string{"L", "a"}},
		{name: "during exclude", replies: []string{"L", "a", "b"}},
		{name: "during confirm", replies: []string{"L", "a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			b := New(store)
			b.Start(1)
			for _, r := range tt.replies {
				b.Apply(r)
			}

			resp := b.Apply("/cancel")
			if !strings.Contains(resp, "cancelled") {
				t.Errorf("expected cancellation notice, got %q", resp)
			}
			if b.Active() {
				t.Error("expected idle builder after cancel")
			}
			if len(store.added) != 0 {
				t.Errorf("cancel must not persist, got %d rules", len(store.added))
			}
		})
	}
}

func TestNegativeConfirmAborts(t *testing.T) {
	store := &mockStore{}
	b := New(store)
	b.Start(1)
	for _, r := range []string{"L", "-", "-", "-"} {
		b.Apply(r)
	}

	resp := b.Apply("nope")
	if !strings.Contains(resp, "discarded") {
		t.Errorf("expected discard notice, got %q", resp)
	}
	if len(store.added) != 0 {
		t.Errorf("abort must not persist, got %d rules", len(store.added))
	}
	if b.Active() {
		t.Error("expected idle builder after abort")
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	b := New(&mockStore{})
	b.Start(1)
	b.Apply("First Label")

	prompt := b.Start(2)
	if !strings.Contains(prompt, "replaced") {
		t.Errorf("expected replacement notice, got %q", prompt)
	}
	if !strings.Contains(prompt, "chat 2") {
		t.Errorf("expected new target chat in prompt, got %q", prompt)
	}
	if b.Step() != StepLabel {
		t.Errorf("expected fresh session at label step, got %v", b.Step())
	}
}

func TestStoreFailureReported(t *testing.T) {
	store := &mockStore{addErr: fmt.Errorf("disk full")}
	b := New(store)
	b.Start(1)
	for _, r := range []string{"L", "-", "-", "-"} {
		b.Apply(r)
	}

	resp := b.Apply("yes")
	if !strings.Contains(resp, "Failed to save") {
		t.Errorf("expected persistence failure notice, got %q", resp)
	}
	if b.Active() {
		t.Error("session is lost after a failed commit, not retried")
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "comma separated", raw: "promo, SALE ,deal", want: []string{"promo", "sale", "deal"}},
		{name: "semicolons and newlines", raw: "a;b\nc", want: []string{"a", "b", "c"}},
		{name: "dash skips", raw: "-", want: nil},
		{name: "skip token", raw: "Skip", want: nil},
		{name: "none token", raw: "none", want: nil},
		{name: "empty reply", raw: "   ", want: nil},
		{name: "drops empty chunks", raw: "a,,  ,b", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKeywords(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseKeywords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
