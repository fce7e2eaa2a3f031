package sink

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"watch_bot/internal/model"
)

func newTestSink(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEvent(chatID int64, msgID int, label string) model.MatchEvent {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return model.MatchEvent{
		RuleID:           "r-1",
		RuleLabel:        label,
		ChatID:           chatID,
		ChatName:         "Deals Chat",
		MessageID:        msgID,
		MessageText:      "urgent invoice #42",
		MessageLink:      "https://t.me/c/123/7",
		Username:         "someone",
		DisplayName:      "Some One",
		SenderID:         777,
		MatchedKeywords:  []string{"urgent", "invoice"},
		ExcludedKeywords: []string{"test"},
		TimestampUTC:     ts,
		TimestampLocal:   ts,
	}
}

func TestAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestSink(t)

	ev := sampleEvent(-100123, 7, "Urgent")
	if err := s.Append(ctx, ev); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}

	want := ev
	want.RuleID = "" // the log row carries the label, not the rule id
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("Recent() row mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestSink(t)

	for i := 1; i <= 5; i++ {
		if err := s.Append(ctx, sampleEvent(-1, i, "L")); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}

	var ids []int
	for _, ev := range got {
		ids = append(ids, ev.MessageID)
	}
	want := []int{5, 4, 3} // newest first
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("Recent() order mismatch (-want +got):\n%s", diff)
	}
}

func TestRowColumnCountMatchesHeader(t *testing.T) {
	row := Row(sampleEvent(-1, 1, "L"))
	if len(row) != len(Header) {
		t.Errorf("Row() has %d values for %d header columns", len(row), len(Header))
	}
}
