package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"watch_bot/internal/model"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name string
		text string
		rule model.Rule
		want bool
	}{
		{
			name: "catch-all matches anything",
			text: "nothing special at all",
			rule: model.Rule{},
			want: true,
		},
		{
			name: "catch-all matches whitespace-only text",
			text: "   \t  ",
			rule: model.Rule{},
			want: true,
		},
		{
			name: "include_any satisfied",
			text: "this is URGENT, please respond",
			rule: model.Rule{IncludeAny: []string{"urgent", "asap"}, Exclude: []string{"test"}},
			want: true,
		},
		{
			name: "exclude wins over include_any",
			text: "urgent test case",
			rule: model.Rule{IncludeAny: []string{"urgent", "asap"}, Exclude: []string{"test"}},
			want: false,
		},
		{
			name: "include_any unsatisfied",
			text: "nothing special",
			rule: model.Rule{IncludeAny: []string{"urgent", "asap"}, Exclude: []string{"test"}},
			want: false,
		},
		{
			name: "include_all requires every keyword",
			text: "invoice for the march delivery",
			rule: model.Rule{IncludeAll: []string{"invoice", "delivery"}},
			want: true,
		},
		{
			name: "include_all fails on one missing keyword",
			text: "invoice for march",
			rule: model.Rule{IncludeAll: []string{"invoice", "delivery"}},
			want: false,
		},
		{
			name: "include_all and include_any combined",
			text: "invoice overdue, urgent",
			rule: model.Rule{IncludeAll: []string{"invoice"}, IncludeAny: []string{"urgent", "asap"}},
			want: true,
		},
		{
			name: "include_all ok but include_any unsatisfied",
			text: "invoice attached",
			rule: model.Rule{IncludeAll: []string{"invoice"}, IncludeAny: []string{"urgent", "asap"}},
			want: false,
		},
		{
			name: "case-insensitive on message side",
			text: "KUBERNETES RELEASED",
			rule: model.Rule{IncludeAny: []string{"kubernetes"}},
			want: true,
		},
		{
			name: "case-insensitive on keyword side",
			text: "kubernetes released",
			rule: model.Rule{IncludeAny: []string{"KUBERNETES"}},
			want: true,
		},
		{
			name: "exclude is case-insensitive",
			text: "a SPAM message",
			rule: model.Rule{Exclude: []string{"spam"}},
			want: false,
		},
		{
			name: "exclude wins over include_all",
			text: "urgent invoice spam",
			rule: model.Rule{IncludeAll: []string{"urgent", "invoice"}, Exclude: []string{"spam"}},
			want: false,
		},
		{
			name: "exclude only, no hit",
			text: "regular chatter",
			rule: model.Rule{Exclude: []string{"spam"}},
			want: true,
		},
		{
			name: "substring match inside a word",
			text: "prepayment received",
			rule: model.Rule{IncludeAny: []string{"payment"}},
			want: true,
		},
		{
			name: "unicode keywords",
			text: "Срочно нужна помощь",
			rule: model.Rule{IncludeAny: []string{"срочно"}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(tt.text, tt.rule)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Matches() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchesIsPure(t *testing.T) {
	rule := model.Rule{IncludeAny: []string{"urgent"}, Exclude: []string{"test"}}
	text := "urgent delivery"
	first := Matches(text, rule)
	second := Matches(text, rule)
	if first != second {
		t.Errorf("Matches() not idempotent: first=%v second=%v", first, second)
	}
}

func TestEvaluate(t *testing.T) {
	catchAll := model.Rule{ID: "c-1", ChatID: -100123, Label: "A"}
	invoice := model.Rule{ID: "c-2", ChatID: -100123, Label: "B", IncludeAll: []string{"invoice"}}
	urgent := model.Rule{ID: "c-3", ChatID: -100123, Label: "C", IncludeAny: []string{"urgent"}}

	tests := []struct {
		name  string
		text  string
		rules []model.Rule
		want  []string // matched labels, in order
	}{
		{
			name:  "no rules, no error",
			text:  "anything",
			rules: nil,
			want:  nil,
		},
		{
			name:  "fan-out preserves rule order",
			text:  "invoice #42",
			rules: []model.Rule{catchAll, invoice},
			want:  []string{"A", "B"},
		},
		{
			name:  "only the satisfied rules match",
			text:  "just chatting",
			rules: []model.Rule{catchAll, invoice, urgent},
			want:  []string{"A"},
		},
		{
			name:  "every rule evaluated independently",
			text:  "urgent invoice",
			rules: []model.Rule{catchAll, invoice, urgent},
			want:  []string{"A", "B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := Evaluate(tt.text, tt.rules)
			var got []string
			for _, r := range matched {
				got = append(got, r.Label)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate() labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchedKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		rule model.Rule
		want []string
	}{
		{
			name: "reports include hits from both sets",
			text: "urgent invoice attached",
			rule: model.Rule{IncludeAll: []string{"invoice"}, IncludeAny: []string{"urgent", "asap"}},
			want: []string{"invoice", "urgent"},
		},
		{
			name: "catch-all reports nothing",
			text: "hello",
			rule: model.Rule{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchedKeywords(tt.text, tt.rule)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchedKeywords() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
