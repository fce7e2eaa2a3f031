// Package rules implements the keyword rule store and matching engine.
package rules

import (
	"strings"

	"watch_bot/internal/model"
)

// Matches reports whether a message text satisfies a single rule.
// Exclude keywords have absolute priority, then every include_all
// keyword must be present, then at least one include_any keyword if the
// set is non-empty. All comparisons are case-insensitive substring
// checks. A rule with both include sets empty matches any non-excluded
// text.
func Matches(text string, r model.Rule) bool {
	normalized := strings.ToLower(text)

	for _, kw := range r.Exclude {
		if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
			return false
		}
	}

	for _, kw := range r.IncludeAll {
		if !strings.Contains(normalized, strings.ToLower(kw)) {
			return false
		}
	}

	if len(r.IncludeAny) > 0 {
		found := false
		for _, kw := range r.IncludeAny {
			if strings.Contains(normalized, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Evaluate returns every rule that matches the text, preserving the
// order of the input slice. A message may satisfy several rules at
// once; each match produces its own log row downstream.
func Evaluate(text string, rs []model.Rule) []model.Rule {
	var matched []model.Rule
	for _, r := range rs {
		if Matches(text, r) {
			matched = append(matched, r)
		}
	}
	return matched
}

// MatchedKeywords returns the include keywords of the rule that occur
// in the text, for reporting in log rows.
func MatchedKeywords(text string, r model.Rule) []string {
	normalized := strings.ToLower(text)
	var found []string
	for _, kw := range append(append([]string{}, r.IncludeAll...), r.IncludeAny...) {
		if kw != "" && strings.Contains(normalized, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}
