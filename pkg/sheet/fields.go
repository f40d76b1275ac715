package sheet

import (
	"strings"
	"time"

	"predsheet/pkg/predictions"
)

// fieldRule picks a record value for header labels matching any of its substrings.
type fieldRule struct {
	field    string
	contains []string
	value    func(r predictions.MatchRecord, date any) any
}

// fieldRules is evaluated top to bottom; the first rule whose substring occurs in the
// label decides the cell value.
var fieldRules = []fieldRule{
	{"home", []string{"home"}, func(r predictions.MatchRecord, _ any) any { return r.Home }},
	{"away", []string{"away", "opponent"}, func(r predictions.MatchRecord, _ any) any { return r.Away }},
	{"league", []string{"league"}, func(r predictions.MatchRecord, _ any) any { return r.League }},
	{"time", []string{"time"}, func(r predictions.MatchRecord, _ any) any { return r.Time }},
	{"date", []string{"date"}, func(_ predictions.MatchRecord, d any) any { return d }},
	{"best_bet", []string{"bet", "best"}, func(r predictions.MatchRecord, _ any) any { return r.BestBet }},
	{"note", []string{"note", "comment"}, func(r predictions.MatchRecord, _ any) any { return r.Note }},
}

// ruleFor returns the rule for a lower-cased header label, or nil when none matches.
func ruleFor(label string) *fieldRule {
	for i := range fieldRules {
		for _, s := range fieldRules[i].contains {
			if strings.Contains(label, s) {
				return &fieldRules[i]
			}
		}
	}
	return nil
}

// FieldFor names the record field a header label is filled from ("" for none).
func FieldFor(label string) string {
	if r := ruleFor(strings.ToLower(strings.TrimSpace(label))); r != nil {
		return r.field
	}
	return ""
}

// CellValue returns what gets written under label for rec. Unmatched labels yield "".
func CellValue(label string, rec predictions.MatchRecord, date any) any {
	if r := ruleFor(label); r != nil {
		return r.value(rec, date)
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate turns an ISO 8601 date (optionally with a time part) into a calendar date.
// Anything else is returned unchanged as a string.
func ParseDate(s string) any {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	return s
}
