package projects

import (
	"strings"
	"time"
)

const enDash = "–"

var dateLayouts = []string{
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006-01",
	"01/2006",
	"2006",
}

// LeadingDate parses the start of a date range such as "Feb 2025 – Present".
// Only the token before the en-dash is read. Anything that does not parse
// yields the zero time, which sorts as the earliest date.
func LeadingDate(s string) time.Time {
	token := leadingToken(s)
	if token == "" {
		return time.Time{}
	}
	// "Sept" is common in hand-written ranges but not a Go month abbreviation.
	token = strings.Replace(token, "Sept ", "Sep ", 1)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t
		}
	}
	return time.Time{}
}

func leadingToken(s string) string {
	if i := strings.Index(s, enDash); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	if i := strings.Index(s, " - "); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
