package dataset

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Dialogue turns mention dates in two surface forms: ISO (2025-04-15) and
// written out ("April 15, 2025"). Both normalize to ISO.
var (
	isoDateRE   = regexp.MustCompile(`\b(20\d{2})-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])\b`)
	monthDateRE = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+([1-9]|[12]\d|3[01]),\s*(20\d{2})\b`)
)

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// ExtractDates returns every date mentioned in text as ISO YYYY-MM-DD
// strings, ISO forms first, each group in order of appearance.
func ExtractDates(text string) []string {
	var out []string
	for _, m := range isoDateRE.FindAllStringSubmatch(text, -1) {
		out = append(out, fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
	}
	for _, m := range monthDateRE.FindAllStringSubmatch(text, -1) {
		mm := monthNumbers[strings.ToLower(m[1])]
		dd := m[2]
		if len(dd) == 1 {
			dd = "0" + dd
		}
		out = append(out, fmt.Sprintf("%s-%s-%s", m[3], mm, dd))
	}
	return out
}

// LatestMentionedDate scans turns in order and returns the last date
// mentioned in reading order, or nil when no turn mentions one. Used to
// recover a memory timestamp when the update carries none.
func LatestMentionedDate(turns []Turn) *time.Time {
	var latest *time.Time
	for _, turn := range turns {
		dates := ExtractDates(turn.Text)
		if len(dates) == 0 {
			continue
		}
		if t := ParseTimestamp(dates[len(dates)-1]); t != nil {
			latest = t
		}
	}
	return latest
}
