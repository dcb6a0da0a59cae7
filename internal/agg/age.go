package agg

import (
	"net/mail"
	"strings"
	"time"
)

// AgeCategory describes one bucket in the fixed, ordered age table.
// MaxDays == 0 marks the unbounded catch-all category.
type AgeCategory struct {
	Key     string
	Label   string
	MaxDays int
}

// AgeCategories is the ordered age table used to classify messages.
// Classification is cumulative: a message falls into the first category
// whose MaxDays exceeds its age in whole days, so a 5-day-old message is
// "week", not "month".
var AgeCategories = []AgeCategory{
	{Key: "today", Label: "Today", MaxDays: 1},
	{Key: "week", Label: "This Week", MaxDays: 7},
	{Key: "month", Label: "This Month", MaxDays: 30},
	{Key: "3months", Label: "Last 3 Months", MaxDays: 90},
	{Key: "6months", Label: "Last 6 Months", MaxDays: 180},
	{Key: "year", Label: "Last Year", MaxDays: 365},
	{Key: "older", Label: "Older", MaxDays: 0},
}

// AgeCategoryOlder is the key of the unbounded catch-all category.
const AgeCategoryOlder = "older"

// NewAgeDistribution returns a histogram with every category pre-populated
// at zero, so bucket lookups never miss.
func NewAgeDistribution() map[string]int {
	dist := make(map[string]int, len(AgeCategories))
	for _, c := range AgeCategories {
		dist[c.Key] = 0
	}
	return dist
}

// dateLayouts are tried in order when RFC 5322 parsing fails. Variants with
// and without zero-padded days are both listed since senders are sloppy.
var dateLayouts = []string{
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05-0700",
}

// ParseDate parses an email Date header value. It tries RFC 5322 parsing
// first and then a fixed list of fallback layouts. ok is false when no
// format matches; no error is surfaced since an unparseable date is a
// normal condition for the classifier.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if t, err := mail.ParseDate(raw); err == nil {
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClassifyAge buckets a message date into an age category key relative to
// the current instant. A zero time (unknown date) classifies as "older".
func ClassifyAge(t time.Time) string {
	return classifyAgeAt(t, time.Now().UTC())
}

func classifyAgeAt(t, now time.Time) string {
	if t.IsZero() {
		return AgeCategoryOlder
	}

	// Zoneless layouts parse as UTC, which is the documented treatment for
	// naive dates. Whole-day truncation, not rounding.
	daysOld := int(now.Sub(t).Hours() / 24)

	for _, c := range AgeCategories {
		if c.MaxDays == 0 {
			continue
		}
		if daysOld < c.MaxDays {
			return c.Key
		}
	}
	return AgeCategoryOlder
}
