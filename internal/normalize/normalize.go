package normalize

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxSearchTermLength bounds free-text search terms before they reach the row source.
const MaxSearchTermLength = 200

// endOfDayTick is the smallest representable unit subtracted from the next
// day's start so the whole end day stays inside the interval.
const endOfDayTick = 100 * time.Nanosecond

// DateRange is a normalized UTC interval. A nil bound means unbounded on that side.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// DateRangeOf expands optional calendar dates into UTC day boundaries:
// the start date becomes 00:00:00 UTC, the end date becomes the last
// representable instant of that day. Inverted bounds are swapped.
func DateRangeOf(from, to *time.Time) DateRange {
	if from != nil && to != nil && from.After(*to) {
		from, to = to, from
	}
	var r DateRange
	if from != nil {
		start := startOfDayUTC(*from)
		r.Start = &start
	}
	if to != nil {
		end := startOfDayUTC(*to).AddDate(0, 0, 1).Add(-endOfDayTick)
		r.End = &end
	}
	return r
}

// ParseDateRange parses optional "2006-01-02" values into a normalized range.
// Unparseable values are dropped, leaving that side unbounded.
func ParseDateRange(from, to string) DateRange {
	return DateRangeOf(parseDate(from), parseDate(to))
}

func parseDate(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", trimmed, time.UTC)
	if err != nil {
		return nil
	}
	return &parsed
}

func startOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Text trims the value and reports absence for blank input.
func Text(value string) string {
	return strings.TrimSpace(value)
}

// SearchTerm trims and truncates a free-text query to MaxSearchTermLength
// characters. Truncation happens on rune boundaries so multi-byte input
// never degrades into invalid UTF-8.
func SearchTerm(value string) string {
	trimmed := strings.TrimSpace(value)
	if utf8.RuneCountInString(trimmed) <= MaxSearchTermLength {
		return trimmed
	}
	runes := []rune(trimmed)
	return string(runes[:MaxSearchTermLength])
}

// TriState maps result filters onto an optional boolean:
// "success" is true, "failure"/"fail" is false, anything else applies no filter.
func TriState(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "success":
		b := true
		return &b
	case "failure", "fail":
		b := false
		return &b
	default:
		return nil
	}
}
