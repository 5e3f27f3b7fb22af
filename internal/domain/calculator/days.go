package calculator

import (
	"math"
	"strings"
	"time"
)

const dayMillis = 24 * 60 * 60 * 1000

// DisplayDateLayout is the date format used by the catalog UI (DD.MM.YYYY).
const DisplayDateLayout = "02.01.2006"

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	DisplayDateLayout,
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and DD.MM.YYYY.
// Date-only inputs are interpreted as UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the absolute number of whole days between two instants,
// rounded to the nearest day. A day is exactly 86 400 000 ms. A zero time
// stands for an unparsed date and yields NaN.
func DaysBetween(start, end time.Time) float64 {
	if start.IsZero() || end.IsZero() {
		return math.NaN()
	}
	diff := float64(end.UnixMilli() - start.UnixMilli())
	return math.Round(math.Abs(diff / dayMillis))
}

// DaysBetweenStrings parses both dates and returns DaysBetween, or NaN when
// either of them cannot be parsed.
func DaysBetweenStrings(start, end string) float64 {
	s, ok := ParseDate(start)
	if !ok {
		return math.NaN()
	}
	e, ok := ParseDate(end)
	if !ok {
		return math.NaN()
	}
	return DaysBetween(s, e)
}
