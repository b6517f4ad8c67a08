package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of every date-only value (start_date,
// end_date, blocked ranges, query windows).
const DateLayout = "2006-01-02"

// ErrInvalidDate is wrapped by every parse failure below.
var ErrInvalidDate = errors.New("invalid date")

// ParseDateOnlyStart returns 00:00:00.000 of the given YYYY-MM-DD day in
// the process' local location.
func ParseDateOnlyStart(s string) (time.Time, error) {
	return ParseDateOnlyStartIn(s, time.Local)
}

// ParseDateOnlyEnd returns 23:59:59.999 of the given YYYY-MM-DD day in
// the process' local location.
func ParseDateOnlyEnd(s string) (time.Time, error) {
	return ParseDateOnlyEndIn(s, time.Local)
}

// ParseDateOnlyStartIn interprets year, month and day literally as calendar
// values of loc. The day never shifts across a timezone boundary because no
// UTC instant is involved in the conversion.
func ParseDateOnlyStartIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseDateOnlyEndIn is the end-of-day counterpart of ParseDateOnlyStartIn.
func ParseDateOnlyEndIn(s string, loc *time.Location) (time.Time, error) {
	t, err := ParseDateOnlyStartIn(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return EndOfDay(t), nil
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last millisecond of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// TodayStart and TodayEnd bracket the calendar day containing now.
func TodayStart(now time.Time) time.Time { return StartOfDay(now) }
func TodayEnd(now time.Time) time.Time   { return EndOfDay(now) }

// FormatDateOnly renders t's calendar day as YYYY-MM-DD.
func FormatDateOnly(t time.Time) string { return t.Format(DateLayout) }

// DaysInclusive counts calendar days in [start, end]. Both arguments must be
// date-only strings; it returns 0 when end precedes start.
func DaysInclusive(start, end string) (int, error) {
	s, err := time.ParseInLocation(DateLayout, start, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidDate, start)
	}
	e, err := time.ParseInLocation(DateLayout, end, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidDate, end)
	}
	if e.Before(s) {
		return 0, nil
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}
