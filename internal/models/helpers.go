package models

import "time"

// ISOTime formats an instant as a UTC RFC 3339 string, the storage format for
// every timestamp. UTC plus fixed-width formatting keeps lexicographic and
// chronological order identical.
func ISOTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// UTCDateKey returns the YYYY-MM-DD key of the instant's UTC date, used by the
// daily earnings cap, streak claims and the earnings-event decision.
func UTCDateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FloorToHour truncates to the containing top-of-hour UTC boundary.
func FloorToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// StartOfUTCDay truncates to the containing UTC midnight.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
