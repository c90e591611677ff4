// Package timeutil provides timezone utilities for the Lagos timezone (UTC+1).
// The PPTLinks catalog reports all course timestamps in West Africa Time, so
// reminder arithmetic and rendered dates must agree with it.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// LagosTZ is the Lagos timezone (UTC+1, no DST).
// Nigeria has never observed daylight saving time, so this is constant year-round.
var LagosTZ = time.FixedZone("Africa/Lagos", 1*60*60)

// Now returns the current time in Lagos timezone.
func Now() time.Time {
	return time.Now().In(LagosTZ)
}

// ToLagos converts a time to Lagos timezone.
func ToLagos(t time.Time) time.Time {
	return t.In(LagosTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Lagos timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, LagosTZ)
}

// DateTime creates a time in Lagos timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, LagosTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Lagos timezone.
func StartOfDay(t time.Time) time.Time {
	lagos := ToLagos(t)
	return time.Date(lagos.Year(), lagos.Month(), lagos.Day(), 0, 0, 0, 0, LagosTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in Lagos timezone.
func EndOfDay(t time.Time) time.Time {
	lagos := ToLagos(t)
	return time.Date(lagos.Year(), lagos.Month(), lagos.Day(), 23, 59, 59, 999999999, LagosTZ)
}

// FormatHuman formats a timestamp the way course notifications display it,
// e.g. "January 02, 2006 at 03:04 PM".
func FormatHuman(t time.Time) string {
	return ToLagos(t).Format("January 02, 2006 at 03:04 PM")
}

// FormatShort formats a timestamp as "02 Jan 15:04".
func FormatShort(t time.Time) string {
	return ToLagos(t).Format("02 Jan 15:04")
}

// FormatRelative returns a human-friendly description of how far away t is
// from now, e.g. "in 15 minutes", "in 2 hours", "3 days ago".
func FormatRelative(t, now time.Time) string {
	d := t.Sub(now)
	past := d < 0
	if past {
		d = -d
	}

	var phrase string
	switch {
	case d < time.Minute:
		phrase = "moments"
	case d < time.Hour:
		m := int(d.Round(time.Minute) / time.Minute)
		phrase = fmt.Sprintf("%d minute%s", m, plural(m))
	case d < 48*time.Hour:
		h := int(d.Round(time.Hour) / time.Hour)
		phrase = fmt.Sprintf("%d hour%s", h, plural(h))
	default:
		days := int(d.Round(24*time.Hour) / (24 * time.Hour))
		phrase = fmt.Sprintf("%d day%s", days, plural(days))
	}

	if past {
		return phrase + " ago"
	}
	return "in " + phrase
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// IsSameDay returns true if a and b fall on the same Lagos calendar day.
func IsSameDay(a, b time.Time) bool {
	a, b = ToLagos(a), ToLagos(b)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
