package autotrader

import (
	"fmt"
	"time"
)

var easternLocation = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// The tzdata package ships in most Go base images; if it's missing,
		// fall back to a fixed EST offset rather than panicking at import time.
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Location returns the America/New_York location backing every ET-day
// calculation, for callers (e.g. cron scheduling) that need it directly.
func Location() *time.Location { return easternLocation }

// ETNow returns the current instant expressed in America/New_York.
func ETNow(clock Clock) time.Time {
	return clock.Now().In(easternLocation)
}

// ETDateString formats an instant as its ET calendar date, "YYYY-MM-DD".
func ETDateString(t time.Time) string {
	return t.In(easternLocation).Format("2006-01-02")
}

// IsWeekday reports whether t, read as ET, falls on a trading weekday.
func IsWeekday(t time.Time) bool {
	d := t.In(easternLocation).Weekday()
	return d >= time.Monday && d <= time.Friday
}

// IsMarketHours reports whether t, read as ET, falls within 09:30-16:00 inclusive.
func IsMarketHours(t time.Time) bool {
	et := t.In(easternLocation)
	if !IsWeekday(et) {
		return false
	}
	minutesOfDay := et.Hour()*60 + et.Minute()
	return minutesOfDay >= 9*60+30 && minutesOfDay <= 16*60
}

// IsAfterRehydrationBoundary reports whether t, read as ET, is at or after 16:15.
func IsAfterRehydrationBoundary(t time.Time) bool {
	et := t.In(easternLocation)
	return et.Hour()*60+et.Minute() >= 16*60+15
}

// IsAfterNineAM reports whether t, read as ET, is at or after 09:00.
func IsAfterNineAM(t time.Time) bool {
	et := t.In(easternLocation)
	return et.Hour()*60+et.Minute() >= 9*60
}

// parseHHMM parses a "HH:MM" clock string into minutes-of-day.
func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid HH:MM time %q: %w", s, err)
	}
	return h*60 + m, nil
}

// WithinExecutionWindow reports whether t's ET wall-clock falls within
// [window.Start, window.End] inclusive. A nil window always matches.
func WithinExecutionWindow(t time.Time, window *ExecutionWindow) (bool, error) {
	if window == nil {
		return true, nil
	}
	start, err := parseHHMM(window.Start)
	if err != nil {
		return false, err
	}
	end, err := parseHHMM(window.End)
	if err != nil {
		return false, err
	}
	now := t.In(easternLocation)
	nowMinutes := now.Hour()*60 + now.Minute()
	return nowMinutes >= start && nowMinutes <= end, nil
}

// IsPastExecutionWindow reports whether t's ET wall-clock is after window.End.
func IsPastExecutionWindow(t time.Time, window *ExecutionWindow) (bool, error) {
	if window == nil {
		return false, nil
	}
	end, err := parseHHMM(window.End)
	if err != nil {
		return false, err
	}
	now := t.In(easternLocation)
	return now.Hour()*60+now.Minute() > end, nil
}
