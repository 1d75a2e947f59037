// README: "HH:MM" wall-clock helpers used by schedules and opening hours.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrBadClock = errors.New("clock must be HH:MM")

// ParseClock converts "HH:MM" into an offset from midnight. Hours up to 47 are
// accepted so that times past midnight of the same schedule day stay ordered.
func ParseClock(s string) (time.Duration, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, ErrBadClock
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 47 {
		return 0, ErrBadClock
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrBadClock
	}
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute, nil
}

// ClockOr parses s and falls back to def when s is empty or malformed.
func ClockOr(s string, def time.Duration) time.Duration {
	if d, err := ParseClock(s); err == nil {
		return d
	}
	return def
}

// FormatClock renders t relative to the midnight of day. Times on the next
// calendar day keep counting (e.g. "25:10") so intervals never wrap.
func FormatClock(day, t time.Time) string {
	mins := int(t.Sub(day).Round(time.Minute) / time.Minute)
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
