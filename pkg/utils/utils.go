package utils

import (
	"fmt"
	"time"
)

// FormatRoundedUnit renders a duration in its largest whole unit,
// e.g. 42s, 5m, 3h, 2d. Negative durations are rendered by magnitude.
func FormatRoundedUnit(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = -seconds
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	}
	return fmt.Sprintf("%dd", seconds/86400)
}

// FormatAge renders how long ago t was relative to now, e.g. "5m ago"
func FormatAge(t, now time.Time) string {
	if now.Before(t) {
		return "just now"
	}
	return FormatRoundedUnit(now.Sub(t)) + " ago"
}
