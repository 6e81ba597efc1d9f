package Escalation

import (
	"time"

	"Hearth/Models"
)

// IsSuppressed reports whether the member's quiet hours hold back
// notification delivery at the given time. A window whose end is before
// its start spans midnight (21:00 - 07:00 covers the whole night).
func IsSuppressed(now time.Time, settings Models.QuietHoursSettings) bool {
	if !settings.Enabled {
		return false
	}

	start, err := parseClock(settings.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(settings.End)
	if err != nil {
		return false
	}
	if start == end {
		// Zero-length window
		return false
	}

	minute := now.Hour()*60 + now.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
