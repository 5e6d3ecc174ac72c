package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Define the regular expression to capture "N [units] ago"
// e.g., "2 days ago", "3 hours ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 days ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, _ := strconv.Atoi(matches[1])
	switch matches[2] {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.Add(time.Duration(-value) * 7 * 24 * time.Hour), nil
	case "day":
		return now.Add(time.Duration(-value) * 24 * time.Hour), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	default: // minute
		return now.Add(time.Duration(-value) * time.Minute), nil
	}
}

// ParseGPSTime converts a time argument into GPS seconds.
// It accepts integer GPS seconds, "now", an RFC3339 timestamp, or "N [units] ago".
func ParseGPSTime(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time value")
	}
	if gps, err := strconv.ParseInt(s, 10, 64); err == nil {
		if gps < 0 {
			return 0, fmt.Errorf("GPS time cannot be negative (received %d)", gps)
		}
		return gps, nil
	}
	if strings.EqualFold(s, "now") {
		return GPSFromTime(now), nil
	}
	if t, err := time.Parse(DateTimeFormat, s); err == nil {
		return GPSFromTime(t), nil
	}
	if t, err := ParseRelativeTime(s, now); err == nil {
		return GPSFromTime(t), nil
	}
	return 0, fmt.Errorf("invalid time '%s'. Expected GPS seconds, RFC3339, 'now' or 'N [units] ago'", s)
}
