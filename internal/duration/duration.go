package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a duration string matches none of the
// recognized forms or resolves to a non-positive value.
var ErrInvalidFormat = errors.New("invalid duration format")

// unitPattern accepts "2h 30m", "2h30m", "2h", "90m", "1.5h" and so on.
// Anchored on both ends so stray characters around a unit are rejected.
var unitPattern = regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)\s*h)?\s*(?:(\d+(?:\.\d+)?)\s*m)?$`)

// Parse converts a free-form duration string into a number of seconds.
//
// Recognized forms, checked in order:
//  1. "<H>h <M>m" with either part optional ("2h 30m", "90m", "2h")
//  2. decimal hours with a trailing h ("1.5h")
//  3. a bare decimal number, interpreted as hours ("2.5")
//
// Minutes are taken literally: "90m" is 5400 seconds, not 1h30m.
func Parse(raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, ErrInvalidFormat
	}

	if m := unitPattern.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		var total float64
		if m[1] != "" {
			hours, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, ErrInvalidFormat
			}
			total += hours * 3600
		}
		if m[2] != "" {
			minutes, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return 0, ErrInvalidFormat
			}
			total += minutes * 60
		}
		return positive(int64(total))
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}
	return positive(int64(value * 3600))
}

func positive(seconds int64) (int64, error) {
	if seconds <= 0 {
		return 0, ErrInvalidFormat
	}
	return seconds, nil
}

// Format renders seconds in the short human form used by summaries:
// "2h 30m", "2h", "45m 10s", "30s".
func Format(seconds int64) string {
	if seconds < 0 {
		return "0s"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	case minutes > 0 && secs > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// FormatClock renders seconds as a zero-padded HH:MM:SS string.
func FormatClock(seconds int64) string {
	if seconds < 0 {
		return "00:00:00"
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
