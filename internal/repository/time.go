package repository

import "time"

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// formatTime stores timestamps as whole-second RFC3339 UTC text. The
// fixed width keeps lexicographic comparison correct for day-range
// queries and ORDER BY; variable-precision fractions would not sort
// ("...T00:00:00.5Z" compares below "...T00:00:00Z").
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
