package storeskema

import (
	"errors"
	"strings"
	"time"
)

// timeLayouts are accepted on input, most specific first. The last two cover
// timestamps rendered by Postgres text output.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
}

// ParseTime parses an RFC3339 timestamp. A space separator and a bare hour
// offset, as printed by Postgres, are accepted as well.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// FormatTime renders t in UTC using RFC3339 with trailing zeros trimmed.
func FormatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }
