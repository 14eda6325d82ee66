package slack

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp parses a Slack message timestamp such as "1618377073.000100".
func ParseTimestamp(ts string) (time.Time, error) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ts %q: %w", ts, err)
	}

	var usec int64
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		usec, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid ts %q: %w", ts, err)
		}
	}
	return time.Unix(s, usec*int64(time.Microsecond)).UTC(), nil
}

// FormatTimestamp renders t the way conversations.history expects oldest/latest.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}
