package util

import (
	"sort"
	"time"
)

// DayLayout is the calendar-day layout used by daily price series.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD key. Returns (t, true) if it worked.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// UnixDay truncates a unix timestamp to its UTC calendar day.
func UnixDay(ts int64) time.Time {
	return time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
}

// SortedDayKeys returns the parsable keys of m in chronological order; others are dropped.
func SortedDayKeys[V any](m map[string]V) []string {
	type kv struct {
		key string
		day time.Time
	}
	days := make([]kv, 0, len(m))
	for k := range m {
		if d, ok := ParseDay(k); ok {
			days = append(days, kv{k, d})
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day.Before(days[j].day) })

	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.key
	}
	return keys
}
