// Package service implements the typed CRUD and relationship API over
// the embedded store: tags, people and events, with the junction
// maintenance and uniqueness rules the screens rely on.
package service

import (
	"time"
)

// timeLayout is the storage format for timestamps: fixed-width UTC text,
// so lexical order equals chronological order under the store's default
// collation.
const timeLayout = "2006-01-02 15:04:05.000000000"

// dateLayout is the storage format for optional event dates.
const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads timestamps this layer wrote. Values always come from
// formatTime; anything else yields the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// dedupeStrings collapses repeated values, preserving first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
