// Package timeutil provides utilities for working with time in a consistent
// manner. All time-related functions ensure the time is represented
// in UTC, helping to avoid issues related to time zone discrepancies.
package timeutil

import "time"

func Now() time.Time {
	return time.Now().UTC()
}

// TimestampMillis returns t as milliseconds since the Unix epoch.
func TimestampMillis(t time.Time) int64 {
	return t.UnixMilli()
}
