package baskets

import "time"

// WeekOf returns the canonical week key for t: the UTC date of the
// Sunday starting the week containing t. Every basket generated within
// the same Sunday-to-Saturday window shares this key.
func WeekOf(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}
