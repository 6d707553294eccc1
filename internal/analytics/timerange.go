package analytics

import (
	"fmt"
	"time"

	"github.com/serroba/scaleurl/internal/shortener"
)

// Range names accepted by ParseTimeRange.
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// TimeRange is a half-open creation time interval [From, To).
type TimeRange struct {
	From time.Time
	To   time.Time
}

// ParseTimeRange resolves a named range relative to now, in now's location.
//
//	today: local midnight to the next midnight
//	week:  Monday 00:00 of the current week to now (inclusive)
//	month: the first day of the month to the first day of the next month
func ParseTimeRange(name string, now time.Time) (TimeRange, error) {
	year, month, day := now.Date()
	loc := now.Location()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	switch name {
	case RangeToday:
		return TimeRange{From: midnight, To: midnight.AddDate(0, 0, 1)}, nil
	case RangeWeek:
		// time.Weekday counts from Sunday; shift so Monday is day zero.
		sinceMonday := (int(now.Weekday()) + 6) % 7

		return TimeRange{From: midnight.AddDate(0, 0, -sinceMonday), To: now.Add(time.Nanosecond)}, nil
	case RangeMonth:
		first := time.Date(year, month, 1, 0, 0, 0, 0, loc)

		return TimeRange{From: first, To: first.AddDate(0, 1, 0)}, nil
	default:
		return TimeRange{}, fmt.Errorf("%w: unknown time range %q, expected today, week or month",
			shortener.ErrInvalidArgument, name)
	}
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
