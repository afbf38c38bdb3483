package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DaysPerWeek is the number of columns in a week row.
const DaysPerWeek = 7

// ErrInvalidMonth indicates a month reference could not be parsed.
var ErrInvalidMonth = errors.New("calendar: invalid month")

// Week is one Monday-first row of the month grid.
type Week struct {
	Start time.Time
	Days  [DaysPerWeek]time.Time
}

// End returns the midnight of the week's last day.
func (w Week) End() time.Time {
	return w.Days[DaysPerWeek-1]
}

// ParseMonth parses "YYYY-MM" in loc.
func ParseMonth(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	month, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}
	return month, nil
}

// MonthWeeks returns the weeks covering the month of ref, from the Monday on
// or before the first to the Sunday on or after the last day.
func MonthWeeks(ref time.Time, loc *time.Location) []Week {
	if loc == nil {
		loc = time.Local
	}
	ref = ref.In(loc)
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	last := time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, loc)

	start := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
	end := last.AddDate(0, 0, DaysPerWeek-1-mondayOffset(last.Weekday()))

	var weeks []Week
	for day := start; !day.After(end); day = day.AddDate(0, 0, DaysPerWeek) {
		week := Week{Start: day}
		for i := 0; i < DaysPerWeek; i++ {
			week.Days[i] = day.AddDate(0, 0, i)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func mondayOffset(day time.Weekday) int {
	return (int(day) + 6) % DaysPerWeek
}

// dayNumber counts calendar days of t's local date, so differences between
// two values are whole days regardless of DST shifts.
func dayNumber(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return int(time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
