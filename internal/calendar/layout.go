package calendar

import (
	"sort"
	"time"
)

// Segment is the part of a multi-day event visible in one week.
type Segment struct {
	EventIndex  int
	Lane        int
	StartColumn int
	EndColumn   int
}

// WeekLayout is the placement of one week row.
type WeekLayout struct {
	Week             Week
	Lanes            [][]Segment
	SinglesPerDay    [DaysPerWeek]int
	MaxSinglesPerDay int
	Height           int
}

// LaneCount returns the number of bar lanes.
func (w WeekLayout) LaneCount() int {
	return len(w.Lanes)
}

// MonthLayout is the placement of a whole visible range.
type MonthLayout struct {
	Tunables Tunables
	Weeks    []WeekLayout
	Height   int
}

// IsMultiDay reports whether the event's local end date lies at least one
// calendar day after its local start date.
func IsMultiDay(ev Event, loc *time.Location) bool {
	return dayNumber(ev.End, loc)-dayNumber(ev.Start, loc) >= 1
}

// Layout places events onto weeks. It is a pure function of its inputs and
// safe for concurrent use.
func Layout(events []Event, weeks []Week, tunables Tunables, loc *time.Location) MonthLayout {
	if loc == nil {
		loc = time.Local
	}
	out := MonthLayout{Tunables: tunables, Weeks: make([]WeekLayout, 0, len(weeks))}

	multi := make([]bool, len(events))
	for i, ev := range events {
		multi[i] = IsMultiDay(ev, loc)
	}

	total := tunables.HeaderHeight + tunables.SafetyMargin
	for _, week := range weeks {
		wl := layoutWeek(events, multi, week, loc)
		wl.Height = WeekHeight(wl.LaneCount(), wl.MaxSinglesPerDay, tunables)
		total += wl.Height
		out.Weeks = append(out.Weeks, wl)
	}
	out.Height = total
	return out
}

// WeekHeight returns the row height for the given density: empty rows get
// WeekMin, others grow by EventLine per lane and single, capped at
// MaxWeekHeight.
func WeekHeight(lanes, singles int, t Tunables) int {
	if lanes <= 0 && singles <= 0 {
		return t.WeekMin
	}
	height := t.WeekBase + t.EventLine*(lanes+singles) + t.WeekPad
	if height > t.MaxWeekHeight {
		return t.MaxWeekHeight
	}
	return height
}

func layoutWeek(events []Event, multi []bool, week Week, loc *time.Location) WeekLayout {
	wl := WeekLayout{Week: week}
	weekStart := dayNumber(week.Start, loc)
	weekEnd := weekStart + DaysPerWeek - 1

	var segments []Segment
	for i, ev := range events {
		start := dayNumber(ev.Start, loc)
		end := dayNumber(ev.End, loc)
		if !multi[i] {
			// Inverted ranges cover no day.
			if end < start || start < weekStart || start > weekEnd {
				continue
			}
			wl.SinglesPerDay[start-weekStart]++
			continue
		}

		clampedStart := max(start, weekStart)
		clampedEnd := min(end, weekEnd)
		if clampedStart > clampedEnd {
			continue
		}
		segments = append(segments, Segment{
			EventIndex:  i,
			StartColumn: clampedStart - weekStart,
			EndColumn:   clampedEnd - weekStart,
		})
	}

	for _, count := range wl.SinglesPerDay {
		if count > wl.MaxSinglesPerDay {
			wl.MaxSinglesPerDay = count
		}
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].StartColumn != segments[j].StartColumn {
			return segments[i].StartColumn < segments[j].StartColumn
		}
		return segments[i].EndColumn > segments[j].EndColumn
	})

	for _, seg := range segments {
		placed := false
		for lane := range wl.Lanes {
			if fits(wl.Lanes[lane], seg) {
				seg.Lane = lane
				wl.Lanes[lane] = append(wl.Lanes[lane], seg)
				placed = true
				break
			}
		}
		if !placed {
			seg.Lane = len(wl.Lanes)
			wl.Lanes = append(wl.Lanes, []Segment{seg})
		}
	}
	return wl
}

func fits(lane []Segment, seg Segment) bool {
	for _, other := range lane {
		if !(seg.EndColumn < other.StartColumn || seg.StartColumn > other.EndColumn) {
			return false
		}
	}
	return true
}
