package calendar

import (
	"testing"
	"time"

	"github.com/example/scanventory/internal/gateway"
)

var zurich = mustLocation("Europe/Zurich")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2024, month, day, hour, 0, 0, 0, zurich)
}

func event(start, end time.Time) Event {
	return Event{Start: start, End: end}
}

func TestMonthWeeksAreMondayFirst(t *testing.T) {
	t.Parallel()

	weeks := MonthWeeks(at(time.May, 15, 12), zurich)
	if len(weeks) != 5 {
		t.Fatalf("expected 5 weeks for May 2024, got %d", len(weeks))
	}
	if first := weeks[0].Start; first.Month() != time.April || first.Day() != 29 || first.Weekday() != time.Monday {
		t.Fatalf("unexpected first week start %v", first)
	}
	if last := weeks[len(weeks)-1].End(); last.Month() != time.June || last.Day() != 2 || last.Weekday() != time.Sunday {
		t.Fatalf("unexpected last week end %v", last)
	}
}

func TestParseMonth(t *testing.T) {
	t.Parallel()

	month, err := ParseMonth("2024-03", zurich)
	if err != nil {
		t.Fatalf("ParseMonth returned error: %v", err)
	}
	if month.Year() != 2024 || month.Month() != time.March {
		t.Fatalf("unexpected month %v", month)
	}
	if _, err := ParseMonth("March", zurich); err == nil {
		t.Fatal("expected error for malformed month")
	}
}

func TestIsMultiDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{name: "same day", start: at(time.May, 6, 8), end: at(time.May, 6, 17), want: false},
		{name: "overnight", start: at(time.May, 6, 22), end: at(time.May, 7, 1), want: true},
		{name: "three days", start: at(time.May, 6, 8), end: at(time.May, 8, 23), want: true},
		{name: "inverted", start: at(time.May, 7, 8), end: at(time.May, 6, 8), want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsMultiDay(event(tc.start, tc.end), zurich); got != tc.want {
				t.Fatalf("IsMultiDay = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	t.Parallel()

	events := []Event{
		event(at(time.May, 6, 8), at(time.May, 8, 17)),  // Mon-Wed
		event(at(time.May, 7, 8), at(time.May, 9, 17)),  // Tue-Thu
		event(at(time.May, 8, 9), at(time.May, 8, 11)),  // Wed
	}
	weeks := MonthWeeks(at(time.May, 1, 0), zurich)
	tunables := TunablesFor(ViewportDesktop)

	first := Layout(events, weeks, tunables, zurich)
	second := Layout(events, weeks, tunables, zurich)

	week := first.Weeks[1]
	if week.LaneCount() != 2 {
		t.Fatalf("expected 2 lanes, got %d", week.LaneCount())
	}
	if week.MaxSinglesPerDay != 1 || week.SinglesPerDay[2] != 1 {
		t.Fatalf("expected one single on Wednesday, got %v", week.SinglesPerDay)
	}
	if got := week.Lanes[0][0]; got.EventIndex != 0 || got.StartColumn != 0 || got.EndColumn != 2 || got.Lane != 0 {
		t.Fatalf("unexpected first lane segment %+v", got)
	}
	if got := week.Lanes[1][0]; got.EventIndex != 1 || got.StartColumn != 1 || got.EndColumn != 3 || got.Lane != 1 {
		t.Fatalf("unexpected second lane segment %+v", got)
	}
	if week.Height != 92+18*3+10 {
		t.Fatalf("unexpected week height %d", week.Height)
	}

	if first.Height != second.Height || len(first.Weeks) != len(second.Weeks) {
		t.Fatalf("layout is not deterministic")
	}
	for i := range first.Weeks {
		if first.Weeks[i].LaneCount() != second.Weeks[i].LaneCount() || first.Weeks[i].Height != second.Weeks[i].Height {
			t.Fatalf("week %d differs between runs", i)
		}
	}
}

func TestLayoutPacksNonOverlappingBarsIntoOneLane(t *testing.T) {
	t.Parallel()

	events := []Event{
		event(at(time.May, 9, 8), at(time.May, 10, 8)),  // Thu-Fri
		event(at(time.May, 6, 8), at(time.May, 7, 8)),   // Mon-Tue
		event(at(time.May, 6, 8), at(time.May, 12, 8)),  // Mon-Sun
	}
	weeks := MonthWeeks(at(time.May, 1, 0), zurich)
	layout := Layout(events, weeks, TunablesFor(ViewportDesktop), zurich)

	week := layout.Weeks[1]
	if week.LaneCount() != 2 {
		t.Fatalf("expected 2 lanes, got %d", week.LaneCount())
	}
	if got := week.Lanes[0][0].EventIndex; got != 2 {
		t.Fatalf("longest bar starting first must take lane 0, got event %d", got)
	}
	if len(week.Lanes[1]) != 2 {
		t.Fatalf("expected the two short bars to share lane 1, got %+v", week.Lanes[1])
	}
}

func TestLayoutClampsBarsToWeeks(t *testing.T) {
	t.Parallel()

	events := []Event{event(at(time.May, 3, 8), at(time.May, 8, 8))} // Fri-Wed
	weeks := MonthWeeks(at(time.May, 1, 0), zurich)
	layout := Layout(events, weeks, TunablesFor(ViewportDesktop), zurich)

	first := layout.Weeks[0].Lanes[0][0]
	if first.StartColumn != 4 || first.EndColumn != 6 {
		t.Fatalf("unexpected first week segment %+v", first)
	}
	second := layout.Weeks[1].Lanes[0][0]
	if second.StartColumn != 0 || second.EndColumn != 2 {
		t.Fatalf("unexpected second week segment %+v", second)
	}
	if layout.Weeks[2].LaneCount() != 0 {
		t.Fatalf("bar leaked into the third week")
	}
}

func TestLayoutEmptyMonthHeight(t *testing.T) {
	t.Parallel()

	tunables := TunablesFor(ViewportDesktop)
	layout := Layout(nil, MonthWeeks(at(time.May, 1, 0), zurich), tunables, zurich)

	want := tunables.HeaderHeight + 5*tunables.WeekMin + tunables.SafetyMargin
	if layout.Height != want {
		t.Fatalf("expected height %d, got %d", want, layout.Height)
	}
}

func TestWeekHeightIsMonotonicAndClamped(t *testing.T) {
	t.Parallel()

	for _, class := range []ViewportClass{ViewportCompact, ViewportTablet, ViewportDesktop} {
		tunables := TunablesFor(class)
		previous := WeekHeight(0, 0, tunables)
		if previous != tunables.WeekMin {
			t.Fatalf("%s: empty week must use WeekMin", class)
		}
		clamped := false
		for n := 1; n <= 30; n++ {
			height := WeekHeight(n/2, n-n/2, tunables)
			if height < previous {
				t.Fatalf("%s: height decreased from %d to %d at density %d", class, previous, height, n)
			}
			if height > tunables.MaxWeekHeight {
				t.Fatalf("%s: height %d exceeds max %d", class, height, tunables.MaxWeekHeight)
			}
			if height == tunables.MaxWeekHeight {
				clamped = true
			}
			previous = height
		}
		if !clamped {
			t.Fatalf("%s: expected the height to reach the clamp", class)
		}
	}
}

func TestClassForWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width int
		want  ViewportClass
	}{
		{width: 0, want: ViewportDesktop},
		{width: 375, want: ViewportCompact},
		{width: 599, want: ViewportCompact},
		{width: 600, want: ViewportTablet},
		{width: 1023, want: ViewportTablet},
		{width: 1024, want: ViewportDesktop},
		{width: 1920, want: ViewportDesktop},
	}

	for _, tc := range tests {
		if got := ClassForWidth(tc.width); got != tc.want {
			t.Fatalf("ClassForWidth(%d) = %s, want %s", tc.width, got, tc.want)
		}
	}
}

func TestEventsFromReservations(t *testing.T) {
	t.Parallel()

	reservations := []gateway.Reservation{
		{ID: 4, User: gateway.Party{Username: "mmuster"}, Tool: gateway.Party{Name: "Drill"}, Start: at(time.May, 6, 8), End: at(time.May, 7, 8)},
		{User: gateway.Party{FirstName: "Erika", LastName: "Muster"}, Tool: gateway.Party{Code: "tool0002"}, Start: at(time.May, 6, 8), End: at(time.May, 6, 9)},
	}

	events := EventsFromReservations(reservations)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "4" || events[0].Title != "Drill – mmuster" {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Title != "tool0002 – Muster Erika" || events[1].ID == "" {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}
