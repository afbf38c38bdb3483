package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/scanventory/internal/calendar"
	"github.com/example/scanventory/internal/gateway"
)

type reservationSourceStub struct {
	reservations []Reservation
	err          error
}

func (s reservationSourceStub) All(context.Context) ([]Reservation, error) {
	return s.reservations, s.err
}

func TestCalendarServiceMonthLayout(t *testing.T) {
	t.Parallel()

	day := func(month time.Month, d, h int) time.Time { return time.Date(2024, month, d, h, 0, 0, 0, time.UTC) }
	source := reservationSourceStub{reservations: []Reservation{
		{ID: 1, Tool: gateway.Party{Name: "Drill"}, User: gateway.Party{Username: "mmuster"}, Start: day(time.May, 6, 8), End: day(time.May, 8, 17)},
		{ID: 2, Tool: gateway.Party{Name: "Saw"}, User: gateway.Party{Username: "emuster"}, Start: day(time.May, 8, 9), End: day(time.May, 8, 11)},
		{ID: 3, Tool: gateway.Party{Name: "Old"}, User: gateway.Party{Username: "x"}, Start: day(time.March, 1, 8), End: day(time.March, 2, 8)},
	}}
	now := func() time.Time { return day(time.January, 15, 12) }
	svc := NewCalendarService(source, time.UTC, now, nil)

	view, err := svc.MonthLayout(context.Background(), MonthLayoutParams{Month: "2024-05", Width: 375})
	if err != nil {
		t.Fatalf("MonthLayout returned error: %v", err)
	}
	if view.Month.Month() != time.May || view.Month.Day() != 1 {
		t.Fatalf("unexpected month %v", view.Month)
	}
	if len(view.Events) != 2 {
		t.Fatalf("expected the March reservation to be dropped, got %d events", len(view.Events))
	}
	if view.Layout.Tunables.Class != calendar.ViewportCompact {
		t.Fatalf("expected compact tunables, got %s", view.Layout.Tunables.Class)
	}
	week := view.Layout.Weeks[1]
	if week.LaneCount() != 1 || week.MaxSinglesPerDay != 1 {
		t.Fatalf("unexpected week density: lanes=%d singles=%d", week.LaneCount(), week.MaxSinglesPerDay)
	}
	if got := view.Events[week.Lanes[0][0].EventIndex].Title; got != "Drill – mmuster" {
		t.Fatalf("unexpected bar title %q", got)
	}
}

func TestCalendarServiceDefaultsToCurrentMonth(t *testing.T) {
	t.Parallel()

	now := func() time.Time { return time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC) }
	svc := NewCalendarService(reservationSourceStub{}, time.UTC, now, nil)

	view, err := svc.MonthLayout(context.Background(), MonthLayoutParams{})
	if err != nil {
		t.Fatalf("MonthLayout returned error: %v", err)
	}
	if view.Month.Month() != time.February || view.Layout.Tunables.Class != calendar.ViewportDesktop {
		t.Fatalf("unexpected view %v %s", view.Month, view.Layout.Tunables.Class)
	}
	if len(view.Layout.Weeks) != 5 {
		t.Fatalf("expected 5 weeks for February 2024, got %d", len(view.Layout.Weeks))
	}
}

func TestCalendarServiceErrors(t *testing.T) {
	t.Parallel()

	svc := NewCalendarService(reservationSourceStub{}, time.UTC, nil, nil)
	_, err := svc.MonthLayout(context.Background(), MonthLayoutParams{Month: "05/2024"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["month"] == "" {
		t.Fatalf("expected month validation error, got %v", err)
	}

	failing := NewCalendarService(reservationSourceStub{err: ErrBackendUnavailable}, time.UTC, nil, nil)
	if _, err := failing.MonthLayout(context.Background(), MonthLayoutParams{Month: "2024-05"}); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected source error, got %v", err)
	}
}
