package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/scanventory/internal/calendar"
)

// ReservationSource lists reservations for calendar views.
type ReservationSource interface {
	All(ctx context.Context) ([]Reservation, error)
}

// CalendarService lays out month views of the reservation list.
type CalendarService struct {
	source   ReservationSource
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewCalendarService constructs a calendar service.
func NewCalendarService(source ReservationSource, location *time.Location, now func() time.Time, logger *slog.Logger) *CalendarService {
	if location == nil {
		location = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarService{source: source, location: location, now: now, logger: defaultLogger(logger)}
}

// MonthLayout returns the lanes and heights of one month.
func (s *CalendarService) MonthLayout(ctx context.Context, params MonthLayoutParams) (view MonthView, err error) {
	if s == nil {
		err = fmt.Errorf("CalendarService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "CalendarService", "MonthLayout", "month", params.Month, "width", params.Width)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to lay out month", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	month := s.now().In(s.location)
	if params.Month != "" {
		month, err = calendar.ParseMonth(params.Month, s.location)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("month", "must be formatted YYYY-MM")
			err = vErr
			return
		}
	}
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, s.location)

	var reservations []Reservation
	if s.source != nil {
		reservations, err = s.source.All(ctx)
		if err != nil {
			return
		}
	}

	weeks := calendar.MonthWeeks(month, s.location)
	events := visibleEvents(calendar.EventsFromReservations(reservations), weeks)
	view = MonthView{
		Month:  month,
		Events: events,
		Layout: calendar.Layout(events, weeks, calendar.TunablesForWidth(params.Width), s.location),
	}
	return
}

// visibleEvents drops events entirely outside the weeks so segment indexes
// refer to a compact list.
func visibleEvents(events []calendar.Event, weeks []calendar.Week) []calendar.Event {
	if len(weeks) == 0 {
		return nil
	}
	from := weeks[0].Start
	until := weeks[len(weeks)-1].End().AddDate(0, 0, 1)
	out := make([]calendar.Event, 0, len(events))
	for _, ev := range events {
		if ev.End.Before(from) || !ev.Start.Before(until) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
