package calendar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/example/scanventory/internal/gateway"
)

// Event is the read-only calendar projection of a reservation.
type Event struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	Reservation gateway.Reservation
}

// EventTitle renders "<tool> – <user>" for a reservation bar.
func EventTitle(res gateway.Reservation) string {
	return fmt.Sprintf("%s – %s", res.Tool.ItemLabel(), res.User.PersonLabel())
}

// EventsFromReservations projects reservations in input order.
func EventsFromReservations(reservations []gateway.Reservation) []Event {
	if len(reservations) == 0 {
		return nil
	}
	events := make([]Event, 0, len(reservations))
	for _, res := range reservations {
		title := EventTitle(res)
		id := strconv.FormatInt(res.ID, 10)
		if res.ID == 0 {
			id = fmt.Sprintf("%s-%s-%s", res.Start.UTC().Format(time.RFC3339), res.End.UTC().Format(time.RFC3339), title)
		}
		events = append(events, Event{
			ID:          id,
			Title:       title,
			Start:       res.Start,
			End:         res.End,
			Reservation: res,
		})
	}
	return events
}
