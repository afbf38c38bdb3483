package application

import (
	"time"

	"github.com/example/scanventory/internal/booking"
	"github.com/example/scanventory/internal/calendar"
	"github.com/example/scanventory/internal/gateway"
	"github.com/example/scanventory/internal/persistence"
)

// Principal is the web user acting through a bearer token.
type Principal struct {
	UserID   string
	Username string
	Role     string
	Token    string
}

// ReservationFilter selects a slice of the reservation list relative to now.
type ReservationFilter string

const (
	// FilterToday keeps reservations touching the current local day.
	FilterToday ReservationFilter = "today"
	// FilterActive keeps reservations running right now.
	FilterActive ReservationFilter = "active"
	// FilterFuture keeps reservations that have not started.
	FilterFuture ReservationFilter = "future"
	// FilterPast keeps reservations that have ended.
	FilterPast ReservationFilter = "past"
	// FilterAll keeps everything.
	FilterAll ReservationFilter = "all"
)

// ParseReservationFilter maps a query value to a filter. Empty means all.
func ParseReservationFilter(value string) (ReservationFilter, bool) {
	switch ReservationFilter(value) {
	case "":
		return FilterAll, true
	case FilterToday, FilterActive, FilterFuture, FilterPast, FilterAll:
		return ReservationFilter(value), true
	}
	return "", false
}

// ListReservationsParams wraps a reservation list query.
type ListReservationsParams struct {
	Filter ReservationFilter
}

// ManualReservationInput captures the web reservation form.
type ManualReservationInput struct {
	ToolCode string
	Start    time.Time
	End      time.Time
	Note     string
}

// CreateManualReservationParams wraps a manual reservation request.
type CreateManualReservationParams struct {
	Principal Principal
	Input     ManualReservationInput
}

// UpdateReservationParams wraps a reservation edit.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID int64
	Start         time.Time
	End           time.Time
	Note          string
}

// DeleteReservationParams wraps a reservation removal.
type DeleteReservationParams struct {
	Principal     Principal
	ReservationID int64
}

// ConflictCheckParams describes a prospective reservation range. A non-zero
// ExcludeID skips the reservation being edited.
type ConflictCheckParams struct {
	ToolCode  string
	Start     time.Time
	End       time.Time
	ExcludeID int64
}

// Conflict is an existing reservation overlapping a checked range.
type Conflict = booking.Conflict

// MonthLayoutParams selects the month and viewport of a calendar view.
type MonthLayoutParams struct {
	// Month is "YYYY-MM"; empty means the current month.
	Month string
	// Width is the viewport width in pixels; non-positive means desktop.
	Width int
}

// MonthView is a laid out month with the events it places.
type MonthView struct {
	Month  time.Time
	Events []calendar.Event
	Layout calendar.MonthLayout
}

// JournalQuery narrows journal listings.
type JournalQuery struct {
	Kind     string
	ToolCode string
	Since    *time.Time
	Limit    int
}

// JournalEntry is the service view of a journal row.
type JournalEntry = persistence.JournalEntry

// Reservation is the backend reservation model.
type Reservation = gateway.Reservation
