package testfixtures

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/example/scanventory/internal/gateway"
	"github.com/example/scanventory/internal/persistence"
)

var (
	reservationCounter int64
	journalCounter     uint64
)

var referenceTime = time.Date(2024, time.May, 6, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Reservation fixtures ---------------------------

// ReservationOption customises a reservation fixture.
type ReservationOption func(*gateway.Reservation)

// NewReservation returns a one-day loan of tool0001 to usr0001 starting at
// ReferenceTime, with a unique ID.
func NewReservation(opts ...ReservationOption) gateway.Reservation {
	res := gateway.Reservation{
		ID:    atomic.AddInt64(&reservationCounter, 1),
		User:  gateway.Party{Code: "usr0001", Username: "mmuster", FirstName: "Max", LastName: "Muster"},
		Tool:  gateway.Party{Code: "tool0001", Name: "Drill"},
		Start: referenceTime,
		End:   referenceTime.Add(8 * time.Hour),
	}
	for _, opt := range opts {
		opt(&res)
	}
	return res
}

// WithReservationID overrides the reservation ID.
func WithReservationID(id int64) ReservationOption {
	return func(res *gateway.Reservation) {
		res.ID = id
	}
}

// WithReservationRange overrides start and end.
func WithReservationRange(start, end time.Time) ReservationOption {
	return func(res *gateway.Reservation) {
		res.Start = start
		res.End = end
	}
}

// WithReservationTool overrides the tool party.
func WithReservationTool(code, name string) ReservationOption {
	return func(res *gateway.Reservation) {
		res.Tool = gateway.Party{Code: code, Name: name}
	}
}

// WithReservationUser overrides the borrower party.
func WithReservationUser(party gateway.Party) ReservationOption {
	return func(res *gateway.Reservation) {
		res.User = party
	}
}

// WithReservationNote sets the note.
func WithReservationNote(note string) ReservationOption {
	return func(res *gateway.Reservation) {
		res.Note = note
	}
}

// ----------------------------- Journal fixtures -----------------------------

// JournalOption customises a journal entry fixture.
type JournalOption func(*persistence.JournalEntry)

// NewJournalEntry returns a successful reservation entry recorded at
// ReferenceTime with a unique ID.
func NewJournalEntry(opts ...JournalOption) persistence.JournalEntry {
	n := atomic.AddUint64(&journalCounter, 1)
	entry := persistence.JournalEntry{
		ID:           "journal-" + strconv.FormatUint(n, 10),
		Kind:         "reservation",
		UserCode:     "usr0001",
		ToolCode:     "tool0001",
		DurationDays: 1,
		Outcome:      persistence.JournalOutcomeSuccess,
		Message:      "Reservation saved",
		RecordedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	return entry
}

// WithJournalID overrides the entry ID.
func WithJournalID(id string) JournalOption {
	return func(entry *persistence.JournalEntry) {
		entry.ID = id
	}
}

// WithJournalKind overrides the commit kind.
func WithJournalKind(kind string) JournalOption {
	return func(entry *persistence.JournalEntry) {
		entry.Kind = kind
	}
}

// WithJournalTool overrides the tool code.
func WithJournalTool(code string) JournalOption {
	return func(entry *persistence.JournalEntry) {
		entry.ToolCode = code
	}
}

// WithJournalFailure marks the entry failed with message.
func WithJournalFailure(message string) JournalOption {
	return func(entry *persistence.JournalEntry) {
		entry.Outcome = persistence.JournalOutcomeFailure
		entry.Message = message
	}
}

// WithJournalRecordedAt overrides the timestamp.
func WithJournalRecordedAt(at time.Time) JournalOption {
	return func(entry *persistence.JournalEntry) {
		entry.RecordedAt = at
	}
}
