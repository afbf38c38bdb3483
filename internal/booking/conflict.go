// Package booking detects double bookings among reservations.
package booking

import (
	"sort"
	"strings"
	"time"

	"github.com/example/scanventory/internal/gateway"
)

// Candidate is a prospective reservation range for one tool. A non-zero
// ReservationID marks an edit, so the reservation never conflicts with itself.
type Candidate struct {
	ReservationID int64
	ToolCode      string
	Start         time.Time
	End           time.Time
}

// Conflict details an existing reservation overlapping the candidate.
type Conflict struct {
	WithReservationID int64
	ToolCode          string
	Borrower          string
	Start             time.Time
	End               time.Time
}

// DetectConflicts returns the reservations of the candidate's tool whose
// range overlaps the candidate, ordered by start. Ranges touching at a single
// instant do not overlap.
func DetectConflicts(existing []gateway.Reservation, candidate Candidate) []Conflict {
	code := normalizeCode(candidate.ToolCode)
	if code == "" || !candidate.Start.Before(candidate.End) {
		return nil
	}

	var conflicts []Conflict
	for _, res := range existing {
		if candidate.ReservationID != 0 && res.ID == candidate.ReservationID {
			continue
		}
		if normalizeCode(res.Tool.Code) != code {
			continue
		}
		if !Overlaps(res.Start, res.End, candidate.Start, candidate.End) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: res.ID,
			ToolCode:          res.Tool.Code,
			Borrower:          res.User.PersonLabel(),
			Start:             res.Start,
			End:               res.End,
		})
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].Start.Equal(conflicts[j].Start) {
			return conflicts[i].Start.Before(conflicts[j].Start)
		}
		return conflicts[i].WithReservationID < conflicts[j].WithReservationID
	})
	return conflicts
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
