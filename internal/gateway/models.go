package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// wireTimeLayout is the local-time format the backend uses when it does not
// emit RFC 3339 timestamps.
const wireTimeLayout = "2006-01-02 15:04"

// User is a borrower resolved from a scanned user code.
type User struct {
	ID        int64  `json:"id"`
	Code      string `json:"qr_code"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last", collapsing duplicated halves.
func (u User) DisplayName() string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first == "" && last == "":
		if u.Username != "" {
			return u.Username
		}
		return u.Code
	case strings.EqualFold(first, last) || last == "":
		return first
	case first == "":
		return last
	}
	return first + " " + last
}

// Tool is a lendable item resolved from a scanned tool code.
type Tool struct {
	ID         int64  `json:"id"`
	Code       string `json:"qr_code"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	IsBorrowed bool   `json:"is_borrowed"`
}

// Party is a user or tool reference embedded in reservation payloads. The
// backend sends either a bare code string or an object.
type Party struct {
	Code      string
	Name      string
	Username  string
	FirstName string
	LastName  string
}

type partyObject struct {
	Code      string `json:"qr_code"`
	AltCode   string `json:"code"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UnmarshalJSON accepts both `"usr0001"` and `{"qr_code":"usr0001",...}`.
func (p *Party) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Party{}
		return nil
	}
	if data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		*p = Party{Code: code}
		return nil
	}
	var obj partyObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode party: %w", err)
	}
	code := obj.Code
	if code == "" {
		code = obj.AltCode
	}
	*p = Party{
		Code:      code,
		Name:      obj.Name,
		Username:  obj.Username,
		FirstName: obj.FirstName,
		LastName:  obj.LastName,
	}
	return nil
}

// PersonLabel returns the label used for a borrower: username, then
// "Last First", then the code.
func (p Party) PersonLabel() string {
	if p.Username != "" {
		return p.Username
	}
	parts := make([]string, 0, 2)
	if p.LastName != "" {
		parts = append(parts, p.LastName)
	}
	if p.FirstName != "" {
		parts = append(parts, p.FirstName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return p.Code
}

// FullName returns "First Last" for info displays.
func (p Party) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name != "" {
		return name
	}
	return p.PersonLabel()
}

// ItemLabel returns the label used for a tool: name, then code.
func (p Party) ItemLabel() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Code
}

// Reservation is a loan as reported by the backend.
type Reservation struct {
	ID    int64
	User  Party
	Tool  Party
	Start time.Time
	End   time.Time
	Note  string
}

// Active reports whether the reservation covers the given instant.
func (r Reservation) Active(now time.Time) bool {
	return !r.Start.After(now) && !r.End.Before(now)
}

// InfoReservation is the reduced reservation view included in tool info.
type InfoReservation struct {
	User  Party
	Start time.Time
	End   time.Time
}

// ToolInfo bundles a tool's status with its current and next reservations.
type ToolInfo struct {
	Tool     Tool
	Active   *InfoReservation
	Upcoming []InfoReservation
}

// CreateReservationRequest is the scan-driven reservation commit.
type CreateReservationRequest struct {
	UserCode     string
	ToolCode     string
	DurationDays int
}

// ManualReservationRequest is the web-form reservation commit. The borrower
// is derived by the backend from the bearer token.
type ManualReservationRequest struct {
	ToolCode string
	Start    time.Time
	End      time.Time
	Note     string
}

// UpdateReservationRequest edits an existing reservation.
type UpdateReservationRequest struct {
	Start time.Time
	End   time.Time
	Note  string
}

type reservationWire struct {
	ID    int64  `json:"id"`
	User  Party  `json:"user"`
	Tool  Party  `json:"tool"`
	Start string `json:"start"`
	End   string `json:"end"`
	Note  string `json:"note"`
}

type infoReservationWire struct {
	User  Party  `json:"user"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type toolInfoWire struct {
	Tool     Tool                  `json:"tool"`
	Active   *infoReservationWire  `json:"active_reservation"`
	Upcoming []infoReservationWire `json:"upcoming_reservations"`
}

type createReservationBody struct {
	User     string `json:"user"`
	Tool     string `json:"tool"`
	Duration int    `json:"duration"`
}

type manualReservationBody struct {
	Tool      string `json:"tool"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Note      string `json:"note,omitempty"`
}

type updateReservationBody struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Note      string `json:"note"`
}

type returnToolBody struct {
	Tool string `json:"tool"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseWireTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.In(loc), nil
	}
	if ts, err := time.ParseInLocation(wireTimeLayout, value, loc); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

func (w reservationWire) toReservation(loc *time.Location) (Reservation, error) {
	start, err := parseWireTime(w.Start, loc)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation %d start: %w", w.ID, err)
	}
	end, err := parseWireTime(w.End, loc)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation %d end: %w", w.ID, err)
	}
	return Reservation{
		ID:    w.ID,
		User:  w.User,
		Tool:  w.Tool,
		Start: start,
		End:   end,
		Note:  w.Note,
	}, nil
}

func (w infoReservationWire) toInfo(loc *time.Location) (InfoReservation, error) {
	start, err := parseWireTime(w.Start, loc)
	if err != nil {
		return InfoReservation{}, err
	}
	end, err := parseWireTime(w.End, loc)
	if err != nil {
		return InfoReservation{}, err
	}
	return InfoReservation{User: w.User, Start: start, End: end}, nil
}
