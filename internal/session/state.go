package session

import (
	"time"

	"github.com/example/scanventory/internal/gateway"
)

// State is the phase of the scan session.
type State int

const (
	StateIdle State = iota
	StateAwaitingTool
	StateAwaitingDuration
	StateReturnArmed
)

var stateNames = map[State]string{
	StateIdle:             "idle",
	StateAwaitingTool:     "awaiting_tool",
	StateAwaitingDuration: "awaiting_duration",
	StateReturnArmed:      "return_armed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Tone classifies the last message for display feedback.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Draft is the in-progress reservation. Tool is only set with User, and
// DurationDays only with both.
type Draft struct {
	User         *gateway.User
	Tool         *gateway.Tool
	DurationDays int
}

// DurationChoice is one offered loan length with its previewed end.
type DurationChoice struct {
	Days  int
	Token string
	Until time.Time
}

// Snapshot is an immutable copy of the session published for readers.
type Snapshot struct {
	Version         uint64
	State           State
	Draft           Draft
	ReturnMode      bool
	Countdown       int
	Message         string
	Tone            Tone
	DurationChoices []DurationChoice
	UpdatedAt       time.Time
}

// CommitKind names the network commits recorded in the journal.
type CommitKind string

const (
	CommitReservation CommitKind = "reservation"
	CommitReturn      CommitKind = "return"
)

// CommitRecord describes one commit attempt and its outcome.
type CommitRecord struct {
	Kind         CommitKind
	UserCode     string
	ToolCode     string
	DurationDays int
	Succeeded    bool
	Message      string
	At           time.Time
}

// PreviewEnd returns the local end of a loan of days starting at start: 23:59
// on the last covered day.
func PreviewEnd(start time.Time, days int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if days < 1 {
		days = 1
	}
	local := start.In(loc)
	last := time.Date(local.Year(), local.Month(), local.Day()+days-1, 23, 59, 0, 0, loc)
	return last
}
