package persistence

import "time"

// JournalOutcome records whether a journaled commit succeeded.
type JournalOutcome string

const (
	// JournalOutcomeSuccess marks a commit the backend accepted.
	JournalOutcomeSuccess JournalOutcome = "success"
	// JournalOutcomeFailure marks a commit that failed.
	JournalOutcomeFailure JournalOutcome = "failure"
)

// JournalEntry is one commit attempt made by the station.
type JournalEntry struct {
	ID           string
	Kind         string
	UserCode     string
	ToolCode     string
	DurationDays int
	Outcome      JournalOutcome
	Message      string
	RecordedAt   time.Time
}
