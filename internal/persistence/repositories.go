package persistence

import (
	"context"
	"time"
)

// JournalFilter narrows journal listings. Zero values disable a criterion.
type JournalFilter struct {
	Kind     string
	ToolCode string
	Since    *time.Time
	Limit    int
}

// JournalRepository stores the append-only activity journal.
type JournalRepository interface {
	AppendEntry(ctx context.Context, entry JournalEntry) error
	GetEntry(ctx context.Context, id string) (JournalEntry, error)
	ListEntries(ctx context.Context, filter JournalFilter) ([]JournalEntry, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
