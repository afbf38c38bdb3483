package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/scanventory/internal/persistence"
	"github.com/example/scanventory/internal/session"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// JournalService records station commits and serves the activity journal.
type JournalService struct {
	entries     persistence.JournalRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewJournalService constructs a journal service. A nil idGenerator falls
// back to random UUIDs.
func NewJournalService(entries persistence.JournalRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *JournalService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &JournalService{entries: entries, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// RecordCommit appends one commit attempt to the journal.
func (s *JournalService) RecordCommit(ctx context.Context, record session.CommitRecord) (err error) {
	if s == nil || s.entries == nil {
		return fmt.Errorf("journal repository not configured")
	}

	entry := persistence.JournalEntry{
		ID:           s.idGenerator(),
		Kind:         string(record.Kind),
		UserCode:     record.UserCode,
		ToolCode:     record.ToolCode,
		DurationDays: record.DurationDays,
		Outcome:      persistence.JournalOutcomeFailure,
		Message:      record.Message,
		RecordedAt:   record.At,
	}
	if record.Succeeded {
		entry.Outcome = persistence.JournalOutcomeSuccess
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now()
	}

	logger := serviceLogger(ctx, s.logger, "JournalService", "RecordCommit",
		"journal_id", entry.ID,
		"kind", entry.Kind,
		"outcome", string(entry.Outcome),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record commit", "error", err)
			return
		}
		logger.DebugContext(ctx, "commit recorded")
	}()

	if err = s.entries.AppendEntry(ctx, entry); err != nil {
		err = fmt.Errorf("append journal entry: %w", err)
	}
	return
}

// List returns journal entries newest first. The limit is clamped to
// [1, 500] and defaults to 50.
func (s *JournalService) List(ctx context.Context, query JournalQuery) ([]JournalEntry, error) {
	if s == nil || s.entries == nil {
		return nil, fmt.Errorf("journal repository not configured")
	}
	limit := query.Limit
	switch {
	case limit <= 0:
		limit = defaultJournalLimit
	case limit > maxJournalLimit:
		limit = maxJournalLimit
	}
	entries, err := s.entries.ListEntries(ctx, persistence.JournalFilter{
		Kind:     query.Kind,
		ToolCode: query.ToolCode,
		Since:    query.Since,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	return entries, nil
}

// Get returns one journal entry.
func (s *JournalService) Get(ctx context.Context, id string) (JournalEntry, error) {
	if s == nil || s.entries == nil {
		return JournalEntry{}, fmt.Errorf("journal repository not configured")
	}
	entry, err := s.entries.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return JournalEntry{}, ErrNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

// Prune drops entries older than retention and returns how many were removed.
func (s *JournalService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if s == nil || s.entries == nil {
		return 0, fmt.Errorf("journal repository not configured")
	}
	if retention <= 0 {
		return 0, nil
	}
	removed, err := s.entries.PruneBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	if removed > 0 {
		serviceLogger(ctx, s.logger, "JournalService", "Prune").InfoContext(ctx, "journal pruned", "removed", removed)
	}
	return removed, nil
}

var _ session.Journal = (*JournalService)(nil)
