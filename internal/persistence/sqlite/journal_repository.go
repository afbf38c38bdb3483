package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/scanventory/internal/persistence"
)

const journalColumns = `id, kind, user_code, tool_code, duration_days, outcome, message, recorded_at`

// AppendEntry stores a new journal entry.
func (s *Storage) AppendEntry(ctx context.Context, entry persistence.JournalEntry) error {
	if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Kind) == "" {
		return persistence.ErrConstraintViolation
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	recorded := entry.RecordedAt.UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`, recorded_at_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.Kind,
		entry.UserCode,
		entry.ToolCode,
		entry.DurationDays,
		string(entry.Outcome),
		entry.Message,
		recorded.Format(time.RFC3339Nano),
		recorded.UnixNano(),
	)
	return mapError(err)
}

// GetEntry loads a journal entry by ID.
func (s *Storage) GetEntry(ctx context.Context, id string) (persistence.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journal_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return persistence.JournalEntry{}, mapError(err)
	}
	return entry, nil
}

// ListEntries returns entries matching filter, newest first.
func (s *Storage) ListEntries(ctx context.Context, filter persistence.JournalFilter) ([]persistence.JournalEntry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.ToolCode != "" {
		clauses = append(clauses, "tool_code = ?")
		args = append(args, filter.ToolCode)
	}
	if filter.Since != nil {
		clauses = append(clauses, "recorded_at_unix >= ?")
		args = append(args, filter.Since.UTC().UnixNano())
	}

	query := `SELECT ` + journalColumns + ` FROM journal_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY recorded_at_unix DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]persistence.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate journal entries: %w", err)
	}
	return entries, nil
}

// PruneBefore deletes entries recorded before cutoff and reports how many
// were removed.
func (s *Storage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE recorded_at_unix < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (persistence.JournalEntry, error) {
	var (
		entry    persistence.JournalEntry
		outcome  string
		recorded string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.Kind,
		&entry.UserCode,
		&entry.ToolCode,
		&entry.DurationDays,
		&outcome,
		&entry.Message,
		&recorded,
	); err != nil {
		return persistence.JournalEntry{}, err
	}
	entry.Outcome = persistence.JournalOutcome(outcome)
	parsed, err := time.Parse(time.RFC3339Nano, recorded)
	if err != nil {
		return persistence.JournalEntry{}, fmt.Errorf("sqlite: parse recorded_at %q: %w", recorded, err)
	}
	entry.RecordedAt = parsed
	return entry, nil
}

var _ persistence.JournalRepository = (*Storage)(nil)
