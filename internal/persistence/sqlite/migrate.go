package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

var (
	// ErrInvalidMigrationFile indicates a migration file name or body is malformed.
	ErrInvalidMigrationFile = errors.New("sqlite: invalid migration file")
	// ErrChecksumMismatch indicates an applied migration was edited afterwards.
	ErrChecksumMismatch = errors.New("sqlite: migration checksum mismatch")
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
	Checksum    string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       int
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Migrate applies every embedded migration not yet recorded.
func (s *Storage) Migrate(ctx context.Context) error {
	migrations, err := loadMigrations(embeddedMigrations)
	if err != nil {
		return err
	}
	return s.applyMigrations(ctx, migrations)
}

// AppliedMigrations lists recorded migrations in version order.
func (s *Storage) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	if err := s.initVersionTable(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, applied_at, execution_time_ms, checksum
		FROM schema_migrations
		ORDER BY version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			item      AppliedMigration
			appliedAt string
			execMs    int64
		)
		if err := rows.Scan(&item.Version, &appliedAt, &execMs, &item.Checksum); err != nil {
			return nil, fmt.Errorf("sqlite: scan applied migration: %w", err)
		}
		item.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		item.ExecutionTime = time.Duration(execMs) * time.Millisecond
		applied = append(applied, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate applied migrations: %w", err)
	}
	return applied, nil
}

func (s *Storage) applyMigrations(ctx context.Context, migrations []Migration) error {
	applied, err := s.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	checksums := make(map[int]string, len(applied))
	for _, item := range applied {
		checksums[item.Version] = item.Checksum
	}

	for _, migration := range migrations {
		if checksum, ok := checksums[migration.Version]; ok {
			if checksum != "" && checksum != migration.Checksum {
				return fmt.Errorf("%w: version %03d", ErrChecksumMismatch, migration.Version)
			}
			continue
		}

		started := time.Now()
		err := s.withTransaction(ctx, func(tx *sql.Tx) error {
			for i, stmt := range splitStatements(migration.SQL) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlite: migration %03d_%s statement %d: %w", migration.Version, migration.Description, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO schema_migrations (version, applied_at, execution_time_ms, checksum)
				VALUES (?, ?, ?, ?)
			`, migration.Version, time.Now().UTC().Format(time.RFC3339), time.Since(started).Milliseconds(), migration.Checksum)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) initVersionTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL DEFAULT 0,
			checksum TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: create schema_migrations table: %w", err)
	}
	return nil
}

// loadMigrations reads {version}_{description}.sql files from the root of
// migrations/ in fsys, sorted by version.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: read migrations: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			return nil, fmt.Errorf("%w: %s does not match {version}_{description}.sql", ErrInvalidMigrationFile, entry.Name())
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMigrationFile, entry.Name(), err)
		}
		if other, ok := seen[version]; ok {
			return nil, fmt.Errorf("%w: version %d in both %s and %s", ErrInvalidMigrationFile, version, other, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(fsys, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("sqlite: read %s: %w", entry.Name(), err)
		}
		if len(splitStatements(string(body))) == 0 {
			return nil, fmt.Errorf("%w: %s has no statements", ErrInvalidMigrationFile, entry.Name())
		}
		sum := sha256.Sum256(body)
		migrations = append(migrations, Migration{
			Version:     version,
			Description: matches[2],
			SQL:         string(body),
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// splitStatements splits on semicolons and drops comment-only lines.
func splitStatements(body string) []string {
	var statements []string
	for _, raw := range strings.Split(body, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
