package db

import (
	"context"
	"fmt"
	"time"
)

// JournalEntry is one recorded service lifecycle transition.
type JournalEntry struct {
	ID         int64     `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	Service    string    `db:"service" json:"service"`
	Event      string    `db:"event" json:"event"`
	Status     string    `db:"status" json:"status"`
	PID        *int      `db:"pid" json:"pid,omitempty"`
	ExitCode   *int      `db:"exit_code" json:"exit_code,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// AppendJournal records a lifecycle transition.
func (db *DB) AppendJournal(ctx context.Context, entry *JournalEntry) error {
	query := `
		INSERT INTO lifecycle_journal (event_id, service, event, status, pid, exit_code, recorded_at)
		VALUES (:event_id, :service, :event, :status, :pid, :exit_code, :recorded_at)
	`
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	result, err := db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// JournalForService returns the most recent entries for one service, newest
// first.
func (db *DB) JournalForService(ctx context.Context, service string, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, event_id, service, event, status, pid, exit_code, recorded_at
		FROM lifecycle_journal
		WHERE service = ?
		ORDER BY id DESC
		LIMIT ?
	`
	var entries []JournalEntry
	if err := db.SelectContext(ctx, &entries, query, service, limit); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

// RecentJournal returns the most recent entries across all services, newest
// first.
func (db *DB) RecentJournal(ctx context.Context, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, event_id, service, event, status, pid, exit_code, recorded_at
		FROM lifecycle_journal
		ORDER BY id DESC
		LIMIT ?
	`
	var entries []JournalEntry
	if err := db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}
