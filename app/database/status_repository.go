package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lysyi3m/cima-comb/app/content"
)

// StatusRepository keeps one health row per source
type StatusRepository struct {
	db *DB
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// RecordStatus overwrites the source's row with the latest observation
func (r *StatusRepository) RecordStatus(ctx context.Context, sourceName, status, errMsg string) error {
	switch status {
	case StatusActive, StatusFailed, StatusUnknown:
	default:
		return fmt.Errorf("invalid source status %q", status)
	}

	if len([]rune(errMsg)) > maxErrorLength {
		errMsg = content.Truncate(errMsg, maxErrorLength)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO site_status (site_name, last_scraped, status, last_error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (site_name) DO UPDATE SET
			last_scraped = excluded.last_scraped,
			status = excluded.status,
			last_error = excluded.last_error
	`, sourceName, time.Now().UTC(), status, nullString(errMsg))
	if err != nil {
		return fmt.Errorf("failed to record status for %s: %w", sourceName, err)
	}

	return nil
}

// GetStatus returns nil without error for a source that was never observed
func (r *StatusRepository) GetStatus(ctx context.Context, sourceName string) (*SourceStatus, error) {
	var status SourceStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT site_name, last_scraped, status, COALESCE(last_error, '')
		FROM site_status
		WHERE site_name = ?
	`, sourceName).Scan(&status.SourceName, &status.LastAttempt, &status.Status, &status.LastError)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return &status, nil
}

// GetAllStatuses returns a snapshot of every recorded source, ordered by name
func (r *StatusRepository) GetAllStatuses(ctx context.Context) ([]SourceStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT site_name, last_scraped, status, COALESCE(last_error, '')
		FROM site_status
		ORDER BY site_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get statuses: %w", err)
	}
	defer rows.Close()

	var statuses []SourceStatus
	for rows.Next() {
		var status SourceStatus
		if err := rows.Scan(&status.SourceName, &status.LastAttempt, &status.Status, &status.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		statuses = append(statuses, status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status rows: %w", err)
	}

	return statuses, nil
}
