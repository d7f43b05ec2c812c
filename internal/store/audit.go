// ABOUTME: Dispatch audit record persistence and retrieval
// ABOUTME: One row per dispatch, newest-first retrieval for the audit endpoint

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DispatchRecord is the audit trail entry for one tool dispatch.
type DispatchRecord struct {
	ID           string    `json:"id"`
	Tool         string    `json:"tool"`
	OK           bool      `json:"ok"`
	FallbackUsed bool      `json:"fallback_used"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveDispatch stores one dispatch audit record.
func (s *SQLiteStore) SaveDispatch(ctx context.Context, rec *DispatchRecord) error {
	query := `
		INSERT INTO dispatch_audit (id, tool, ok, fallback_used, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Tool,
		boolToInt(rec.OK),
		boolToInt(rec.FallbackUsed),
		rec.DurationMS,
		nullString(rec.Error),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch record: %w", err)
	}

	s.logger.Debug("saved dispatch record",
		"id", rec.ID,
		"tool", rec.Tool,
		"ok", rec.OK,
		"fallback_used", rec.FallbackUsed,
	)
	return nil
}

// RecentDispatches returns up to limit records, newest first.
func (s *SQLiteStore) RecentDispatches(ctx context.Context, limit int) ([]*DispatchRecord, error) {
	query := `
		SELECT id, tool, ok, fallback_used, duration_ms, error, created_at
		FROM dispatch_audit
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch records: %w", err)
	}
	defer rows.Close()

	var records []*DispatchRecord
	for rows.Next() {
		var rec DispatchRecord
		var ok, fallbackUsed int
		var errText sql.NullString
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.Tool, &ok, &fallbackUsed, &rec.DurationMS, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dispatch record: %w", err)
		}

		rec.OK = ok != 0
		rec.FallbackUsed = fallbackUsed != 0
		rec.Error = errText.String
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch records: %w", err)
	}

	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
