// Package audit records MCP tool invocations in an append-only SQLite
// trail. Recording is optional: a nil *Service is a valid no-op recorder,
// so callers never branch on whether auditing is configured.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/sfmcp/pkg/uuid"
)

// Service provides audit logging for tool invocations.
// All operations are append-only; no updates or deletes are supported.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service on an already-migrated database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Record appends one invocation row. A nil receiver records nothing.
// The ID and timestamp are assigned here; callers supply only the outcome.
func (s *Service) Record(ctx context.Context, tool string, outcome Outcome, detail string, duration time.Duration) error {
	if s == nil {
		return nil
	}

	id := uuid.NewV7()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_invocations (id, tool, outcome, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), tool, string(outcome), detail, duration.Milliseconds(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("audit: insert invocation: %w", err)
	}
	return nil
}

// ListRecent returns the most recent invocations, newest first.
// UUIDv7 IDs are time-ordered, so ties on created_at break correctly.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Invocation, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool, outcome, detail, duration_ms, created_at
		FROM tool_invocations
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query invocations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Invocation
	for rows.Next() {
		var (
			inv        Invocation
			outcome    string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&inv.ID, &inv.Tool, &outcome, &inv.Detail, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("audit: scan invocation: %w", err)
		}
		inv.Outcome = Outcome(outcome)
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("audit: parse created_at %q: %w", createdAt, err)
		}
		inv.CreatedAt = ts
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate invocations: %w", err)
	}
	return out, nil
}
