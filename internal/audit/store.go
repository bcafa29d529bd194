package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/chatshell/internal/db"
	"github.com/ziadkadry99/chatshell/internal/session"
)

// Store persists session events. It satisfies session.Recorder.
type Store struct {
	db *db.DB
}

var _ session.Recorder = (*Store)(nil)

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a transition with a generated id.
func (s *Store) Record(ctx context.Context, t session.Transition) error {
	return s.Log(ctx, eventFrom(t))
}

// Log inserts an event. If e.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, e Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_events (id, from_state, to_state, user_id, reason)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.From, e.To, e.UserID, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("inserting session event: %w", err)
	}
	return nil
}

// QueryFilter controls which events are returned by Query.
type QueryFilter struct {
	UserID string
	Since  time.Time
	Limit  int
}

// Query returns events matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, at, from_state, to_state, user_id, reason FROM session_events"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			at string
		)
		if err := rows.Scan(&e.ID, &at, &e.From, &e.To, &e.UserID, &e.Reason); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		e.At = parseTime(at)
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteBefore removes events older than before and returns how many went.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM session_events WHERE at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old session events: %w", err)
	}
	return res.RowsAffected()
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
