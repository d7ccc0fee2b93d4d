package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPassNotFound is returned by LoadPass for an unknown pass ID.
var ErrPassNotFound = errors.New("pass not found")

// PassRecord is one row of pass history.
type PassRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Noop       bool
	TraceHash  string
	Nodes      int
	Changed    int
	Failed     int
	Skipped    int
	Restarted  int
}

// NodeStatusRecord is one persisted per-node outcome.
type NodeStatusRecord struct {
	Position        int
	NodeID          string
	ChangeCount     int
	Failed          bool
	FailureMessage  string
	Skipped         bool
	Restarted       bool
	FailedToRestart bool
	Events          []EventRecord
}

// EventRecord is the persisted form of a trace event.
type EventRecord struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Pass is a fully loaded pass report.
type Pass struct {
	PassRecord
	Statuses  []NodeStatusRecord
	Delivered []EventRecord
}

// ListPasses returns pass history, most recent start first; ties and
// deterministic ordering fall back to the ID. Limit <= 0 returns
// everything.
func (s *Store) ListPasses(ctx context.Context, limit int) ([]PassRecord, error) {
	query := `
		SELECT id, started_at, finished_at, noop, trace_hash,
		       nodes, changed, failed, skipped, restarted
		FROM passes
		ORDER BY started_at DESC, id DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	defer rows.Close()

	var records []PassRecord
	for rows.Next() {
		record, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("list passes: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// LoadPass loads one pass with its node statuses and delivered events.
func (s *Store) LoadPass(ctx context.Context, id string) (*Pass, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, noop, trace_hash,
		       nodes, changed, failed, skipped, restarted
		FROM passes WHERE id = ?
	`, id)
	record, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load pass %s: %w", id, ErrPassNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load pass %s: %w", id, err)
	}
	pass := &Pass{PassRecord: record}

	statusRows, err := s.db.QueryContext(ctx, `
		SELECT position, node_id, change_count, failed, failure_message,
		       skipped, restarted, failed_to_restart, events
		FROM node_statuses WHERE pass_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load pass %s: statuses: %w", id, err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status NodeStatusRecord
		var eventsJSON string
		if err := statusRows.Scan(
			&status.Position, &status.NodeID, &status.ChangeCount,
			&status.Failed, &status.FailureMessage, &status.Skipped,
			&status.Restarted, &status.FailedToRestart, &eventsJSON,
		); err != nil {
			return nil, fmt.Errorf("load pass %s: statuses: %w", id, err)
		}
		if err := json.Unmarshal([]byte(eventsJSON), &status.Events); err != nil {
			return nil, fmt.Errorf("load pass %s: node %s events: %w", id, status.NodeID, err)
		}
		pass.Statuses = append(pass.Statuses, status)
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("load pass %s: statuses: %w", id, err)
	}

	eventRows, err := s.db.QueryContext(ctx, `
		SELECT name, source, status, message
		FROM delivered_events WHERE pass_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load pass %s: delivered events: %w", id, err)
	}
	defer eventRows.Close()
	for eventRows.Next() {
		var event EventRecord
		if err := eventRows.Scan(&event.Name, &event.Source, &event.Status, &event.Message); err != nil {
			return nil, fmt.Errorf("load pass %s: delivered events: %w", id, err)
		}
		pass.Delivered = append(pass.Delivered, event)
	}
	return pass, eventRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (PassRecord, error) {
	var record PassRecord
	var startedAt, finishedAt string
	if err := row.Scan(
		&record.ID, &startedAt, &finishedAt, &record.Noop, &record.TraceHash,
		&record.Nodes, &record.Changed, &record.Failed, &record.Skipped, &record.Restarted,
	); err != nil {
		return PassRecord{}, err
	}

	var err error
	if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return PassRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	if record.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return PassRecord{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return record, nil
}
