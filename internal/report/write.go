package report

import (
	"context"
	"fmt"
	"time"

	"github.com/windlass-io/windlass/internal/engine"
	"github.com/windlass-io/windlass/internal/trace"
)

// SavePass records one pass summary: the pass row with its trace hash and
// totals, the per-node statuses in visit order, and the delivered events
// in delivery order. The write is transactional and idempotent: saving the
// same run ID twice leaves the first record untouched.
func (s *Store) SavePass(ctx context.Context, summary *engine.Summary) error {
	snapshot := trace.FromSummary(summary)
	hash, err := trace.PassHash(snapshot)
	if err != nil {
		return fmt.Errorf("save pass %s: %w", summary.RunID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save pass %s: begin: %w", summary.RunID, err)
	}
	defer tx.Rollback()

	totals := summary.Totals()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes
		(id, started_at, finished_at, noop, trace_hash, nodes, changed, failed, skipped, restarted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		summary.Noop,
		hash,
		totals.Nodes,
		totals.Changed,
		totals.Failed,
		totals.Skipped,
		totals.Restarted,
	)
	if err != nil {
		return fmt.Errorf("save pass %s: %w", summary.RunID, err)
	}
	if inserted, err := res.RowsAffected(); err == nil && inserted == 0 {
		// Already recorded; keep the first write.
		return nil
	}

	for position, visit := range snapshot.Visits {
		eventsJSON, err := trace.MarshalCanonical(eventList(visit.Events))
		if err != nil {
			return fmt.Errorf("save pass %s: node %s events: %w", summary.RunID, visit.Node, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO node_statuses
			(pass_id, position, node_id, change_count, failed, failure_message,
			 skipped, restarted, failed_to_restart, events)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			summary.RunID,
			position,
			visit.Node,
			visit.Changes,
			visit.Failed,
			visit.FailureMessage,
			visit.Skipped,
			visit.Restarted,
			visit.FailedToRestart,
			string(eventsJSON),
		)
		if err != nil {
			return fmt.Errorf("save pass %s: node %s: %w", summary.RunID, visit.Node, err)
		}
	}

	for position, event := range snapshot.Delivered {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO delivered_events
			(pass_id, position, name, source, status, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			summary.RunID,
			position,
			event.Name,
			event.Source,
			event.Status,
			event.Message,
		)
		if err != nil {
			return fmt.Errorf("save pass %s: delivered event %d: %w", summary.RunID, position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save pass %s: commit: %w", summary.RunID, err)
	}
	return nil
}

func eventList(events []trace.EventRecord) []any {
	out := make([]any, len(events))
	for i, e := range events {
		out[i] = map[string]any{
			"name":    e.Name,
			"source":  e.Source,
			"status":  e.Status,
			"message": e.Message,
		}
	}
	return out
}
