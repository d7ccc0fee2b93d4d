package engine

import (
	"time"

	"github.com/windlass-io/windlass/internal/graph"
)

// Summary is the immutable record of one finished pass.
type Summary struct {
	RunID      string
	Noop       bool
	StartedAt  time.Time
	FinishedAt time.Time

	// Statuses are the per-node records in visit order.
	Statuses []*NodeStatus

	// Delivered is the manager's delivered-event log in delivery order.
	Delivered []graph.Event
}

// Totals aggregates the pass outcome counts.
type Totals struct {
	Nodes           int
	Changed         int
	Failed          int
	Skipped         int
	Restarted       int
	FailedToRestart int
}

// Totals counts the pass outcomes from the per-node statuses.
func (s *Summary) Totals() Totals {
	t := Totals{Nodes: len(s.Statuses)}
	for _, status := range s.Statuses {
		if status.ChangeCount > 0 {
			t.Changed++
		}
		if status.Failed {
			t.Failed++
		}
		if status.Skipped {
			t.Skipped++
		}
		if status.Restarted {
			t.Restarted++
		}
		if status.FailedToRestart {
			t.FailedToRestart++
		}
	}
	return t
}
