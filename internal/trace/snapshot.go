package trace

import (
	"github.com/windlass-io/windlass/internal/engine"
	"github.com/windlass-io/windlass/internal/graph"
)

// Snapshot is the deterministic trace of one pass: what each node did, in
// visit order, and which events were delivered. Run identity and wall
// times are deliberately excluded so two passes that made the same
// decisions produce byte-identical canonical forms and equal hashes.
type Snapshot struct {
	Noop      bool
	Visits    []Visit
	Delivered []EventRecord
}

// Visit records one node's outcome.
type Visit struct {
	Node            string
	Changes         int
	Failed          bool
	FailureMessage  string
	Skipped         bool
	Restarted       bool
	FailedToRestart bool
	Events          []EventRecord
}

// EventRecord is the trace form of an event.
type EventRecord struct {
	Name    string
	Source  string
	Status  string
	Message string
}

// FromSummary projects a pass summary into its trace snapshot.
func FromSummary(summary *engine.Summary) *Snapshot {
	s := &Snapshot{Noop: summary.Noop}
	for _, status := range summary.Statuses {
		s.Visits = append(s.Visits, Visit{
			Node:            status.NodeID,
			Changes:         status.ChangeCount,
			Failed:          status.Failed,
			FailureMessage:  status.FailureMessage,
			Skipped:         status.Skipped,
			Restarted:       status.Restarted,
			FailedToRestart: status.FailedToRestart,
			Events:          eventRecords(status.Events),
		})
	}
	s.Delivered = eventRecords(summary.Delivered)
	return s
}

func eventRecords(events []graph.Event) []EventRecord {
	out := make([]EventRecord, len(events))
	for i, e := range events {
		out[i] = EventRecord{
			Name:    e.Name,
			Source:  e.Source,
			Status:  string(e.Status),
			Message: e.Message,
		}
	}
	return out
}

// MarshalCanonical serializes the snapshot as RFC 8785 canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	visits := make([]any, len(s.Visits))
	for i, v := range s.Visits {
		visits[i] = map[string]any{
			"node":              v.Node,
			"changes":           v.Changes,
			"failed":            v.Failed,
			"failure_message":   v.FailureMessage,
			"skipped":           v.Skipped,
			"restarted":         v.Restarted,
			"failed_to_restart": v.FailedToRestart,
			"events":            eventMaps(v.Events),
		}
	}
	return MarshalCanonical(map[string]any{
		"noop":      s.Noop,
		"visits":    visits,
		"delivered": eventMaps(s.Delivered),
	})
}

func eventMaps(events []EventRecord) []any {
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
