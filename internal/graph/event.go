package graph

// EventStatus classifies the outcome an event reports.
type EventStatus string

const (
	// StatusSuccess marks a change that was applied.
	StatusSuccess EventStatus = "success"
	// StatusFailure marks a change or callback that failed.
	StatusFailure EventStatus = "failure"
	// StatusNoop marks a change that would have been applied but was
	// suppressed by noop mode.
	StatusNoop EventStatus = "noop"
)

// Reserved event names and operations used by the dispatch engine.
const (
	// EventRestarted is emitted by a node after any of its queued
	// operations ran successfully, cascading to its own subscribers.
	EventRestarted = "restarted"

	// EventNoopRestart is emitted in place of EventRestarted when an
	// operation was suppressed, so noop propagates transitively.
	EventNoopRestart = "noop_restart"

	// OperationRefresh is the callback name used by notify/subscribe
	// relationships and by self-refreshing nodes.
	OperationRefresh = "refresh"
)

// Event records one outcome of a node's evaluation. Events are immutable
// once created: they are either delivered into a downstream queue or
// discarded when no edge or capability matches.
type Event struct {
	// Name identifies the outcome (e.g. "content_changed", "restarted").
	Name string `json:"name"`

	// Status is the outcome classification.
	Status EventStatus `json:"status"`

	// Source is the identity of the node that emitted the event.
	Source string `json:"source"`

	// Message is the human-readable description used in logs and reports.
	Message string `json:"message,omitempty"`

	// InvalidateRefreshes, when set on any event of a queued batch, empties
	// the emitting node's own pending refresh queue.
	InvalidateRefreshes bool `json:"invalidate_refreshes,omitempty"`
}

// EventOptions configures event construction through Node.MakeEvent.
// A zero Status defaults to StatusSuccess.
type EventOptions struct {
	Name                string
	Status              EventStatus
	Message             string
	InvalidateRefreshes bool
}

// NewEvent builds an event attributed to the given source node identity.
func NewEvent(source string, opts EventOptions) Event {
	status := opts.Status
	if status == "" {
		status = StatusSuccess
	}
	return Event{
		Name:                opts.Name,
		Status:              status,
		Source:              source,
		Message:             opts.Message,
		InvalidateRefreshes: opts.InvalidateRefreshes,
	}
}
