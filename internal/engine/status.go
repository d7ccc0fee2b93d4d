package engine

import "github.com/windlass-io/windlass/internal/graph"

// NodeStatus is the mutable per-node record for one pass. The executor
// owns the registry; the manager reaches in only to set the restart flags
// and to record trigger events.
type NodeStatus struct {
	// NodeID is the identity of the node this record describes.
	NodeID string

	// ChangeCount is the number of change events the node's apply emitted.
	ChangeCount int

	// Failed marks an apply error; FailureMessage carries its text.
	Failed         bool
	FailureMessage string

	// Skipped marks a node that was not applied because a dependency
	// failed, failed to restart, or was itself skipped, or because the
	// pass was cancelled before reaching it.
	Skipped bool

	// Restarted marks that at least one queued operation ran successfully
	// when the node's events were processed.
	Restarted bool

	// FailedToRestart marks that a queued operation's invocation failed.
	FailedToRestart bool

	// Events are the informational events recorded against the node:
	// trigger successes and failures, in the order they happened.
	Events []graph.Event
}

// StatusRegistry holds the NodeStatus records for one pass, in the order
// nodes were first looked up (which, driven by the executor, is visit
// order).
type StatusRegistry struct {
	order    []string
	statuses map[string]*NodeStatus
}

// NewStatusRegistry creates an empty registry.
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{statuses: make(map[string]*NodeStatus)}
}

// StatusFor returns the record for node, creating it on first lookup.
// The returned pointer is shared: mutations are visible to later lookups.
func (r *StatusRegistry) StatusFor(node graph.Node) *NodeStatus {
	id := node.ID()
	if s, ok := r.statuses[id]; ok {
		return s
	}
	s := &NodeStatus{NodeID: id}
	r.statuses[id] = s
	r.order = append(r.order, id)
	return s
}

// All returns the records in first-lookup order.
func (r *StatusRegistry) All() []*NodeStatus {
	out := make([]*NodeStatus, len(r.order))
	for i, id := range r.order {
		out[i] = r.statuses[id]
	}
	return out
}

// Lookup returns the record for a node ID without creating it.
func (r *StatusRegistry) Lookup(id string) (*NodeStatus, bool) {
	s, ok := r.statuses[id]
	return s, ok
}
