package graph

import "log/slog"

// NodeKind distinguishes concrete managed nodes from synthetic anchors.
type NodeKind int

const (
	// KindConcrete marks a real managed node.
	KindConcrete NodeKind = iota
	// KindAnchor marks a synthetic containment boundary node.
	KindAnchor
)

// Node is a vertex in the relationship graph. The event engine consumes
// nodes exclusively through this interface: capability checks are explicit
// (Supports before Invoke) and operation failures are explicit error
// returns, never panics.
type Node interface {
	// ID returns the node's stable identity. IDs key the event queues and
	// status records, so they must be unique within a graph and must not
	// change for the life of a pass.
	ID() string

	// Kind reports whether the node is concrete or an anchor.
	// Callers should use IsAnchor rather than inspecting Kind directly.
	Kind() NodeKind

	// SelfRefresh reports whether the node schedules a refresh of itself
	// whenever it emits events.
	SelfRefresh() bool

	// BeingRemoved reports whether this pass is removing the node, which
	// suppresses self-refresh scheduling.
	BeingRemoved() bool

	// NoopMode reports whether the node's side effects are suppressed.
	NoopMode() bool

	// Supports reports whether the node implements the named operation.
	Supports(operation string) bool

	// Invoke runs the named operation synchronously. Latency is opaque to
	// the engine; there is no timeout and no retry.
	Invoke(operation string) error

	// MakeEvent builds an event attributed to this node.
	MakeEvent(opts EventOptions) Event

	// Log writes a node-scoped log line at the given level.
	Log(level slog.Level, msg string)

	// LogFailure records an operation failure against the node's log.
	LogFailure(err error)
}

// IsAnchor reports whether n is a synthetic containment boundary node.
// Every anchor special case in the engine goes through this predicate.
func IsAnchor(n Node) bool {
	return n.Kind() == KindAnchor
}
