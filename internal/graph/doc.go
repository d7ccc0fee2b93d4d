// Package graph defines the relationship graph a pass walks: nodes, the
// directed edges between them, and the events that flow along those edges.
//
// Nodes come in two kinds. Concrete nodes are real managed units whose state
// the executor converges. Anchor nodes are synthetic vertices inserted in
// pairs to bracket a contained group; they exist only for ordering and
// containment and are never real managed state. All anchor special-casing
// goes through the IsAnchor predicate so the distinction stays checkable in
// one place.
//
// Edges optionally subscribe to events: an edge with an empty filter is pure
// ordering and never forwards anything, while a filtered edge carries a
// callback operation to invoke on its target when a matching event is
// emitted by its source. MatchingEdges is the single query the event engine
// uses to resolve subscribers.
//
// Traversal is deterministic: Toposort breaks ties by node insertion order,
// so the same graph always yields the same visit sequence. Cycles are
// detected up front and reported with the offending path.
package graph
