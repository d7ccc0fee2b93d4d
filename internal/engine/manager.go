package engine

import (
	"fmt"
	"log/slog"

	"github.com/windlass-io/windlass/internal/graph"
)

// EdgeMatcher resolves the subscribers of an event. Implemented by
// *graph.Graph; the manager never inspects the graph beyond this query.
type EdgeMatcher interface {
	MatchingEdges(event graph.Event, source graph.Node) []graph.EdgeMatch
}

// StatusResolver looks up the mutable per-node status record for a node.
// Implemented by *StatusRegistry, which the executor owns.
type StatusResolver interface {
	StatusFor(node graph.Node) *NodeStatus
}

// QueuedOperation is one pending (operation, events) slot for a node, as
// reported by Queued. Events is a copy; mutating it does not affect the
// queue.
type QueuedOperation struct {
	Operation string
	Events    []graph.Event
}

// nodeQueue holds the pending operation slots for one target node.
// Slot insertion order is preserved: ProcessEvents drains slots in the
// order their operations were first queued.
type nodeQueue struct {
	ops   []string // operation names in first-queued order
	slots map[string][]graph.Event
}

func newNodeQueue() *nodeQueue {
	return &nodeQueue{slots: make(map[string][]graph.Event)}
}

func (q *nodeQueue) append(operation string, events []graph.Event) {
	if _, ok := q.slots[operation]; !ok {
		q.ops = append(q.ops, operation)
	}
	q.slots[operation] = append(q.slots[operation], events...)
}

// take removes and returns the slot for operation. The slot is emptied
// atomically with the take, including its entry in the ordered name list:
// re-queues during the subsequent invocation start a fresh slot with a
// fresh position rather than duplicating the name.
func (q *nodeQueue) take(operation string) []graph.Event {
	events := q.slots[operation]
	delete(q.slots, operation)
	for i, op := range q.ops {
		if op == operation {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			break
		}
	}
	return events
}

func (q *nodeQueue) pending() int {
	n := 0
	for _, events := range q.slots {
		n += len(events)
	}
	return n
}

// Manager owns the event queues and the delivered-event log for one pass.
//
// INVARIANTS:
//   - Queued events for a (target, operation) slot are drained and the
//     operation invoked at most once per ProcessEvents call; the slot is
//     emptied atomically with the invocation.
//   - A "restarted" event delivered only through anchor pass-through edges
//     never enters the delivered-event log; any other event name, or any
//     edge to a concrete target, always counts as delivered.
//   - QueueEvents and ProcessEvents are never concurrently re-entrant: one
//     executor drives the manager synchronously, one node at a time.
type Manager struct {
	matcher  EdgeMatcher
	statuses StatusResolver
	logger   *slog.Logger

	queues    map[string]*nodeQueue // target node ID -> pending slots
	delivered []graph.Event
}

// NewManager creates the event manager for one pass.
func NewManager(matcher EdgeMatcher, statuses StatusResolver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		matcher:  matcher,
		statuses: statuses,
		logger:   logger,
		queues:   make(map[string]*nodeQueue),
	}
}

// DeliveredEvents returns a copy of the delivered-event log in delivery
// order.
func (m *Manager) DeliveredEvents() []graph.Event {
	out := make([]graph.Event, len(m.delivered))
	copy(out, m.delivered)
	return out
}

// Queued returns the non-empty (operation, events) slots currently pending
// for target, in slot insertion order. The returned events are copies.
func (m *Manager) Queued(target graph.Node) []QueuedOperation {
	q := m.queues[target.ID()]
	if q == nil {
		return nil
	}
	var out []QueuedOperation
	for _, op := range q.ops {
		events := q.slots[op]
		if len(events) == 0 {
			continue
		}
		out = append(out, QueuedOperation{
			Operation: op,
			Events:    append([]graph.Event(nil), events...),
		})
	}
	return out
}

// QueueEvents matches events emitted by source against the graph's
// subscription edges and populates downstream queues.
//
// Events are processed one distinct name at a time, in first-appearance
// order, with one representative event per name:
//
//  1. Resolve matching edges for the representative.
//  2. Start delivered = (name != "restarted"): non-restart events are
//     provisionally delivered before any edge is checked, so they are
//     logged even with zero matching edges. Restart events must reach a
//     concrete target to count.
//  3. Per edge: a concrete (non-anchor) target marks the name delivered;
//     an edge carrying an operation the target supports gets the full
//     same-named event list appended to the target's slot for that
//     operation. Targets lacking the operation are silently skipped.
//  4. If source self-refreshes and is not being removed, the
//     representative is additionally queued on source's own "refresh"
//     slot.
//  5. A delivered name appends its representative to the delivered log.
//
// After all names: if any input event carries InvalidateRefreshes, the
// source's own pending "refresh" slot is cleared, even if this same call
// just populated it. An empty input is a no-op.
func (m *Manager) QueueEvents(source graph.Node, events []graph.Event) {
	if len(events) == 0 {
		return
	}

	names, byName := groupByName(events)
	for _, name := range names {
		batch := byName[name]
		representative := batch[0]

		delivered := name != graph.EventRestarted
		for _, match := range m.matcher.MatchingEdges(representative, source) {
			if !graph.IsAnchor(match.Target) {
				delivered = true
			}
			if match.Operation == "" || !match.Target.Supports(match.Operation) {
				continue
			}
			m.enqueue(match.Target, match.Operation, batch)
		}

		if source.SelfRefresh() && !source.BeingRemoved() {
			m.enqueue(source, graph.OperationRefresh, []graph.Event{representative})
		}

		if delivered {
			m.delivered = append(m.delivered, representative)
		}
	}

	for _, e := range events {
		if e.InvalidateRefreshes {
			m.DequeueOperationFor(source, graph.OperationRefresh)
			break
		}
	}
}

// ProcessEvents drains every currently non-empty operation slot for node
// and invokes each eligible operation once. If any invocation succeeded,
// the node is marked restarted and a "restarted" event is fed back through
// QueueEvents, cascading to the node's own subscribers.
//
// Slots queued during the drain (by cascades or noop re-entry) are not
// drained again in the same call; they wait for the node's next visit.
func (m *Manager) ProcessEvents(node graph.Node) {
	q := m.queues[node.ID()]
	if q == nil {
		return
	}

	// Snapshot the slot list up front so mid-drain re-queues stay pending.
	ops := make([]string, 0, len(q.ops))
	for _, op := range q.ops {
		if len(q.slots[op]) > 0 {
			ops = append(ops, op)
		}
	}

	restarted := false
	for _, op := range ops {
		events := q.take(op)
		if len(events) == 0 {
			continue
		}
		if m.runOperation(node, op, events) {
			restarted = true
		}
	}

	if restarted {
		m.QueueEvents(node, []graph.Event{node.MakeEvent(graph.EventOptions{
			Name:   graph.EventRestarted,
			Status: graph.StatusSuccess,
		})})
		m.statuses.StatusFor(node).Restarted = true
	}
}

// runOperation applies the execution policy to one drained slot and
// reports whether the operation was actually triggered.
//
// The invocation is skipped when every queued event is noop-status or the
// node itself is in noop mode; the skip still re-enters QueueEvents with a
// "noop_restart" event so suppression propagates transitively downstream.
// An invocation failure is recorded on the node's status and the pass
// continues: no error escapes here.
func (m *Manager) runOperation(node graph.Node, operation string, events []graph.Event) bool {
	allNoop := true
	for _, e := range events {
		if e.Status != graph.StatusNoop {
			allNoop = false
			break
		}
	}

	if allNoop || node.NoopMode() {
		node.Log(slog.LevelInfo, fmt.Sprintf("Would have triggered '%s' from %s", operation, countEvents(len(events))))
		m.QueueEvents(node, []graph.Event{node.MakeEvent(graph.EventOptions{
			Name:   graph.EventNoopRestart,
			Status: graph.StatusNoop,
		})})
		return false
	}

	if err := node.Invoke(operation); err != nil {
		node.LogFailure(err)
		status := m.statuses.StatusFor(node)
		status.FailedToRestart = true
		status.Events = append(status.Events, node.MakeEvent(graph.EventOptions{
			Name:    operation,
			Status:  graph.StatusFailure,
			Message: err.Error(),
		}))
		return false
	}

	if !graph.IsAnchor(node) {
		status := m.statuses.StatusFor(node)
		status.Events = append(status.Events, node.MakeEvent(graph.EventOptions{
			Name:    operation,
			Status:  graph.StatusSuccess,
			Message: fmt.Sprintf("Triggered '%s' from %s", operation, countEvents(len(events))),
		}))
	}
	return true
}

// DequeueAllFor discards every pending operation slot for target. Used
// when a node's pending work must be entirely dropped, e.g. when the
// executor skips a node past a failed dependency. No-op if nothing is
// queued.
func (m *Manager) DequeueAllFor(target graph.Node) {
	q := m.queues[target.ID()]
	if q == nil || q.pending() == 0 {
		return
	}
	target.Log(slog.LevelInfo, fmt.Sprintf("Unscheduling all events on %s", target.ID()))
	delete(m.queues, target.ID())
}

// DequeueOperationFor discards only the named operation's slot for target.
// No-op if target has no queues at all.
func (m *Manager) DequeueOperationFor(target graph.Node, operation string) {
	q := m.queues[target.ID()]
	if q == nil {
		return
	}
	target.Log(slog.LevelInfo, fmt.Sprintf("Unscheduling '%s' on %s", operation, target.ID()))
	q.take(operation)
}

func (m *Manager) enqueue(target graph.Node, operation string, events []graph.Event) {
	q := m.queues[target.ID()]
	if q == nil {
		q = newNodeQueue()
		m.queues[target.ID()] = q
	}
	q.append(operation, events)
}

// groupByName splits events by name, preserving first-appearance order of
// the names and input order within each name.
func groupByName(events []graph.Event) ([]string, map[string][]graph.Event) {
	var names []string
	byName := make(map[string][]graph.Event)
	for _, e := range events {
		if _, ok := byName[e.Name]; !ok {
			names = append(names, e.Name)
		}
		byName[e.Name] = append(byName[e.Name], e)
	}
	return names, byName
}

// countEvents phrases an event count for trigger messages.
func countEvents(n int) string {
	if n == 1 {
		return "1 event"
	}
	return fmt.Sprintf("%d events", n)
}
