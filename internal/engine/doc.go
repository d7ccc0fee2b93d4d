// Package engine executes one convergence pass: it walks the relationship
// graph in dependency order, applies each node's state change, and runs the
// event dispatch machinery that notifies downstream subscribers.
//
// The package has two halves:
//
// Manager is the event queuing and callback dispatch core. After a node's
// change produces events, QueueEvents matches them against the graph's
// subscription edges and populates per-target per-operation queues; later,
// when the executor visits a downstream node, ProcessEvents drains that
// node's queues and invokes each queued operation exactly once per drain.
// Any successful invocation synthesizes a "restarted" event that is fed
// back through QueueEvents, cascading further downstream. Noop mode
// suppresses invocations but still propagates transitively via
// "noop_restart" events.
//
// Executor drives the pass: deterministic topological traversal, skip
// propagation past failed dependencies, and the pass Summary. Failures are
// never fatal to the pass; they are recorded on the node's status and
// execution continues.
//
// Everything here is single-threaded and pass-scoped. One Manager and one
// StatusRegistry exist per pass, are owned by one Executor, and are never
// touched concurrently. There are no retries, no timeouts, and no
// backpressure: operation latency is opaque to this engine.
package engine
