package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/windlass-io/windlass/internal/graph"
)

// Applier is implemented by concrete nodes whose state the executor
// converges. Apply detects and applies drift, returning one event per
// change made (or, in noop mode, per change that would have been made).
// Anchors are not appliers; the executor treats them as zero-change
// visits.
type Applier interface {
	Apply(ctx context.Context) ([]graph.Event, error)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunIDGenerator overrides the run ID source. Default UUIDv7Generator.
func WithRunIDGenerator(gen RunIDGenerator) ExecutorOption {
	return func(e *Executor) { e.runIDs = gen }
}

// WithClock overrides the timestamp source. Default SystemClock.
func WithClock(clock Clock) ExecutorOption {
	return func(e *Executor) { e.clock = clock }
}

// WithNoop marks the whole pass as noop. Individual nodes may still be
// noop on their own; this flag only affects the pass summary.
func WithNoop(noop bool) ExecutorOption {
	return func(e *Executor) { e.noop = noop }
}

// WithLogger sets the executor's logger. Default slog.Default().
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// Executor drives one convergence pass over a graph: deterministic
// topological visit order, per-node apply, event queue/dispatch through
// the Manager, and skip propagation past failures.
type Executor struct {
	graph    *graph.Graph
	manager  *Manager
	statuses *StatusRegistry
	runIDs   RunIDGenerator
	clock    Clock
	noop     bool
	logger   *slog.Logger
}

// NewExecutor creates the executor, its status registry, and its event
// manager for one pass.
func NewExecutor(g *graph.Graph, opts ...ExecutorOption) *Executor {
	e := &Executor{
		graph:    g,
		statuses: NewStatusRegistry(),
		runIDs:   UUIDv7Generator{},
		clock:    SystemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.manager = NewManager(g, e.statuses, e.logger)
	return e
}

// Manager returns the pass's event manager. Exposed for tests and for
// callers that need the queue enumerators.
func (e *Executor) Manager() *Manager { return e.manager }

// Statuses returns the pass's status registry.
func (e *Executor) Statuses() *StatusRegistry { return e.statuses }

// Run executes one pass and returns its summary.
//
// Per node, in topological order: a node with a blocking dependency (one
// that failed, failed to restart, or was itself skipped) is marked skipped
// and its pending events are discarded. Otherwise the node is applied; an
// apply error marks it failed and its events are not queued; a successful
// apply queues its events. Either way the node's pending queues are then
// processed, which is how pass-through restarts cross anchors.
//
// Apply and invocation failures never abort the pass. Context cancellation
// is honored between visits: remaining nodes are marked skipped and the
// summary still returned. The only error is a dependency cycle.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	order, err := e.graph.Toposort()
	if err != nil {
		return nil, fmt.Errorf("plan traversal: %w", err)
	}

	runID := e.runIDs.Generate()
	startedAt := e.clock.Now()
	e.logger.Info("starting pass", "run_id", runID, "nodes", len(order), "noop", e.noop)

	cancelled := false
	for _, node := range order {
		status := e.statuses.StatusFor(node)

		if !cancelled && ctx.Err() != nil {
			cancelled = true
			e.logger.Warn("pass cancelled, skipping remaining nodes", "run_id", runID, "cause", ctx.Err())
		}
		if cancelled {
			status.Skipped = true
			e.manager.DequeueAllFor(node)
			continue
		}

		if blocker, blocked := e.blockingDependency(node); blocked {
			status.Skipped = true
			node.Log(slog.LevelWarn, fmt.Sprintf("Skipping because of failed dependency %s", blocker))
			e.manager.DequeueAllFor(node)
			continue
		}

		if applier, ok := node.(Applier); ok {
			events, applyErr := applier.Apply(ctx)
			if applyErr != nil {
				status.Failed = true
				status.FailureMessage = applyErr.Error()
				node.LogFailure(applyErr)
			} else {
				status.ChangeCount = len(events)
				e.manager.QueueEvents(node, events)
			}
		}

		e.manager.ProcessEvents(node)
	}

	summary := &Summary{
		RunID:      runID,
		Noop:       e.noop,
		StartedAt:  startedAt,
		FinishedAt: e.clock.Now(),
		Statuses:   e.statuses.All(),
		Delivered:  e.manager.DeliveredEvents(),
	}
	t := summary.Totals()
	e.logger.Info("pass finished",
		"run_id", runID,
		"changed", t.Changed,
		"failed", t.Failed,
		"skipped", t.Skipped,
		"restarted", t.Restarted)
	return summary, nil
}

// blockingDependency reports whether any direct dependency of node blocks
// it, and names the first one that does. A dependency blocks when it
// failed, failed to restart, or was itself skipped.
func (e *Executor) blockingDependency(node graph.Node) (string, bool) {
	for _, dep := range e.graph.Dependencies(node.ID()) {
		status, ok := e.statuses.Lookup(dep)
		if !ok {
			continue
		}
		if status.Failed || status.FailedToRestart || status.Skipped {
			return dep, true
		}
	}
	return "", false
}
