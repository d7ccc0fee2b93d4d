package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/windlass-io/windlass/internal/graph"
)

// fakeNode is a scriptable graph.Node for engine tests. Operations maps a
// supported operation name to the error its invocation returns (nil for
// success). Invocations and log lines are recorded for assertions.
type fakeNode struct {
	id          string
	kind        graph.NodeKind
	selfRefresh bool
	removing    bool
	noop        bool
	operations  map[string]error

	invoked []string
	logged  []string
}

func newFakeNode(id string, operations map[string]error) *fakeNode {
	return &fakeNode{id: id, operations: operations}
}

func (n *fakeNode) ID() string           { return n.id }
func (n *fakeNode) Kind() graph.NodeKind { return n.kind }
func (n *fakeNode) SelfRefresh() bool    { return n.selfRefresh }
func (n *fakeNode) BeingRemoved() bool   { return n.removing }
func (n *fakeNode) NoopMode() bool       { return n.noop }

func (n *fakeNode) Supports(operation string) bool {
	_, ok := n.operations[operation]
	return ok
}

func (n *fakeNode) Invoke(operation string) error {
	n.invoked = append(n.invoked, operation)
	err, ok := n.operations[operation]
	if !ok {
		return fmt.Errorf("unsupported operation %q", operation)
	}
	return err
}

func (n *fakeNode) MakeEvent(opts graph.EventOptions) graph.Event {
	return graph.NewEvent(n.id, opts)
}

func (n *fakeNode) Log(level slog.Level, msg string) {
	n.logged = append(n.logged, fmt.Sprintf("%s: %s", level, msg))
}

func (n *fakeNode) LogFailure(err error) {
	n.logged = append(n.logged, fmt.Sprintf("FAILURE: %v", err))
}

// fakeApplier is a fakeNode that the executor can apply: it emits the
// scripted events or fails with the scripted error.
type fakeApplier struct {
	*fakeNode
	events   []graph.Event
	applyErr error
	applied  int
}

func (a *fakeApplier) Apply(ctx context.Context) ([]graph.Event, error) {
	a.applied++
	if a.applyErr != nil {
		return nil, a.applyErr
	}
	return a.events, nil
}

// buildGraph assembles a graph from nodes and edges, failing the build on
// programmer error rather than returning it.
func buildGraph(nodes []graph.Node, edges []graph.Edge) *graph.Graph {
	g := graph.New()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			panic(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			panic(err)
		}
	}
	return g
}

// eventNames projects events to their names for compact assertions.
func eventNames(events []graph.Event) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}
