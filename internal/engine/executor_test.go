package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/internal/graph"
)

func testClock() *FixedClock {
	return NewFixedClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), time.Second)
}

func newTestExecutor(g *graph.Graph, opts ...ExecutorOption) *Executor {
	base := []ExecutorOption{
		WithRunIDGenerator(NewFixedGenerator("run-1")),
		WithClock(testClock()),
	}
	return NewExecutor(g, append(base, opts...)...)
}

func TestExecutor_Run_NotifyTriggersRefresh(t *testing.T) {
	// a changes and notifies b; visiting b invokes refresh and marks it
	// restarted, cascading a restarted event to b's subscribers.
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	a.events = []graph.Event{a.MakeEvent(graph.EventOptions{Name: "updated"})}
	b := &fakeApplier{fakeNode: newFakeNode("b", map[string]error{"refresh": nil})}
	g := buildGraph(
		[]graph.Node{a, b},
		[]graph.Edge{{Source: "a", Target: "b", Filter: graph.FilterAll, Operation: "refresh"}},
	)
	ex := newTestExecutor(g)

	summary, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, []string{"refresh"}, b.fakeNode.invoked)

	bStatus, ok := ex.Statuses().Lookup("b")
	require.True(t, ok)
	assert.True(t, bStatus.Restarted)

	assert.Equal(t, []string{"updated"}, eventNames(summary.Delivered))

	totals := summary.Totals()
	assert.Equal(t, 2, totals.Nodes)
	assert.Equal(t, 1, totals.Changed)
	assert.Equal(t, 1, totals.Restarted)
	assert.Equal(t, 0, totals.Failed)
}

func TestExecutor_Run_ApplyFailureSkipsDependents(t *testing.T) {
	a := &fakeApplier{fakeNode: newFakeNode("a", nil), applyErr: errors.New("write /etc/app.conf: permission denied")}
	b := &fakeApplier{fakeNode: newFakeNode("b", map[string]error{"refresh": nil})}
	c := &fakeApplier{fakeNode: newFakeNode("c", nil)}
	g := buildGraph(
		[]graph.Node{a, b, c},
		[]graph.Edge{
			{Source: "a", Target: "b", Filter: graph.FilterAll, Operation: "refresh"},
			{Source: "b", Target: "c"},
		},
	)
	ex := newTestExecutor(g)

	summary, err := ex.Run(context.Background())
	require.NoError(t, err, "apply failures never abort the pass")

	aStatus, _ := ex.Statuses().Lookup("a")
	assert.True(t, aStatus.Failed)
	assert.Equal(t, "write /etc/app.conf: permission denied", aStatus.FailureMessage)

	bStatus, _ := ex.Statuses().Lookup("b")
	assert.True(t, bStatus.Skipped)
	assert.Equal(t, 0, b.applied, "skipped nodes are not applied")

	cStatus, _ := ex.Statuses().Lookup("c")
	assert.True(t, cStatus.Skipped, "skips propagate transitively")

	totals := summary.Totals()
	assert.Equal(t, 1, totals.Failed)
	assert.Equal(t, 2, totals.Skipped)
}

func TestExecutor_Run_FailedRestartBlocksDependents(t *testing.T) {
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	a.events = []graph.Event{a.MakeEvent(graph.EventOptions{Name: "updated"})}
	b := &fakeApplier{fakeNode: newFakeNode("b", map[string]error{"refresh": errors.New("boom")})}
	c := &fakeApplier{fakeNode: newFakeNode("c", nil)}
	g := buildGraph(
		[]graph.Node{a, b, c},
		[]graph.Edge{
			{Source: "a", Target: "b", Filter: graph.FilterAll, Operation: "refresh"},
			{Source: "b", Target: "c"},
		},
	)
	ex := newTestExecutor(g)

	_, err := ex.Run(context.Background())
	require.NoError(t, err)

	bStatus, _ := ex.Statuses().Lookup("b")
	assert.True(t, bStatus.FailedToRestart)

	cStatus, _ := ex.Statuses().Lookup("c")
	assert.True(t, cStatus.Skipped, "failed-to-restart blocks dependents too")
}

func TestExecutor_Run_SkippedNodePendingWorkDiscarded(t *testing.T) {
	// b depends on both a (which fails) and x (which notifies b). The
	// skip must drop the refresh x queued onto b.
	x := &fakeApplier{fakeNode: newFakeNode("x", nil)}
	x.events = []graph.Event{x.MakeEvent(graph.EventOptions{Name: "updated"})}
	a := &fakeApplier{fakeNode: newFakeNode("a", nil), applyErr: errors.New("boom")}
	b := &fakeApplier{fakeNode: newFakeNode("b", map[string]error{"refresh": nil})}
	g := buildGraph(
		[]graph.Node{x, a, b},
		[]graph.Edge{
			{Source: "x", Target: "b", Filter: graph.FilterAll, Operation: "refresh"},
			{Source: "a", Target: "b"},
		},
	)
	ex := newTestExecutor(g)

	_, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, b.fakeNode.invoked)
	assert.Empty(t, ex.Manager().Queued(b))
}

func TestExecutor_Run_AnchorPassThrough(t *testing.T) {
	// a notifies a group anchor; the anchor's refresh is a no-op success,
	// so the restart passes through the boundary to the group member.
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	a.events = []graph.Event{a.MakeEvent(graph.EventOptions{Name: "updated"})}
	begin := graph.NewAnchor("group:web:begin", false, nil)
	member := &fakeApplier{fakeNode: newFakeNode("member", map[string]error{"refresh": nil})}
	g := buildGraph(
		[]graph.Node{a, begin, member},
		[]graph.Edge{
			{Source: "a", Target: begin.ID(), Filter: graph.FilterAll, Operation: "refresh"},
			{Source: begin.ID(), Target: "member", Filter: graph.FilterAll, Operation: "refresh"},
		},
	)
	ex := newTestExecutor(g)

	summary, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"refresh"}, member.fakeNode.invoked)

	anchorStatus, ok := ex.Statuses().Lookup(begin.ID())
	require.True(t, ok)
	assert.True(t, anchorStatus.Restarted)
	assert.Empty(t, anchorStatus.Events, "anchors do not record trigger events")

	// The anchor's restarted event reached a concrete member, so it is
	// delivered; the original update is delivered too.
	assert.Equal(t, []string{"updated", graph.EventRestarted}, eventNames(summary.Delivered))
}

func TestExecutor_Run_NoopCascade(t *testing.T) {
	// A noop apply emits noop-status events; downstream triggers are
	// suppressed but still propagate as noop_restart.
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	a.events = []graph.Event{a.MakeEvent(graph.EventOptions{Name: "updated", Status: graph.StatusNoop})}
	b := &fakeApplier{fakeNode: newFakeNode("b", map[string]error{"refresh": nil})}
	c := &fakeApplier{fakeNode: newFakeNode("c", map[string]error{"refresh": nil})}
	g := buildGraph(
		[]graph.Node{a, b, c},
		[]graph.Edge{
			{Source: "a", Target: "b", Filter: graph.FilterAll, Operation: "refresh"},
			{Source: "b", Target: "c", Filter: graph.FilterAll, Operation: "refresh"},
		},
	)
	ex := newTestExecutor(g, WithNoop(true))

	summary, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, b.fakeNode.invoked)
	assert.Empty(t, c.fakeNode.invoked)

	names := eventNames(summary.Delivered)
	assert.Contains(t, names, "updated")
	assert.Contains(t, names, graph.EventNoopRestart)
	assert.Equal(t, 0, summary.Totals().Restarted)
	assert.True(t, summary.Noop)
}

func TestExecutor_Run_CycleFails(t *testing.T) {
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	b := &fakeApplier{fakeNode: newFakeNode("b", nil)}
	g := buildGraph(
		[]graph.Node{a, b},
		[]graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		},
	)
	ex := newTestExecutor(g)

	_, err := ex.Run(context.Background())
	var cycleErr *graph.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, 0, a.applied)
}

func TestExecutor_Run_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	b := &fakeApplier{fakeNode: newFakeNode("b", nil)}
	// a's apply cancels the context; b must be skipped, not applied.
	cancellingApply := &cancellingApplier{fakeApplier: a, cancel: cancel}
	g := buildGraph(
		[]graph.Node{cancellingApply, b},
		[]graph.Edge{{Source: "a", Target: "b"}},
	)
	ex := newTestExecutor(g)

	summary, err := ex.Run(ctx)
	require.NoError(t, err, "cancellation still yields a summary")

	assert.Equal(t, 0, b.applied)
	bStatus, _ := ex.Statuses().Lookup("b")
	assert.True(t, bStatus.Skipped)
	assert.Equal(t, 1, summary.Totals().Skipped)
}

func TestExecutor_Run_Timestamps(t *testing.T) {
	a := &fakeApplier{fakeNode: newFakeNode("a", nil)}
	ex := newTestExecutor(buildGraph([]graph.Node{a}, nil))

	summary, err := ex.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), summary.StartedAt)
	assert.True(t, summary.FinishedAt.After(summary.StartedAt))
}

// cancellingApplier cancels the pass context from inside its own apply.
type cancellingApplier struct {
	*fakeApplier
	cancel context.CancelFunc
}

func (a *cancellingApplier) Apply(ctx context.Context) ([]graph.Event, error) {
	a.cancel()
	return a.fakeApplier.Apply(ctx)
}
