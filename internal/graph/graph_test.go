package graph

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode is a minimal concrete Node for graph tests.
type testNode struct {
	id  string
	ops []string
}

func (n *testNode) ID() string         { return n.id }
func (n *testNode) Kind() NodeKind     { return KindConcrete }
func (n *testNode) SelfRefresh() bool  { return false }
func (n *testNode) BeingRemoved() bool { return false }
func (n *testNode) NoopMode() bool     { return false }

func (n *testNode) Supports(operation string) bool {
	for _, op := range n.ops {
		if op == operation {
			return true
		}
	}
	return false
}

func (n *testNode) Invoke(operation string) error { return nil }

func (n *testNode) MakeEvent(opts EventOptions) Event { return NewEvent(n.id, opts) }

func (n *testNode) Log(level slog.Level, msg string) {}
func (n *testNode) LogFailure(err error)             {}

func TestGraph_AddNode_RejectsDuplicates(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(&testNode{id: "a"}))
	err := g.AddNode(&testNode{id: "a"})
	assert.ErrorContains(t, err, `duplicate node "a"`)
}

func TestGraph_AddEdge_RequiresEndpoints(t *testing.T) {
	g := New()
	require.NoError(t, g.AddNode(&testNode{id: "a"}))

	assert.ErrorContains(t, g.AddEdge(Edge{Source: "a", Target: "b"}), `edge target "b"`)
	assert.ErrorContains(t, g.AddEdge(Edge{Source: "x", Target: "a"}), `edge source "x"`)
}

func TestGraph_Nodes_InsertionOrder(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddNode(&testNode{id: id}))
	}

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, 3, g.Len())
}

func TestEdge_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		event  string
		want   bool
	}{
		{"empty filter never matches", "", "updated", false},
		{"wildcard matches anything", FilterAll, "updated", true},
		{"exact match", "updated", "updated", true},
		{"exact mismatch", "updated", "removed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Edge{Filter: tt.filter}
			assert.Equal(t, tt.want, e.Matches(tt.event))
		})
	}
}

func TestGraph_MatchingEdges(t *testing.T) {
	a := &testNode{id: "a"}
	b := &testNode{id: "b", ops: []string{"refresh"}}
	c := &testNode{id: "c", ops: []string{"refresh"}}
	g := New()
	for _, n := range []Node{a, b, c} {
		require.NoError(t, g.AddNode(n))
	}
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "b", Filter: "updated", Operation: "refresh"}))
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "c"})) // pure ordering
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "c", Filter: FilterAll, Operation: "refresh"}))

	matches := g.MatchingEdges(a.MakeEvent(EventOptions{Name: "updated"}), a)
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].Target.ID())
	assert.Equal(t, "c", matches[1].Target.ID())

	matches = g.MatchingEdges(a.MakeEvent(EventOptions{Name: "removed"}), a)
	require.Len(t, matches, 1)
	assert.Equal(t, "c", matches[0].Target.ID())
}

func TestGraph_MatchingEdges_UnknownSource(t *testing.T) {
	g := New()
	stranger := &testNode{id: "stranger"}
	assert.Nil(t, g.MatchingEdges(stranger.MakeEvent(EventOptions{Name: "updated"}), stranger))
}

func TestGraph_Dependencies(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddNode(&testNode{id: id}))
	}
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "c"}))
	require.NoError(t, g.AddEdge(Edge{Source: "b", Target: "c"}))
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "c", Filter: FilterAll, Operation: "refresh"}))

	assert.Equal(t, []string{"a", "b"}, g.Dependencies("c"), "deduplicated, edge insertion order")
	assert.Nil(t, g.Dependencies("a"))
}

func TestEvent_DefaultsToSuccess(t *testing.T) {
	e := NewEvent("a", EventOptions{Name: "updated"})
	assert.Equal(t, StatusSuccess, e.Status)
	assert.Equal(t, "a", e.Source)
}
