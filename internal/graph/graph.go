package graph

import (
	"fmt"
	"log/slog"
)

// Graph is the directed relationship graph for one pass. It is built once
// by the catalog builder and read-only afterwards; nothing in the engine
// mutates it during execution.
//
// Node and edge insertion order is preserved and used everywhere iteration
// order is observable (match results, traversal tie-breaks), so the same
// catalog always produces the same pass.
type Graph struct {
	nodes map[string]Node
	order []string // node IDs in insertion order
	edges []Edge
	out   map[string][]int // source ID -> indexes into edges
	in    map[string][]int // target ID -> indexes into edges
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		out:   make(map[string][]int),
		in:    make(map[string][]int),
	}
}

// AddNode inserts a node. Duplicate IDs are an error.
func (g *Graph) AddNode(n Node) error {
	id := n.ID()
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("duplicate node %q", id)
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	return nil
}

// AddEdge inserts an edge. Both endpoints must already be present.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("edge source %q not in graph", e.Source)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return fmt.Errorf("edge target %q not in graph", e.Target)
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.Source] = append(g.out[e.Source], idx)
	g.in[e.Target] = append(g.in[e.Target], idx)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// MatchingEdges resolves the subscribers of an event emitted by source: out
// edges of source whose filter matches the event name, in edge insertion
// order. An event from a node that is not a graph vertex is dropped with a
// warning rather than treated as an error.
func (g *Graph) MatchingEdges(event Event, source Node) []EdgeMatch {
	id := source.ID()
	if _, ok := g.nodes[id]; !ok {
		slog.Warn("got an event from a node that is not a graph vertex", "source", id, "event", event.Name)
		return nil
	}

	var matches []EdgeMatch
	for _, idx := range g.out[id] {
		e := g.edges[idx]
		if !e.Matches(event.Name) {
			continue
		}
		matches = append(matches, EdgeMatch{Target: g.nodes[e.Target], Operation: e.Operation})
	}
	return matches
}

// Dependencies returns the IDs of the direct dependencies of a node (the
// sources of its in-edges), in edge insertion order. Used by the executor's
// skip decision.
func (g *Graph) Dependencies(id string) []string {
	idxs := g.in[id]
	if len(idxs) == 0 {
		return nil
	}
	deps := make([]string, 0, len(idxs))
	seen := make(map[string]bool, len(idxs))
	for _, idx := range idxs {
		src := g.edges[idx].Source
		if seen[src] {
			continue
		}
		seen[src] = true
		deps = append(deps, src)
	}
	return deps
}
