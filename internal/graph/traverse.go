package graph

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle found during traversal planning.
// Path lists the node IDs along the cycle, with the first ID repeated at
// the end.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Toposort returns the nodes in dependency order: every edge source comes
// before its target. Ties are broken by node insertion order, so the same
// graph always yields the same visit sequence.
//
// A cyclic graph returns a *CycleError naming one offending cycle.
func (g *Graph) Toposort() ([]Node, error) {
	indegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		indegree[e.Target]++
	}

	// Kahn's algorithm. The ready list is scanned in insertion order each
	// round instead of using a heap; graphs here are catalog-sized.
	var sorted []Node
	done := make(map[string]bool, len(g.order))
	for len(sorted) < len(g.order) {
		progressed := false
		for _, id := range g.order {
			if done[id] || indegree[id] != 0 {
				continue
			}
			done[id] = true
			sorted = append(sorted, g.nodes[id])
			for _, idx := range g.out[id] {
				indegree[g.edges[idx].Target]--
			}
			progressed = true
		}
		if !progressed {
			return nil, &CycleError{Path: g.findCycle(done)}
		}
	}
	return sorted, nil
}

// findCycle locates one cycle among the nodes Kahn's algorithm could not
// place. Every unplaced node still has an unplaced predecessor, so walking
// predecessors must eventually revisit a node; the revisit closes a cycle.
// The walk is reversed at the end so the path reads in edge direction.
func (g *Graph) findCycle(done map[string]bool) []string {
	var start string
	for _, id := range g.order {
		if !done[id] {
			start = id
			break
		}
	}

	seen := make(map[string]int)
	var walk []string
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			cycle := append([]string(nil), walk[at:]...)
			// walk went against edge direction; flip everything
			// after the repeated node so the path reads forward.
			for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
				cycle[i], cycle[j] = cycle[j], cycle[i]
			}
			return append(cycle, cur)
		}
		seen[cur] = len(walk)
		walk = append(walk, cur)

		prev := ""
		for _, idx := range g.in[cur] {
			s := g.edges[idx].Source
			if !done[s] {
				prev = s
				break
			}
		}
		if prev == "" {
			return walk
		}
		cur = prev
	}
}
