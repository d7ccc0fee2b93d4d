package graph

// FilterAll subscribes an edge to every event name its source emits.
const FilterAll = "*"

// Edge is a directed relationship between two nodes. An empty Filter makes
// the edge pure ordering: it constrains traversal but never forwards events.
// A non-empty Filter subscribes the target to matching events, and Operation
// names the callback to invoke on the target when one arrives.
type Edge struct {
	// Source and Target are node IDs; both must exist in the graph.
	Source string
	Target string

	// Filter is "" (ordering only), FilterAll, or an exact event name.
	Filter string

	// Operation is the callback queued on Target for matching events.
	// Empty means the edge delivers nothing even when the filter matches.
	Operation string
}

// Matches reports whether the edge subscribes to events with the given name.
func (e Edge) Matches(name string) bool {
	if e.Filter == "" {
		return false
	}
	return e.Filter == FilterAll || e.Filter == name
}

// EdgeMatch is one subscriber resolved by MatchingEdges: the live target
// node and the operation the edge carries (possibly empty).
type EdgeMatch struct {
	Target    Node
	Operation string
}
