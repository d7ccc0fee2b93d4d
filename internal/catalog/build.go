package catalog

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/windlass-io/windlass/internal/graph"
	"github.com/windlass-io/windlass/internal/unit"
)

// Options configures Build.
type Options struct {
	// Noop suppresses side effects for every node in the built graph.
	Noop bool

	// Logger is the base logger for nodes. Nil uses slog.Default().
	Logger *slog.Logger
}

// Build turns a validated spec into the relationship graph for one pass,
// plus the concrete units in deterministic (name-sorted) order.
//
// Nodes are inserted units first, then group anchors, both in sorted
// order, so the same catalog always produces the same traversal. A group g
// contributes a "group:g:begin" and "group:g:end" anchor pair; containment
// edges are wildcard-filtered refresh edges in both directions
// (begin->member and member->end), which lets restarts pass through the
// boundary. A relation targeting "group:g" attaches to the begin anchor
// when pointing into the group and leaves from the end anchor.
//
// The built graph is checked for dependency cycles before being returned.
func Build(spec *Spec, opts Options) (*graph.Graph, []*unit.Unit, error) {
	g := graph.New()

	units := make([]*unit.Unit, 0, len(spec.Units))
	unitIDs := make(map[string]string, len(spec.Units))
	for _, name := range spec.UnitNames() {
		def := spec.Units[name]
		u, err := buildUnit(name, def, opts)
		if err != nil {
			return nil, nil, err
		}
		if err := g.AddNode(u); err != nil {
			return nil, nil, err
		}
		units = append(units, u)
		unitIDs[name] = u.ID()
	}

	for _, name := range spec.GroupNames() {
		def := spec.Groups[name]
		begin := graph.NewAnchor(anchorID(name, "begin"), opts.Noop, opts.Logger)
		end := graph.NewAnchor(anchorID(name, "end"), opts.Noop, opts.Logger)
		if err := g.AddNode(begin); err != nil {
			return nil, nil, err
		}
		if err := g.AddNode(end); err != nil {
			return nil, nil, err
		}
		if err := g.AddEdge(graph.Edge{Source: begin.ID(), Target: end.ID()}); err != nil {
			return nil, nil, err
		}
		for _, member := range def.Members {
			memberID := unitIDs[member]
			passThrough := []graph.Edge{
				{Source: begin.ID(), Target: memberID, Filter: graph.FilterAll, Operation: graph.OperationRefresh},
				{Source: memberID, Target: end.ID(), Filter: graph.FilterAll, Operation: graph.OperationRefresh},
			}
			for _, e := range passThrough {
				if err := g.AddEdge(e); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	for _, name := range spec.UnitNames() {
		def := spec.Units[name]
		id := unitIDs[name]
		if err := addRelationEdges(g, spec, unitIDs, id, def); err != nil {
			return nil, nil, fmt.Errorf("unit %s: %w", name, err)
		}
	}

	if _, err := g.Toposort(); err != nil {
		return nil, nil, err
	}
	return g, units, nil
}

func buildUnit(name string, def UnitDef, opts Options) (*unit.Unit, error) {
	cfg := unit.Config{
		Name:        name,
		Type:        def.Type,
		SelfRefresh: def.SelfRefresh,
		Noop:        opts.Noop || def.Noop,
		Removing:    def.Ensure == EnsureAbsent,
		Logger:      opts.Logger,
	}

	var driver unit.Driver
	switch def.Type {
	case TypeFile:
		driver = &unit.FileDriver{
			Path:    def.Path,
			Content: def.Content,
			Absent:  def.Ensure == EnsureAbsent,
		}
	case TypeCommand:
		driver = &unit.CommandDriver{
			Command:        def.Command,
			RefreshCommand: def.RefreshCommand,
			Creates:        def.Creates,
		}
	default:
		return nil, fmt.Errorf("unit %s: unknown type %q", name, def.Type)
	}
	return unit.New(cfg, driver), nil
}

func addRelationEdges(g *graph.Graph, spec *Spec, unitIDs map[string]string, id string, def UnitDef) error {
	edges := make([]graph.Edge, 0, 4)
	for _, target := range def.Require {
		from, _ := resolveRef(unitIDs, target)
		edges = append(edges, graph.Edge{Source: from, Target: id})
	}
	for _, target := range def.Before {
		_, to := resolveRef(unitIDs, target)
		edges = append(edges, graph.Edge{Source: id, Target: to})
	}
	for _, target := range def.Notify {
		_, to := resolveRef(unitIDs, target)
		edges = append(edges, graph.Edge{Source: id, Target: to, Filter: graph.FilterAll, Operation: graph.OperationRefresh})
	}
	for _, target := range def.Subscribe {
		from, _ := resolveRef(unitIDs, target)
		edges = append(edges, graph.Edge{Source: from, Target: id, Filter: graph.FilterAll, Operation: graph.OperationRefresh})
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			return err
		}
	}
	return nil
}

// resolveRef maps a relation target to the node IDs relations use: the ID
// events leave from (the end anchor for groups) and the ID edges point
// into (the begin anchor for groups). A plain unit is both.
func resolveRef(unitIDs map[string]string, target string) (outgoing, incoming string) {
	if group, ok := strings.CutPrefix(target, "group:"); ok {
		return anchorID(group, "end"), anchorID(group, "begin")
	}
	id := unitIDs[target]
	return id, id
}

func anchorID(group, side string) string {
	return fmt.Sprintf("group:%s:%s", group, side)
}
