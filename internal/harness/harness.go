package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/windlass-io/windlass/internal/engine"
	"github.com/windlass-io/windlass/internal/graph"
	"github.com/windlass-io/windlass/internal/trace"
)

// fixedRunID keys every harness pass; determinism comes from here, the
// fixed clock, and insertion-ordered traversal.
const fixedRunID = "harness-pass"

var fixedStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Result is one executed scenario.
type Result struct {
	Scenario *Scenario
	Summary  *engine.Summary
	Snapshot *trace.Snapshot

	// Failures are unmet expectations, empty when the scenario passed.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes one scenario: scripted units are assembled into a graph
// exactly the way the catalog builder wires a real catalog, a single pass
// runs with deterministic identity, and the expect block is evaluated.
//
// The only returned error is a malformed scenario (dangling references,
// cycles); expectation failures land in Result.Failures.
func Run(scenario *Scenario) (*Result, error) {
	g, err := assemble(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	executor := engine.NewExecutor(g,
		engine.WithRunIDGenerator(engine.NewFixedGenerator(fixedRunID)),
		engine.WithClock(engine.NewFixedClock(fixedStart, time.Second)),
		engine.WithNoop(scenario.Noop),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	summary, err := executor.Run(context.Background())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	return &Result{
		Scenario: scenario,
		Summary:  summary,
		Snapshot: trace.FromSummary(summary),
		Failures: evaluate(scenario.Expect, summary),
	}, nil
}

// assemble mirrors catalog.Build for scripted units: name-sorted unit
// nodes, group anchor pairs with pass-through containment edges, then
// relation edges, then a cycle check.
func assemble(scenario *Scenario) (*graph.Graph, error) {
	g := graph.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	byName := make(map[string]ScenarioUnit, len(scenario.Units))
	names := make([]string, 0, len(scenario.Units))
	unitIDs := make(map[string]string, len(scenario.Units))
	for _, su := range scenario.Units {
		if _, dup := byName[su.Name]; dup {
			return nil, fmt.Errorf("duplicate unit %q", su.Name)
		}
		byName[su.Name] = su
		names = append(names, su.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		u := buildScriptedUnit(byName[name], scenario.Noop)
		if err := g.AddNode(u); err != nil {
			return nil, err
		}
		unitIDs[name] = u.ID()
	}

	groupNames := make([]string, 0, len(scenario.Groups))
	for name := range scenario.Groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		begin := graph.NewAnchor(anchorID(name, "begin"), scenario.Noop, logger)
		end := graph.NewAnchor(anchorID(name, "end"), scenario.Noop, logger)
		if err := g.AddNode(begin); err != nil {
			return nil, err
		}
		if err := g.AddNode(end); err != nil {
			return nil, err
		}
		if err := g.AddEdge(graph.Edge{Source: begin.ID(), Target: end.ID()}); err != nil {
			return nil, err
		}
		for _, member := range scenario.Groups[name] {
			memberID, ok := unitIDs[member]
			if !ok {
				return nil, fmt.Errorf("group %s: member %q is not a unit", name, member)
			}
			passThrough := []graph.Edge{
				{Source: begin.ID(), Target: memberID, Filter: graph.FilterAll, Operation: graph.OperationRefresh},
				{Source: memberID, Target: end.ID(), Filter: graph.FilterAll, Operation: graph.OperationRefresh},
			}
			for _, e := range passThrough {
				if err := g.AddEdge(e); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, name := range names {
		su := byName[name]
		id := unitIDs[name]
		if err := addRelations(g, scenario, unitIDs, id, su); err != nil {
			return nil, fmt.Errorf("unit %s: %w", name, err)
		}
	}

	if _, err := g.Toposort(); err != nil {
		return nil, err
	}
	return g, nil
}

func addRelations(g *graph.Graph, scenario *Scenario, unitIDs map[string]string, id string, su ScenarioUnit) error {
	resolve := func(target string) (outgoing, incoming string, err error) {
		if group, ok := strings.CutPrefix(target, "group:"); ok {
			if _, exists := scenario.Groups[group]; !exists {
				return "", "", fmt.Errorf("unknown group %q", group)
			}
			return anchorID(group, "end"), anchorID(group, "begin"), nil
		}
		uid, exists := unitIDs[target]
		if !exists {
			return "", "", fmt.Errorf("unknown unit %q", target)
		}
		return uid, uid, nil
	}

	add := func(targets []string, edge func(out, in string) graph.Edge) error {
		for _, target := range targets {
			out, in, err := resolve(target)
			if err != nil {
				return err
			}
			if err := g.AddEdge(edge(out, in)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := add(su.Require, func(out, _ string) graph.Edge {
		return graph.Edge{Source: out, Target: id}
	}); err != nil {
		return err
	}
	if err := add(su.Before, func(_, in string) graph.Edge {
		return graph.Edge{Source: id, Target: in}
	}); err != nil {
		return err
	}
	if err := add(su.Notify, func(_, in string) graph.Edge {
		return graph.Edge{Source: id, Target: in, Filter: graph.FilterAll, Operation: graph.OperationRefresh}
	}); err != nil {
		return err
	}
	return add(su.Subscribe, func(out, _ string) graph.Edge {
		return graph.Edge{Source: out, Target: id, Filter: graph.FilterAll, Operation: graph.OperationRefresh}
	})
}

func anchorID(group, side string) string {
	return fmt.Sprintf("group:%s:%s", group, side)
}
