package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/windlass-io/windlass/internal/catalog"
	"github.com/windlass-io/windlass/internal/graph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <catalog-dir>",
		Short: "Print a catalog's relationship graph",
		Long: `Compile the catalog, build the relationship graph, and print the nodes
in traversal order followed by the edges. Subscription edges show their
event filter and the operation they trigger.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	return cmd
}

// graphReport is the JSON payload of a graph run.
type graphReport struct {
	Nodes []string    `json:"nodes"`
	Edges []edgeEntry `json:"edges"`
}

// edgeEntry is one edge in the JSON payload.
type edgeEntry struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Filter    string `json:"filter,omitempty"`
	Operation string `json:"operation,omitempty"`
}

func runGraph(opts *GraphOptions, catalogDir string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	spec, problems, err := loadCatalog(catalogDir)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		_ = out.Error("catalog validation failed", problemLines(problems))
		return NewExitError(ExitFailure, fmt.Sprintf("catalog has %d validation problem(s)", len(problems)))
	}

	g, _, err := catalog.Build(spec, catalog.Options{Logger: slog.Default()})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build graph", err)
	}

	order, err := g.Toposort()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to order graph", err)
	}

	if out.JSON() {
		return out.SuccessJSON(buildGraphReport(order, g.Edges()))
	}

	fmt.Fprintln(out.Writer, "Nodes (traversal order):")
	for _, n := range order {
		fmt.Fprintf(out.Writer, "  %s\n", n.ID())
	}
	fmt.Fprintln(out.Writer, "Edges:")
	for _, e := range g.Edges() {
		fmt.Fprintf(out.Writer, "  %s\n", describeEdge(e))
	}
	return nil
}

func buildGraphReport(order []graph.Node, edges []graph.Edge) graphReport {
	r := graphReport{Nodes: make([]string, len(order)), Edges: make([]edgeEntry, len(edges))}
	for i, n := range order {
		r.Nodes[i] = n.ID()
	}
	for i, e := range edges {
		r.Edges[i] = edgeEntry{Source: e.Source, Target: e.Target, Filter: e.Filter, Operation: e.Operation}
	}
	return r
}

// describeEdge renders one edge for text output.
func describeEdge(e graph.Edge) string {
	if e.Filter == "" {
		return fmt.Sprintf("%s -> %s", e.Source, e.Target)
	}
	return fmt.Sprintf("%s -> %s [filter=%s operation=%s]", e.Source, e.Target, e.Filter, e.Operation)
}
