package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/windlass-io/windlass/internal/catalog"
	"github.com/windlass-io/windlass/internal/engine"
	"github.com/windlass-io/windlass/internal/report"
	"github.com/windlass-io/windlass/internal/trace"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Noop     bool
	Database string

	// RunIDs and Clock allow overriding pass identity (for testing).
	// Nil defaults to UUIDv7 run IDs and the system clock.
	RunIDs engine.RunIDGenerator
	Clock  engine.Clock
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <catalog-dir>",
		Short: "Run one convergence pass against a catalog",
		Long: `Compile and validate a catalog, build the unit relationship graph, and
run one convergence pass. With --noop, drift is reported but nothing is
performed and refresh invocations are suppressed. With --db, the pass
report is persisted for later inspection with the history command.

Example:
  windlass apply ./catalog
  windlass apply --noop ./catalog
  windlass apply --db ./windlass.db ./catalog`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Noop, "noop", false, "report drift without applying anything")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite report database (optional)")

	return cmd
}

// applyReport is the JSON payload of a finished pass.
type applyReport struct {
	RunID     string              `json:"run_id"`
	Noop      bool                `json:"noop"`
	TraceHash string              `json:"trace_hash"`
	Totals    engine.Totals       `json:"totals"`
	Nodes     []nodeReport        `json:"nodes"`
	Delivered []trace.EventRecord `json:"delivered"`
}

// nodeReport is one node's outcome in the JSON payload.
type nodeReport struct {
	Node            string              `json:"node"`
	Changes         int                 `json:"changes"`
	Failed          bool                `json:"failed,omitempty"`
	FailureMessage  string              `json:"failure_message,omitempty"`
	Skipped         bool                `json:"skipped,omitempty"`
	Restarted       bool                `json:"restarted,omitempty"`
	FailedToRestart bool                `json:"failed_to_restart,omitempty"`
	Events          []trace.EventRecord `json:"events,omitempty"`
}

func runApply(opts *ApplyOptions, catalogDir string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	spec, problems, err := loadCatalog(catalogDir)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		_ = out.Error("catalog validation failed", problemLines(problems))
		return NewExitError(ExitFailure, fmt.Sprintf("catalog has %d validation problem(s)", len(problems)))
	}

	g, _, err := catalog.Build(spec, catalog.Options{Noop: opts.Noop, Logger: slog.Default()})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build graph", err)
	}

	execOpts := []engine.ExecutorOption{engine.WithNoop(opts.Noop)}
	if opts.RunIDs != nil {
		execOpts = append(execOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Clock != nil {
		execOpts = append(execOpts, engine.WithClock(opts.Clock))
	}

	ctx := commandContext(cmd)
	summary, err := engine.NewExecutor(g, execOpts...).Run(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "pass aborted", err)
	}

	if opts.Database != "" {
		if err := persistPass(ctx, opts.Database, summary); err != nil {
			return err
		}
	}

	snapshot := trace.FromSummary(summary)
	hash, err := trace.PassHash(snapshot)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash pass trace", err)
	}

	totals := summary.Totals()
	if out.JSON() {
		if err := out.SuccessJSON(buildApplyReport(summary, snapshot, hash)); err != nil {
			return err
		}
	} else {
		renderApplyText(out, summary, totals, hash)
	}

	if totals.Failed > 0 || totals.FailedToRestart > 0 {
		return NewExitError(ExitFailure, "pass finished with failures")
	}
	return nil
}

func persistPass(ctx context.Context, path string, summary *engine.Summary) error {
	store, err := report.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open report database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing report database", "error", closeErr)
		}
	}()
	if err := store.SavePass(ctx, summary); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist pass report", err)
	}
	return nil
}

func buildApplyReport(summary *engine.Summary, snapshot *trace.Snapshot, hash string) applyReport {
	nodes := make([]nodeReport, len(snapshot.Visits))
	for i, v := range snapshot.Visits {
		nodes[i] = nodeReport{
			Node:            v.Node,
			Changes:         v.Changes,
			Failed:          v.Failed,
			FailureMessage:  v.FailureMessage,
			Skipped:         v.Skipped,
			Restarted:       v.Restarted,
			FailedToRestart: v.FailedToRestart,
			Events:          v.Events,
		}
	}
	return applyReport{
		RunID:     summary.RunID,
		Noop:      summary.Noop,
		TraceHash: hash,
		Totals:    summary.Totals(),
		Nodes:     nodes,
		Delivered: snapshot.Delivered,
	}
}

func renderApplyText(out *OutputFormatter, summary *engine.Summary, totals engine.Totals, hash string) {
	header := fmt.Sprintf("Pass %s", summary.RunID)
	if summary.Noop {
		header += " (noop)"
	}
	fmt.Fprintln(out.Writer, header)

	for _, status := range summary.Statuses {
		fmt.Fprintf(out.Writer, "  %s: %s\n", status.NodeID, describeStatus(status))
	}

	fmt.Fprintf(out.Writer, "%d nodes: %d changed, %d failed, %d skipped, %d restarted\n",
		totals.Nodes, totals.Changed, totals.Failed, totals.Skipped, totals.Restarted)
	fmt.Fprintf(out.Writer, "trace %s\n", hash)
}

// describeStatus renders one node outcome for text output.
func describeStatus(status *engine.NodeStatus) string {
	switch {
	case status.Failed:
		return fmt.Sprintf("failed (%s)", status.FailureMessage)
	case status.Skipped:
		return "skipped"
	case status.FailedToRestart:
		return "failed to restart"
	case status.Restarted && status.ChangeCount > 0:
		return fmt.Sprintf("%d change(s), restarted", status.ChangeCount)
	case status.Restarted:
		return "restarted"
	case status.ChangeCount > 0:
		return fmt.Sprintf("%d change(s)", status.ChangeCount)
	default:
		return "in sync"
	}
}
