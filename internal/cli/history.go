package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/windlass-io/windlass/internal/report"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [pass-id]",
		Short: "Inspect persisted pass reports",
		Long: `List the passes persisted with apply --db, most recent first, or show
one pass in full by its run ID.

Example:
  windlass history --db ./windlass.db
  windlass history --db ./windlass.db --limit 5
  windlass history --db ./windlass.db 0196fa3e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(opts, args[0], cmd)
			}
			return runHistoryList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite report database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of passes to list (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func openHistory(path string) (*report.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("report database %s not found", path), err)
	}
	store, err := report.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open report database", err)
	}
	return store, nil
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	store, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(store)

	ctx := commandContext(cmd)
	passes, err := store.ListPasses(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list passes", err)
	}

	if out.JSON() {
		return out.SuccessJSON(passes)
	}

	if len(passes) == 0 {
		fmt.Fprintln(out.Writer, "No passes recorded.")
		return nil
	}
	for _, p := range passes {
		line := fmt.Sprintf("%s  %s  %d nodes, %d changed, %d failed, %d skipped, %d restarted",
			p.ID, p.StartedAt.Format(time.RFC3339), p.Nodes, p.Changed, p.Failed, p.Skipped, p.Restarted)
		if p.Noop {
			line += "  (noop)"
		}
		fmt.Fprintln(out.Writer, line)
	}
	return nil
}

func runHistoryShow(opts *HistoryOptions, passID string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	store, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(store)

	pass, err := store.LoadPass(commandContext(cmd), passID)
	if err != nil {
		if errors.Is(err, report.ErrPassNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("pass %s not found", passID))
		}
		return WrapExitError(ExitCommandError, "failed to load pass", err)
	}

	if out.JSON() {
		return out.SuccessJSON(pass)
	}

	header := fmt.Sprintf("Pass %s", pass.ID)
	if pass.Noop {
		header += " (noop)"
	}
	fmt.Fprintln(out.Writer, header)
	fmt.Fprintf(out.Writer, "  started  %s\n", pass.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out.Writer, "  finished %s\n", pass.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(out.Writer, "  trace    %s\n", pass.TraceHash)
	for _, status := range pass.Statuses {
		fmt.Fprintf(out.Writer, "  %s: changes=%d failed=%t skipped=%t restarted=%t\n",
			status.NodeID, status.ChangeCount, status.Failed, status.Skipped, status.Restarted)
		for _, e := range status.Events {
			fmt.Fprintf(out.Writer, "    %s [%s] %s\n", e.Name, e.Status, e.Message)
		}
	}
	if len(pass.Delivered) > 0 {
		fmt.Fprintln(out.Writer, "  delivered:")
		for _, e := range pass.Delivered {
			fmt.Fprintf(out.Writer, "    %s from %s [%s] %s\n", e.Name, e.Source, e.Status, e.Message)
		}
	}
	return nil
}

func closeStore(store *report.Store) {
	if err := store.Close(); err != nil {
		slog.Error("error closing report database", "error", err)
	}
}

// commandContext returns the command's context, falling back to
// context.Background when unset (direct invocation in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
