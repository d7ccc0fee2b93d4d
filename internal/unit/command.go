package unit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/windlass-io/windlass/internal/graph"
)

// EventExecuted is emitted when a command unit runs its command.
const EventExecuted = "executed"

// CommandDriver runs an argv command. With a Creates guard the command
// only runs while the guard path is missing, making the unit convergent;
// without one it runs every pass.
//
// Command units support the refresh operation: a notification runs
// RefreshCommand, falling back to Command when none is configured.
type CommandDriver struct {
	// Command is the argv to run when the unit converges.
	Command []string

	// RefreshCommand is the argv run on refresh. Empty reuses Command.
	RefreshCommand []string

	// Creates skips the command while this path exists.
	Creates string
}

// Plan decides whether the command needs to run.
func (d *CommandDriver) Plan(ctx context.Context) ([]Change, error) {
	if len(d.Command) == 0 {
		return nil, fmt.Errorf("command unit has no command")
	}
	if d.Creates != "" {
		if _, err := os.Stat(d.Creates); err == nil {
			return nil, nil
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %s: %w", d.Creates, err)
		}
	}
	return []Change{{
		Event:   EventExecuted,
		Message: fmt.Sprintf("run %s", strings.Join(d.Command, " ")),
	}}, nil
}

// Perform runs the command.
func (d *CommandDriver) Perform(ctx context.Context, change Change) error {
	return runArgv(ctx, d.Command)
}

// Operations returns the refresh operation.
func (d *CommandDriver) Operations() []string {
	return []string{graph.OperationRefresh}
}

// Invoke runs the refresh command. The dispatch engine calls this without
// a context: callback latency is opaque and not timed.
func (d *CommandDriver) Invoke(operation string) error {
	if operation != graph.OperationRefresh {
		return fmt.Errorf("command units support only %q (got %q)", graph.OperationRefresh, operation)
	}
	argv := d.RefreshCommand
	if len(argv) == 0 {
		argv = d.Command
	}
	return runArgv(context.Background(), argv)
}

// runArgv executes an argv, folding trimmed combined output into the
// error so trigger failures carry the command's own message.
func runArgv(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}
