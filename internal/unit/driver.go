package unit

import (
	"context"

	"github.com/windlass-io/windlass/internal/graph"
)

// Change is one detected drift item: Event becomes the name of the event
// the unit emits once the change is applied (or would have been, in noop
// mode), and Message describes it for logs and reports.
type Change struct {
	Event   string
	Message string
}

// Driver implements the type-specific behavior of a unit. The surrounding
// Unit handles node identity, noop suppression, event construction, and
// logging; the driver only detects drift, applies single changes, and runs
// callback operations.
type Driver interface {
	// Plan detects drift and returns the changes needed to converge,
	// in application order. An empty result means the unit is already
	// converged.
	Plan(ctx context.Context) ([]Change, error)

	// Perform applies one planned change.
	Perform(ctx context.Context, change Change) error

	// Operations lists the callback operations the driver supports.
	// Empty is valid: such a unit can be notified but never triggered.
	Operations() []string

	// Invoke runs a supported callback operation.
	Invoke(operation string) error
}

var _ graph.Node = (*Unit)(nil)
