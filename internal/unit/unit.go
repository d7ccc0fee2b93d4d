package unit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/windlass-io/windlass/internal/graph"
)

// Config carries the catalog-level settings shared by every unit type.
type Config struct {
	// Name is the unit's catalog name; the node ID becomes "type:name".
	Name string

	// Type is the unit type ("file", "command").
	Type string

	// SelfRefresh schedules the unit's own refresh whenever it emits
	// events.
	SelfRefresh bool

	// Noop suppresses the unit's side effects: planned changes are
	// reported as noop-status events and callback operations are skipped.
	Noop bool

	// Removing marks the unit as being removed this pass (ensure:
	// absent), which suppresses self-refresh scheduling.
	Removing bool

	// Logger is the base logger; it is scoped with the node ID. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// Unit is a concrete managed node: a Driver wrapped with identity, noop
// handling, and event plumbing. It implements both graph.Node and the
// executor's Applier.
type Unit struct {
	cfg    Config
	driver Driver
	logger *slog.Logger
}

// New wraps a driver into a unit.
func New(cfg Config, driver Driver) *Unit {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := cfg.Type + ":" + cfg.Name
	return &Unit{cfg: cfg, driver: driver, logger: logger.With("node", id)}
}

// ID returns "type:name".
func (u *Unit) ID() string { return u.cfg.Type + ":" + u.cfg.Name }

// Name returns the unit's catalog name.
func (u *Unit) Name() string { return u.cfg.Name }

// Type returns the unit type.
func (u *Unit) Type() string { return u.cfg.Type }

// Kind reports KindConcrete.
func (u *Unit) Kind() graph.NodeKind { return graph.KindConcrete }

// SelfRefresh reports the catalog's self_refresh flag.
func (u *Unit) SelfRefresh() bool { return u.cfg.SelfRefresh }

// BeingRemoved reports whether this pass removes the unit.
func (u *Unit) BeingRemoved() bool { return u.cfg.Removing }

// NoopMode reports whether the unit's side effects are suppressed.
func (u *Unit) NoopMode() bool { return u.cfg.Noop }

// Supports reports whether the driver implements the named operation.
func (u *Unit) Supports(operation string) bool {
	for _, op := range u.driver.Operations() {
		if op == operation {
			return true
		}
	}
	return false
}

// Invoke runs the named operation through the driver.
func (u *Unit) Invoke(operation string) error {
	if !u.Supports(operation) {
		return fmt.Errorf("%s does not support operation %q", u.ID(), operation)
	}
	return u.driver.Invoke(operation)
}

// MakeEvent builds an event attributed to the unit.
func (u *Unit) MakeEvent(opts graph.EventOptions) graph.Event {
	return graph.NewEvent(u.ID(), opts)
}

// Log writes a unit-scoped log line.
func (u *Unit) Log(level slog.Level, msg string) {
	u.logger.Log(context.Background(), level, msg)
}

// LogFailure records a failure against the unit's log.
func (u *Unit) LogFailure(err error) {
	u.logger.Error("operation failed", "error", err)
}

// Apply converges the unit: plan the drift, then apply each change in
// order, emitting one event per change. In noop mode nothing is performed;
// each planned change becomes a noop-status event so downstream
// suppression still propagates.
//
// A perform error fails the whole apply: the executor records the failure
// and none of the unit's events are queued.
func (u *Unit) Apply(ctx context.Context) ([]graph.Event, error) {
	changes, err := u.driver.Plan(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", u.ID(), err)
	}
	if len(changes) == 0 {
		u.logger.Debug("already converged")
		return nil, nil
	}

	var events []graph.Event
	for _, change := range changes {
		if u.cfg.Noop {
			u.Log(slog.LevelInfo, fmt.Sprintf("Would have applied: %s", change.Message))
			events = append(events, u.MakeEvent(graph.EventOptions{
				Name:    change.Event,
				Status:  graph.StatusNoop,
				Message: change.Message + " (noop)",
				// A removed unit has no state left to refresh.
				InvalidateRefreshes: u.cfg.Removing,
			}))
			continue
		}

		if err := u.driver.Perform(ctx, change); err != nil {
			return nil, fmt.Errorf("apply %s: %s: %w", u.ID(), change.Message, err)
		}
		u.Log(slog.LevelInfo, change.Message)
		events = append(events, u.MakeEvent(graph.EventOptions{
			Name:                change.Event,
			Status:              graph.StatusSuccess,
			Message:             change.Message,
			InvalidateRefreshes: u.cfg.Removing,
		}))
	}
	return events, nil
}
