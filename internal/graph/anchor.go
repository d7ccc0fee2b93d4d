package graph

import (
	"context"
	"fmt"
	"log/slog"
)

// Anchor is a synthetic node bracketing a contained group. Anchors support
// refresh as a no-op so restarts can pass through a group boundary: a
// refreshed anchor reports success, which re-emits a restarted event to the
// anchor's own subscribers.
type Anchor struct {
	id     string
	noop   bool
	logger *slog.Logger
}

// NewAnchor creates an anchor with the given identity. The noop flag mirrors
// the pass-wide noop mode so suppression propagates through group
// boundaries the same way it does through concrete nodes.
func NewAnchor(id string, noop bool, logger *slog.Logger) *Anchor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Anchor{id: id, noop: noop, logger: logger.With("node", id)}
}

// ID returns the anchor's identity.
func (a *Anchor) ID() string { return a.id }

// Kind reports KindAnchor.
func (a *Anchor) Kind() NodeKind { return KindAnchor }

// SelfRefresh is always false: anchors never schedule themselves.
func (a *Anchor) SelfRefresh() bool { return false }

// BeingRemoved is always false: anchors only exist for the current pass.
func (a *Anchor) BeingRemoved() bool { return false }

// NoopMode reports whether the pass runs with side effects suppressed.
func (a *Anchor) NoopMode() bool { return a.noop }

// Supports reports true only for the refresh operation.
func (a *Anchor) Supports(operation string) bool {
	return operation == OperationRefresh
}

// Invoke runs refresh as a no-op. Any other operation is an error, though
// callers are expected to check Supports first.
func (a *Anchor) Invoke(operation string) error {
	if operation != OperationRefresh {
		return fmt.Errorf("anchor %s does not support operation %q", a.id, operation)
	}
	return nil
}

// MakeEvent builds an event attributed to the anchor.
func (a *Anchor) MakeEvent(opts EventOptions) Event {
	return NewEvent(a.id, opts)
}

// Log writes an anchor-scoped log line.
func (a *Anchor) Log(level slog.Level, msg string) {
	a.logger.Log(context.Background(), level, msg)
}

// LogFailure records a failure against the anchor's log.
func (a *Anchor) LogFailure(err error) {
	a.logger.Error("operation failed", "error", err)
}
