// Package report persists pass summaries to SQLite so runs can be listed
// and inspected after the fact.
//
// Each saved pass stores its totals and trace hash in the passes table,
// the per-node outcomes in node_statuses (visit order preserved via the
// position column), and the delivered-event log in delivered_events.
// Writes are transactional and idempotent per run ID. The trace hash comes
// from internal/trace, so two recorded passes with equal hashes made
// byte-identical decisions.
package report
