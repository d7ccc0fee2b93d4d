// Package catalog loads, validates, and builds the declarative catalog a
// pass converges.
//
// Catalogs are written in CUE. A catalog declares named units (files,
// commands) and groups of units, with four relation kinds per unit:
// require and before order the pass, notify and subscribe additionally
// forward events so a changed unit can trigger callbacks downstream. A
// relation may reference a single unit or a whole group via "group:<name>".
//
// Build turns a validated catalog into the relationship graph the executor
// walks: one concrete node per unit, plus a begin/end anchor pair
// bracketing each group. Containment edges between anchors and members are
// event-transparent (wildcard filter, refresh operation), which is what
// lets a restart pass through a group boundary in either direction.
package catalog
