// Package unit implements the concrete managed nodes a catalog declares.
//
// A Unit pairs a type-specific Driver (file content, command execution)
// with the node plumbing the engine needs: stable identity, capability
// checks, event construction, noop suppression, and scoped logging. Units
// implement both graph.Node and the executor's Applier, so they slot
// directly into the relationship graph built from a catalog.
package unit
