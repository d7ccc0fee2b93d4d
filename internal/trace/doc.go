// Package trace produces the deterministic, content-addressable form of a
// pass: a Snapshot of per-node outcomes and delivered events, serialized
// as RFC 8785 canonical JSON and hashed with SHA-256 under a
// domain-separated prefix. The report store persists the hash so history
// queries can tell identical passes from drifted ones, and the harness
// compares snapshots against golden files byte for byte.
package trace
