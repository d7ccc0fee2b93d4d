// Package harness is the conformance framework for the pass engine.
//
// A scenario is a YAML document declaring scripted units (their planned
// changes, supported operations, and scripted failures), groups,
// relations, and an expect block describing the pass outcome. Run builds
// the scripted units over a fake driver, assembles the relationship graph
// the same way the catalog builder does, executes one pass with a fixed
// run ID and a fixed clock, and evaluates the expectations.
//
// RunGolden additionally compares the pass's canonical trace snapshot
// against testdata/<scenario>.golden via goldie; regenerate with
//
//	go test ./internal/harness -update
//
// Because run identity and wall times stay out of the snapshot, golden
// files only change when the engine's decisions change.
package harness
