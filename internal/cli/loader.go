package cli

import (
	"fmt"

	"github.com/windlass-io/windlass/internal/catalog"
)

// loadCatalog compiles and validates a catalog directory. Compile errors
// are command errors; validation findings come back as a non-nil problem
// list with a nil error.
func loadCatalog(dir string) (*catalog.Spec, []catalog.Problem, error) {
	spec, err := catalog.Load(dir)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to compile catalog %s", dir), err)
	}
	return spec, catalog.Validate(spec), nil
}

// problemLines renders validation findings one per line.
func problemLines(problems []catalog.Problem) []string {
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.String()
	}
	return lines
}
