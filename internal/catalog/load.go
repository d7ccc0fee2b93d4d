package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError is a catalog loading or decoding error, carrying the CUE
// source position when one is known.
type CompileError struct {
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads every CUE file in dir and decodes the top-level `catalog`
// value into a Spec. The result is structurally decoded but not yet
// validated; call Validate before Build.
func Load(dir string) (*Spec, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &CompileError{Message: fmt.Sprintf("catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &CompileError{Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	// Package "_" loads files without a package clause, which cue v0.11+
	// does by default; required while pinned to cue v0.9 for Go 1.21.
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir, Package: "_"})
	if len(instances) == 0 {
		return nil, &CompileError{Message: fmt.Sprintf("no CUE instances in %s", dir)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, compileError("loading CUE files", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, compileError("building CUE value", err)
	}

	catalogVal := value.LookupPath(cue.ParsePath("catalog"))
	if !catalogVal.Exists() {
		return nil, &CompileError{Message: "no top-level `catalog` value found"}
	}
	if err := catalogVal.Validate(cue.Concrete(true)); err != nil {
		return nil, compileError("catalog is not concrete", err)
	}

	var spec Spec
	if err := catalogVal.Decode(&spec); err != nil {
		return nil, compileError("decoding catalog", err)
	}
	if spec.Units == nil {
		spec.Units = map[string]UnitDef{}
	}
	if spec.Groups == nil {
		spec.Groups = map[string]GroupDef{}
	}
	return &spec, nil
}

// compileError wraps a CUE error as a CompileError, preserving the first
// reported source position.
func compileError(context string, err error) *CompileError {
	ce := &CompileError{Message: fmt.Sprintf("%s: %v", context, err)}
	if positions := cueerrors.Positions(cueerrors.Promote(err, context)); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
