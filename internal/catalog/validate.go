package catalog

import (
	"fmt"
	"strings"
)

// Problem is one validation finding. Ref names the unit or group the
// finding is about.
type Problem struct {
	Ref     string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Ref, p.Message)
}

// Validate checks a decoded spec for structural problems: unknown unit
// types, missing type-specific fields, dangling relation references,
// duplicate group members, and unit/group name collisions. It returns all
// findings rather than stopping at the first.
//
// Relation edges toward targets that lack the refresh capability are NOT
// findings: that slack is intentional topology (a file unit may be
// notified even though nothing can be triggered on it).
func Validate(spec *Spec) []Problem {
	var problems []Problem

	for _, name := range spec.UnitNames() {
		def := spec.Units[name]
		ref := "unit " + name

		switch def.Type {
		case TypeFile:
			if def.Path == "" {
				problems = append(problems, Problem{ref, "file unit requires path"})
			}
		case TypeCommand:
			if len(def.Command) == 0 {
				problems = append(problems, Problem{ref, "command unit requires command"})
			}
		case "":
			problems = append(problems, Problem{ref, "missing type"})
		default:
			problems = append(problems, Problem{ref, fmt.Sprintf("unknown type %q", def.Type)})
		}

		if def.Ensure != "" && def.Ensure != EnsurePresent && def.Ensure != EnsureAbsent {
			problems = append(problems, Problem{ref, fmt.Sprintf("unknown ensure %q", def.Ensure)})
		}

		for _, rel := range relationRefs(def) {
			if err := checkRef(spec, rel.target); err != "" {
				problems = append(problems, Problem{ref, fmt.Sprintf("%s %q: %s", rel.kind, rel.target, err)})
			}
		}
	}

	for _, name := range spec.GroupNames() {
		def := spec.Groups[name]
		ref := "group " + name

		if _, collides := spec.Units[name]; collides {
			problems = append(problems, Problem{ref, "name collides with a unit"})
		}

		seen := map[string]bool{}
		for _, member := range def.Members {
			if seen[member] {
				problems = append(problems, Problem{ref, fmt.Sprintf("duplicate member %q", member)})
				continue
			}
			seen[member] = true
			if _, ok := spec.Units[member]; !ok {
				problems = append(problems, Problem{ref, fmt.Sprintf("member %q is not a unit", member)})
			}
		}
	}

	return problems
}

type relation struct {
	kind   string
	target string
}

func relationRefs(def UnitDef) []relation {
	var rels []relation
	for _, t := range def.Require {
		rels = append(rels, relation{"require", t})
	}
	for _, t := range def.Before {
		rels = append(rels, relation{"before", t})
	}
	for _, t := range def.Notify {
		rels = append(rels, relation{"notify", t})
	}
	for _, t := range def.Subscribe {
		rels = append(rels, relation{"subscribe", t})
	}
	return rels
}

// checkRef resolves a relation target; empty return means valid.
func checkRef(spec *Spec, target string) string {
	if group, ok := strings.CutPrefix(target, "group:"); ok {
		if _, exists := spec.Groups[group]; !exists {
			return "unknown group"
		}
		return ""
	}
	if _, exists := spec.Units[target]; !exists {
		return "unknown unit"
	}
	return ""
}
