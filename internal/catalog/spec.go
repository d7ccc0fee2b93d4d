package catalog

import "sort"

// Unit types understood by Build.
const (
	TypeFile    = "file"
	TypeCommand = "command"
)

// Ensure values.
const (
	EnsurePresent = "present"
	EnsureAbsent  = "absent"
)

// Spec is a compiled catalog, decoded from CUE but not yet validated.
type Spec struct {
	// Units maps unit name to definition.
	Units map[string]UnitDef `json:"units"`

	// Groups maps group name to definition.
	Groups map[string]GroupDef `json:"groups"`
}

// UnitDef declares one managed unit.
type UnitDef struct {
	// Type selects the driver: "file" or "command".
	Type string `json:"type"`

	// Ensure is "present" (default) or "absent". An absent unit is being
	// removed this pass, which suppresses its self-refresh scheduling and
	// invalidates its pending refreshes.
	Ensure string `json:"ensure,omitempty"`

	// Noop suppresses this unit's side effects even when the pass itself
	// is not noop.
	Noop bool `json:"noop,omitempty"`

	// SelfRefresh schedules the unit's own refresh whenever it changes.
	SelfRefresh bool `json:"self_refresh,omitempty"`

	// File fields.
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`

	// Command fields.
	Command        []string `json:"command,omitempty"`
	RefreshCommand []string `json:"refresh_command,omitempty"`
	Creates        string   `json:"creates,omitempty"`

	// Relations reference unit names or "group:<name>".
	Require   []string `json:"require,omitempty"`
	Before    []string `json:"before,omitempty"`
	Notify    []string `json:"notify,omitempty"`
	Subscribe []string `json:"subscribe,omitempty"`
}

// GroupDef declares a named group of units.
type GroupDef struct {
	Members []string `json:"members"`
}

// UnitNames returns the unit names sorted for deterministic iteration.
func (s *Spec) UnitNames() []string {
	return sortedKeys(s.Units)
}

// GroupNames returns the group names sorted for deterministic iteration.
func (s *Spec) GroupNames() []string {
	return sortedKeys(s.Groups)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
