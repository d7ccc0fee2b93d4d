package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one declarative conformance case.
type Scenario struct {
	// Name identifies the scenario; golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Noop runs the whole pass with side effects suppressed.
	Noop bool `yaml:"noop,omitempty"`

	// Units are the scripted units, applied in name-sorted order like a
	// real catalog.
	Units []ScenarioUnit `yaml:"units"`

	// Groups maps group name to member unit names.
	Groups map[string][]string `yaml:"groups,omitempty"`

	// Expect describes the pass outcome to assert.
	Expect Expect `yaml:"expect"`
}

// ScenarioUnit scripts one unit's behavior for the pass.
type ScenarioUnit struct {
	Name string `yaml:"name"`

	// Type is the nominal unit type; it only shapes the node ID
	// ("type:name"). Defaults to "test".
	Type string `yaml:"type,omitempty"`

	// Changes are the drift items Plan reports, in order.
	Changes []ScenarioChange `yaml:"changes,omitempty"`

	// ApplyError makes the unit's apply fail with this message.
	ApplyError string `yaml:"apply_error,omitempty"`

	// Operations lists the callback operations the unit supports.
	Operations []string `yaml:"operations,omitempty"`

	// FailOperations maps an operation to the error message its
	// invocation fails with.
	FailOperations map[string]string `yaml:"fail_operations,omitempty"`

	SelfRefresh bool   `yaml:"self_refresh,omitempty"`
	Noop        bool   `yaml:"noop,omitempty"`
	Ensure      string `yaml:"ensure,omitempty"` // "absent" marks removal

	Require   []string `yaml:"require,omitempty"`
	Before    []string `yaml:"before,omitempty"`
	Notify    []string `yaml:"notify,omitempty"`
	Subscribe []string `yaml:"subscribe,omitempty"`
}

// ScenarioChange is one scripted drift item.
type ScenarioChange struct {
	Event   string `yaml:"event"`
	Message string `yaml:"message,omitempty"`
}

// Expect declares the asserted pass outcome. Node sets compare exactly;
// an omitted (nil) set asserts emptiness, so scenarios state their whole
// expectation.
type Expect struct {
	// Changed lists node IDs whose apply made at least one change.
	Changed []string `yaml:"changed,omitempty"`

	// Restarted, FailedToRestart, Failed, Skipped list node IDs with the
	// corresponding status flag set.
	Restarted       []string `yaml:"restarted,omitempty"`
	FailedToRestart []string `yaml:"failed_to_restart,omitempty"`
	Failed          []string `yaml:"failed,omitempty"`
	Skipped         []string `yaml:"skipped,omitempty"`

	// Delivered is the exact sequence of delivered event names.
	Delivered []string `yaml:"delivered,omitempty"`

	// Messages are substrings that must each appear among the events
	// recorded on node statuses.
	Messages []string `yaml:"messages,omitempty"`
}

// LoadScenario reads one scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	var s Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("load scenario %s: missing name", path)
	}
	if len(s.Units) == 0 {
		return nil, fmt.Errorf("load scenario %s: no units", path)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario under dir, sorted by filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
