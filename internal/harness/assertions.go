package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/windlass-io/windlass/internal/engine"
)

// evaluate checks every expectation against the summary and returns one
// failure string per unmet expectation.
func evaluate(expect Expect, summary *engine.Summary) []string {
	var failures []string

	sets := []struct {
		field   string
		want    []string
		matches func(*engine.NodeStatus) bool
	}{
		{"changed", expect.Changed, func(s *engine.NodeStatus) bool { return s.ChangeCount > 0 }},
		{"restarted", expect.Restarted, func(s *engine.NodeStatus) bool { return s.Restarted }},
		{"failed_to_restart", expect.FailedToRestart, func(s *engine.NodeStatus) bool { return s.FailedToRestart }},
		{"failed", expect.Failed, func(s *engine.NodeStatus) bool { return s.Failed }},
		{"skipped", expect.Skipped, func(s *engine.NodeStatus) bool { return s.Skipped }},
	}
	for _, set := range sets {
		var got []string
		for _, status := range summary.Statuses {
			if set.matches(status) {
				got = append(got, status.NodeID)
			}
		}
		if !sameSet(set.want, got) {
			failures = append(failures, fmt.Sprintf("%s: want %v, got %v",
				set.field, sorted(set.want), sorted(got)))
		}
	}

	var delivered []string
	for _, e := range summary.Delivered {
		delivered = append(delivered, e.Name)
	}
	if !sameSequence(expect.Delivered, delivered) {
		failures = append(failures, fmt.Sprintf("delivered: want %v, got %v",
			expect.Delivered, delivered))
	}

	for _, want := range expect.Messages {
		if !messageRecorded(summary, want) {
			failures = append(failures, fmt.Sprintf("messages: %q not recorded", want))
		}
	}

	return failures
}

func messageRecorded(summary *engine.Summary, substr string) bool {
	for _, status := range summary.Statuses {
		for _, e := range status.Events {
			if strings.Contains(e.Message, substr) {
				return true
			}
		}
	}
	return false
}

func sameSet(want, got []string) bool {
	w, g := sorted(want), sorted(got)
	if len(w) != len(g) {
		return false
	}
	for i := range w {
		if w[i] != g[i] {
			return false
		}
	}
	return true
}

func sameSequence(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
