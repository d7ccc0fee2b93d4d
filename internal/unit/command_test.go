package unit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/internal/graph"
)

func TestCommandDriver_Plan_NoCommand(t *testing.T) {
	d := &CommandDriver{}
	_, err := d.Plan(context.Background())
	assert.ErrorContains(t, err, "no command")
}

func TestCommandDriver_Plan_CreatesGuard(t *testing.T) {
	dir := t.TempDir()
	guard := filepath.Join(dir, "done")

	d := &CommandDriver{Command: []string{"true"}, Creates: guard}

	changes, err := d.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 1, "guard missing: command runs")
	assert.Equal(t, EventExecuted, changes[0].Event)

	require.NoError(t, os.WriteFile(guard, nil, 0o644))
	changes, err = d.Plan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes, "guard present: converged")
}

func TestCommandDriver_Perform(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	d := &CommandDriver{Command: []string{"touch", marker}, Creates: marker}

	require.NoError(t, d.Perform(context.Background(), Change{Event: EventExecuted}))
	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestCommandDriver_Invoke_Refresh(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "refreshed")
	d := &CommandDriver{
		Command:        []string{"false"},
		RefreshCommand: []string{"touch", marker},
	}

	require.NoError(t, d.Invoke(graph.OperationRefresh))
	_, err := os.Stat(marker)
	assert.NoError(t, err, "refresh runs the refresh command, not the main command")
}

func TestCommandDriver_Invoke_FallsBackToCommand(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	d := &CommandDriver{Command: []string{"touch", marker}}

	require.NoError(t, d.Invoke(graph.OperationRefresh))
	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestCommandDriver_Invoke_FailureCarriesOutput(t *testing.T) {
	d := &CommandDriver{Command: []string{"sh", "-c", "echo config test failed >&2; exit 1"}}

	err := d.Invoke(graph.OperationRefresh)
	require.Error(t, err)
	assert.ErrorContains(t, err, "config test failed")
}

func TestCommandDriver_Invoke_UnknownOperation(t *testing.T) {
	d := &CommandDriver{Command: []string{"true"}}
	assert.Error(t, d.Invoke("reload"))
}

func TestCommandDriver_Operations(t *testing.T) {
	d := &CommandDriver{Command: []string{"true"}}
	assert.Equal(t, []string{graph.OperationRefresh}, d.Operations())
}
