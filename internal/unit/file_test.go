package unit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDriver_Plan(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	tests := []struct {
		name   string
		driver FileDriver
		want   string // expected event, "" for converged
	}{
		{"missing file is created", FileDriver{Path: filepath.Join(dir, "missing"), Content: "x"}, EventCreated},
		{"drifted content is updated", FileDriver{Path: existing, Content: "new"}, EventContentChanged},
		{"matching content is converged", FileDriver{Path: existing, Content: "old"}, ""},
		{"absent and missing is converged", FileDriver{Path: filepath.Join(dir, "missing"), Absent: true}, ""},
		{"absent and present is removed", FileDriver{Path: existing, Absent: true}, EventRemoved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := tt.driver.Plan(context.Background())
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, changes)
				return
			}
			require.Len(t, changes, 1)
			assert.Equal(t, tt.want, changes[0].Event)
		})
	}
}

func TestFileDriver_Perform_CreateAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "app.conf")
	d := &FileDriver{Path: path, Content: "listen 8080\n"}

	changes, err := d.Plan(context.Background())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.NoError(t, d.Perform(context.Background(), changes[0]))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "listen 8080\n", string(got))

	// Converged now.
	changes, err = d.Plan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestFileDriver_Perform_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	d := &FileDriver{Path: path, Absent: true}
	require.NoError(t, d.Perform(context.Background(), Change{Event: EventRemoved}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileDriver_NoOperations(t *testing.T) {
	d := &FileDriver{Path: "/tmp/x"}
	assert.Empty(t, d.Operations())
	assert.Error(t, d.Invoke("refresh"))
}
