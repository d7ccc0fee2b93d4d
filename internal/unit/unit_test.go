package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/internal/graph"
)

// stubDriver scripts Plan/Perform/Invoke results for unit tests.
type stubDriver struct {
	changes    []Change
	planErr    error
	performErr error
	operations []string
	invokeErr  error

	performed []Change
	invoked   []string
}

func (d *stubDriver) Plan(ctx context.Context) ([]Change, error) {
	return d.changes, d.planErr
}

func (d *stubDriver) Perform(ctx context.Context, change Change) error {
	if d.performErr != nil {
		return d.performErr
	}
	d.performed = append(d.performed, change)
	return nil
}

func (d *stubDriver) Operations() []string { return d.operations }

func (d *stubDriver) Invoke(operation string) error {
	d.invoked = append(d.invoked, operation)
	return d.invokeErr
}

func TestUnit_Identity(t *testing.T) {
	u := New(Config{Name: "motd", Type: "file"}, &stubDriver{})

	assert.Equal(t, "file:motd", u.ID())
	assert.Equal(t, "motd", u.Name())
	assert.Equal(t, "file", u.Type())
	assert.Equal(t, graph.KindConcrete, u.Kind())
	assert.False(t, graph.IsAnchor(u))
}

func TestUnit_Supports(t *testing.T) {
	u := New(Config{Name: "app", Type: "command"}, &stubDriver{operations: []string{"refresh"}})

	assert.True(t, u.Supports("refresh"))
	assert.False(t, u.Supports("reload"))
}

func TestUnit_Invoke_UnsupportedOperation(t *testing.T) {
	d := &stubDriver{operations: []string{"refresh"}}
	u := New(Config{Name: "app", Type: "command"}, d)

	err := u.Invoke("reload")
	assert.ErrorContains(t, err, `does not support operation "reload"`)
	assert.Empty(t, d.invoked, "the driver is never reached")

	require.NoError(t, u.Invoke("refresh"))
	assert.Equal(t, []string{"refresh"}, d.invoked)
}

func TestUnit_Apply_EmitsOneEventPerChange(t *testing.T) {
	d := &stubDriver{changes: []Change{
		{Event: "created", Message: "create /etc/motd"},
		{Event: "content_changed", Message: "update content of /etc/motd"},
	}}
	u := New(Config{Name: "motd", Type: "file"}, d)

	events, err := u.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "created", events[0].Name)
	assert.Equal(t, graph.StatusSuccess, events[0].Status)
	assert.Equal(t, "file:motd", events[0].Source)
	assert.Equal(t, "create /etc/motd", events[0].Message)
	assert.Equal(t, "content_changed", events[1].Name)

	assert.Len(t, d.performed, 2, "every change is performed")
}

func TestUnit_Apply_Converged(t *testing.T) {
	u := New(Config{Name: "motd", Type: "file"}, &stubDriver{})

	events, err := u.Apply(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnit_Apply_NoopSuppressesPerform(t *testing.T) {
	d := &stubDriver{changes: []Change{{Event: "created", Message: "create /etc/motd"}}}
	u := New(Config{Name: "motd", Type: "file", Noop: true}, d)

	events, err := u.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, graph.StatusNoop, events[0].Status)
	assert.Equal(t, "create /etc/motd (noop)", events[0].Message)
	assert.Empty(t, d.performed, "noop mode never performs")
}

func TestUnit_Apply_PlanError(t *testing.T) {
	d := &stubDriver{planErr: errors.New("permission denied")}
	u := New(Config{Name: "motd", Type: "file"}, d)

	_, err := u.Apply(context.Background())
	assert.ErrorContains(t, err, "plan file:motd")
}

func TestUnit_Apply_PerformErrorFailsApply(t *testing.T) {
	d := &stubDriver{
		changes:    []Change{{Event: "created", Message: "create /etc/motd"}},
		performErr: errors.New("read-only filesystem"),
	}
	u := New(Config{Name: "motd", Type: "file"}, d)

	events, err := u.Apply(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "read-only filesystem")
	assert.Empty(t, events, "a failed apply queues nothing")
}

func TestUnit_Apply_RemovingInvalidatesRefreshes(t *testing.T) {
	d := &stubDriver{changes: []Change{{Event: "removed", Message: "remove /etc/motd"}}}
	u := New(Config{Name: "motd", Type: "file", Removing: true}, d)

	events, err := u.Apply(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].InvalidateRefreshes)
}

func TestUnit_RemovingSuppressesSelfRefresh(t *testing.T) {
	u := New(Config{Name: "motd", Type: "file", SelfRefresh: true, Removing: true}, &stubDriver{})

	assert.True(t, u.SelfRefresh())
	assert.True(t, u.BeingRemoved())
}
