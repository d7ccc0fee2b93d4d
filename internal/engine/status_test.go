package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRegistry_StatusFor_CreatesOnce(t *testing.T) {
	r := NewStatusRegistry()
	a := newFakeNode("a", nil)

	first := r.StatusFor(a)
	first.Restarted = true

	second := r.StatusFor(a)
	assert.Same(t, first, second, "lookups share one record per node")
	assert.True(t, second.Restarted)
}

func TestStatusRegistry_All_FirstLookupOrder(t *testing.T) {
	r := NewStatusRegistry()
	r.StatusFor(newFakeNode("b", nil))
	r.StatusFor(newFakeNode("a", nil))
	r.StatusFor(newFakeNode("b", nil))
	r.StatusFor(newFakeNode("c", nil))

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].NodeID)
	assert.Equal(t, "a", all[1].NodeID)
	assert.Equal(t, "c", all[2].NodeID)
}

func TestStatusRegistry_Lookup(t *testing.T) {
	r := NewStatusRegistry()
	_, ok := r.Lookup("a")
	assert.False(t, ok)

	r.StatusFor(newFakeNode("a", nil))
	status, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "a", status.NodeID)
}
