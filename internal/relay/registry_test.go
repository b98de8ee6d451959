package relay

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPeer builds a peer that is valid for registry operations but has no
// running pumps.
func testPeer(t *testing.T) *Peer {
	t.Helper()
	hub := NewHub(slogt.New(t), Config{})
	return newPeer(hub, newScriptedConn())
}

func TestRegistryRegisterAndLen(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.Equal(t, 0, reg.Len())

	p1 := testPeer(t)
	p2 := testPeer(t)

	reg.Register(p1)
	require.Equal(t, 1, reg.Len())

	reg.Register(p2)
	require.Equal(t, 2, reg.Len())
}

func TestRegistryDuplicateRegisterPanics(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p := testPeer(t)
	reg.Register(p)

	require.Panics(t, func() {
		reg.Register(p)
	})
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p := testPeer(t)
	reg.Register(p)

	require.True(t, reg.Unregister(p.ID()))
	require.Equal(t, 0, reg.Len())

	// Removing again, or removing something never registered, is a no-op.
	require.False(t, reg.Unregister(p.ID()))
	require.False(t, reg.Unregister("no-such-peer"))
	require.Equal(t, 0, reg.Len())
}

func TestRegistryReRegisterAfterUnregister(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p := testPeer(t)

	reg.Register(p)
	require.True(t, reg.Unregister(p.ID()))

	// The identity is free again once removed.
	require.NotPanics(t, func() {
		reg.Register(p)
	})
	require.Equal(t, 1, reg.Len())
}

func TestRegistrySnapshotIsPointInTime(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p1 := testPeer(t)
	p2 := testPeer(t)
	reg.Register(p1)
	reg.Register(p2)

	snap := reg.Snapshot()
	require.Len(t, snap, 2)

	// Mutations after the snapshot do not alter it.
	reg.Unregister(p1.ID())
	reg.Register(testPeer(t))

	assert.Len(t, snap, 2)
	assert.ElementsMatch(t, []*Peer{p1, p2}, snap)
}

func TestRegistrySnapshotExcludesRemoved(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	p1 := testPeer(t)
	p2 := testPeer(t)
	reg.Register(p1)
	reg.Register(p2)
	reg.Unregister(p1.ID())

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, p2.ID(), snap[0].ID())
}

func TestRegistrySnapshotEmpty(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.Empty(t, reg.Snapshot())
}
