package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()

	ctx := context.Background()
	file, err := Open(ctx, DriverFile, t.TempDir())
	require.NoError(t, err)
	sqlite, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)

	backends := map[string]Backend{
		DriverMemory: NewMemory(),
		DriverFile:   file,
		DriverSQLite: sqlite,
	}
	t.Cleanup(func() {
		for _, b := range backends {
			_ = b.Close()
		}
	})
	return backends
}

func TestBackendsRoundTripAndIsolateVisitors(t *testing.T) {
	ctx := context.Background()
	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			alice, err := backend.Slot("alice")
			require.NoError(t, err)
			bob, err := backend.Slot("bob")
			require.NoError(t, err)

			_, ok, err := alice.GetItem(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok, "fresh slot must be empty")

			require.NoError(t, alice.SetItem(ctx, "k", "v1"))
			require.NoError(t, alice.SetItem(ctx, "k", "v2"))

			v, ok, err := alice.GetItem(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "v2", v, "SetItem must overwrite")

			_, ok, err = bob.GetItem(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok, "slots must be isolated per visitor")

			require.NoError(t, alice.RemoveItem(ctx, "k"))
			require.NoError(t, alice.RemoveItem(ctx, "k"))
			_, ok, err = alice.GetItem(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestSlotRejectsUnsafeVisitorIDs(t *testing.T) {
	t.Parallel()

	for name, backend := range openBackends(t) {
		for _, id := range []string{"", "../etc", "a/b", "has space"} {
			_, err := backend.Slot(id)
			require.ErrorIs(t, err, ErrInvalidVisitor, "%s backend accepted %q", name, id)
		}
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	t.Parallel()

	slot, err := NewMemory().Slot("v")
	require.NoError(t, err)
	require.ErrorIs(t, slot.SetItem(context.Background(), " ", "x"), ErrInvalidKey)
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "redis", "")
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestFileBackendPersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFile(dir)
	require.NoError(t, err)
	slot, err := first.Slot("local")
	require.NoError(t, err)
	require.NoError(t, slot.SetItem(ctx, "cart", `{"items":{}}`))

	second, err := NewFile(dir)
	require.NoError(t, err)
	slot, err = second.Slot("local")
	require.NoError(t, err)
	v, ok, err := slot.GetItem(ctx, "cart")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"items":{}}`, v)

	_, err = os.Stat(filepath.Join(dir, "local.json"))
	require.NoError(t, err)
}

func TestFileBackendReportsCorruptSlot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.json"), []byte("{nope"), 0o600))

	backend, err := NewFile(dir)
	require.NoError(t, err)
	slot, err := backend.Slot("v")
	require.NoError(t, err)
	_, _, err = slot.GetItem(context.Background(), "cart")
	require.Error(t, err)
}
