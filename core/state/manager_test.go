package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"grumblechain/storage"
)

type record struct {
	Name  string
	Count uint64
}

func TestManagerRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "one", Count: 1}))

	var got record
	ok, err := mgr.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record{Name: "one", Count: 1}, got)

	ok, err = mgr.KVGet([]byte("rec/2"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManagerCommitPersists(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "persisted", Count: 7}))
	require.NoError(t, mgr.Commit())

	fresh := NewManager(db)
	var got record
	ok, err := fresh.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), got.Count)
}

func TestSnapshotRevert(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "base", Count: 1}))
	snap := mgr.Snapshot()
	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "changed", Count: 2}))
	require.NoError(t, mgr.KVPut([]byte("rec/2"), &record{Name: "new", Count: 3}))
	require.NoError(t, mgr.RevertToSnapshot(snap))

	var got record
	ok, err := mgr.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "base", got.Name)

	ok, err = mgr.KVGet([]byte("rec/2"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRevertRestoresDeletes(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())

	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "keep", Count: 1}))
	snap := mgr.Snapshot()
	require.NoError(t, mgr.KVDelete([]byte("rec/1")))

	var got record
	ok, err := mgr.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mgr.RevertToSnapshot(snap))
	ok, err = mgr.KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "keep", got.Name)
}

func TestDeleteCommitted(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)

	require.NoError(t, mgr.KVPut([]byte("rec/1"), &record{Name: "gone", Count: 1}))
	require.NoError(t, mgr.Commit())
	require.NoError(t, mgr.KVDelete([]byte("rec/1")))
	require.NoError(t, mgr.Commit())

	var got record
	ok, err := NewManager(db).KVGet([]byte("rec/1"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInvalidSnapshot(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.ErrorIs(t, mgr.RevertToSnapshot(5), ErrInvalidSnapshot)
	require.ErrorIs(t, mgr.RevertToSnapshot(-1), ErrInvalidSnapshot)
}
