package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightcache/internal/storage"
)

func foldedIndex() storage.KeyIndex[string, int] {
	return storage.NewHashedIndex[string, int](
		func(k string) uint64 { return uint64(len(k)) },
		strings.EqualFold,
	)
}

func TestEntryStore(t *testing.T) {
	t.Run("Upsert_Insert_And_Lookup", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)

		assert.Nil(t, store.Upsert(storage.NewEntry("a", 1, 1, 10)))
		assert.Nil(t, store.Upsert(storage.NewEntry("b", 2, 1, 20)))

		require.Equal(t, 2, store.Len())
		entry := store.Lookup("b")
		require.NotNil(t, entry)
		assert.Equal(t, 2, entry.Value)
		assert.Equal(t, int64(20), entry.LastAccess())
		assert.Nil(t, store.Lookup("missing"))
	})

	t.Run("Upsert_Replace_Keeps_Position", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		store.Upsert(storage.NewEntry("a", 1, 3, 0))
		store.Upsert(storage.NewEntry("b", 2, 3, 0))

		replaced := store.Upsert(storage.NewEntry("a", 10, 7, 0))
		require.NotNil(t, replaced)
		assert.Equal(t, int64(3), replaced.Weight)

		assert.Equal(t, 2, store.Len())
		assert.Equal(t, 10, store.At(0).Value)
		assert.Equal(t, int64(7), store.At(0).Weight)
	})

	t.Run("Remove_Swaps_Last_Into_Slot", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		for i, k := range []string{"a", "b", "c"} {
			store.Upsert(storage.NewEntry(k, i, 1, 0))
		}

		removed := store.Remove("a")
		require.NotNil(t, removed)
		assert.Equal(t, "a", removed.Key)
		assert.Equal(t, 2, store.Len())
		assert.Equal(t, "c", store.At(0).Key)
		assert.Equal(t, "b", store.At(1).Key)
		assert.Nil(t, store.Lookup("a"))

		// The moved entry is still removable by key
		require.NotNil(t, store.Remove("c"))
		assert.Equal(t, "b", store.At(0).Key)
		assert.Nil(t, store.Remove("missing"))
	})

	t.Run("At_Out_Of_Range", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		store.Upsert(storage.NewEntry("a", 1, 1, 0))

		assert.Nil(t, store.At(-1))
		assert.Nil(t, store.At(1))
		assert.NotNil(t, store.At(0))
	})

	t.Run("RemoveIfSame_Skips_Replaced_Entries", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		old := storage.NewEntry("a", 1, 1, 0)
		store.Upsert(old)
		current := storage.NewEntry("a", 2, 1, 0)
		store.Upsert(current)

		assert.False(t, store.RemoveIfSame(old))
		assert.False(t, store.RemoveIfSame(nil))
		assert.Equal(t, 1, store.Len())

		assert.True(t, store.RemoveIfSame(current))
		assert.Equal(t, 0, store.Len())
		assert.False(t, store.RemoveIfSame(current))
	})

	t.Run("Snapshot_Is_A_Copy", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		store.Upsert(storage.NewEntry("a", 1, 1, 0))
		store.Upsert(storage.NewEntry("b", 2, 1, 0))

		snapshot := store.Snapshot()
		store.Remove("a")

		require.Len(t, snapshot, 2)
		assert.Equal(t, "a", snapshot[0].Key)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("Reset", func(t *testing.T) {
		store := storage.NewEntryStore[string, int](nil)
		store.Upsert(storage.NewEntry("a", 1, 1, 0))
		store.Reset()

		assert.Equal(t, 0, store.Len())
		assert.Nil(t, store.Lookup("a"))

		store.Upsert(storage.NewEntry("a", 2, 1, 0))
		assert.Equal(t, 2, store.Lookup("a").Value)
	})

	t.Run("Touch_Updates_Last_Access", func(t *testing.T) {
		entry := storage.NewEntry("a", 1, 1, 5)
		entry.Touch(42)
		assert.Equal(t, int64(42), entry.LastAccess())
	})
}

func TestHashedIndex(t *testing.T) {
	t.Run("Custom_Equality", func(t *testing.T) {
		store := storage.NewEntryStore(foldedIndex())
		store.Upsert(storage.NewEntry("Key", 1, 1, 0))

		entry := store.Lookup("KEY")
		require.NotNil(t, entry)
		assert.Equal(t, "Key", entry.Key)

		replaced := store.Upsert(storage.NewEntry("kEy", 2, 1, 0))
		require.NotNil(t, replaced)
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, 2, store.Lookup("key").Value)
	})

	t.Run("Colliding_Hashes_Stay_Distinct", func(t *testing.T) {
		// Same length, same hash bucket
		store := storage.NewEntryStore(foldedIndex())
		store.Upsert(storage.NewEntry("abc", 1, 1, 0))
		store.Upsert(storage.NewEntry("xyz", 2, 1, 0))

		assert.Equal(t, 2, store.Len())
		assert.Equal(t, 1, store.Lookup("ABC").Value)
		assert.Equal(t, 2, store.Lookup("XYZ").Value)

		require.NotNil(t, store.Remove("Abc"))
		assert.Nil(t, store.Lookup("abc"))
		assert.Equal(t, 2, store.Lookup("xyz").Value)
	})

	t.Run("Reset", func(t *testing.T) {
		index := foldedIndex()
		index.Insert(storage.NewEntry("a", 1, 1, 0))
		index.Reset()
		assert.Nil(t, index.Lookup("a"))
	})
}

func TestNativeIndex(t *testing.T) {
	t.Run("Remove_Ignores_Stale_Entry", func(t *testing.T) {
		index := storage.NewNativeIndex[string, int]()
		old := storage.NewEntry("a", 1, 1, 0)
		current := storage.NewEntry("a", 2, 1, 0)
		index.Insert(old)
		index.Insert(current)

		index.Remove(old)
		assert.Same(t, current, index.Lookup("a"))

		index.Remove(current)
		assert.Nil(t, index.Lookup("a"))
	})
}
