package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errRollback = errors.New("rollback")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory(zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGet(t *testing.T) {
	store := newTestStore(t)

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	err := store.Update(func(tx *Tx) error {
		return tx.Put("test/a", record{Name: "alpha", Count: 3})
	})
	require.NoError(t, err)

	var got record
	err = store.View(func(tx *Tx) error {
		found, err := tx.Get("test/a", &got)
		require.NoError(t, err)
		require.True(t, found)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, record{Name: "alpha", Count: 3}, got)
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	err := store.View(func(tx *Tx) error {
		var out map[string]any
		found, err := tx.Get("test/missing", &out)
		require.NoError(t, err)
		require.False(t, found)
		return nil
	})
	require.NoError(t, err)
}

func TestScanOrderedByKey(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(func(tx *Tx) error {
		for _, key := range []string{"item/00000003", "item/00000001", "item/00000002", "other/x"} {
			if err := tx.Put(key, key); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = store.View(func(tx *Tx) error {
		return tx.Scan("item/", func(key string, val []byte) error {
			keys = append(keys, key)
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []string{"item/00000001", "item/00000002", "item/00000003"}, keys)
}

func TestNextIDStrictlyIncreasing(t *testing.T) {
	store := newTestStore(t)

	var ids []uint64
	for i := 0; i < 5; i++ {
		err := store.Update(func(tx *Tx) error {
			id, err := tx.NextID()
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		require.NoError(t, err)
	}

	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1])
	}
	require.Equal(t, uint64(1), ids[0])
}

func TestUpdateRollsBackOnError(t *testing.T) {
	store := newTestStore(t)

	boom := require.New(t)
	err := store.Update(func(tx *Tx) error {
		if err := tx.Put("test/rollback", "value"); err != nil {
			return err
		}
		return errRollback
	})
	boom.ErrorIs(err, errRollback)

	err = store.View(func(tx *Tx) error {
		var out string
		found, err := tx.Get("test/rollback", &out)
		boom.NoError(err)
		boom.False(found)
		return nil
	})
	boom.NoError(err)
}

func TestCount(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(func(tx *Tx) error {
		for _, key := range []string{"c/1", "c/2", "c/3", "d/1"} {
			if err := tx.Put(key, key); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = store.View(func(tx *Tx) error {
		n, err := tx.Count("c/")
		require.NoError(t, err)
		require.Equal(t, uint64(3), n)
		return nil
	})
	require.NoError(t, err)
}
