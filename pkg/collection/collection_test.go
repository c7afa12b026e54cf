package collection_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
)

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	env, err := kv.Open(filepath.Join(t.TempDir(), "test.db"), kv.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestCounterFetchAdd(t *testing.T) {
	env := openTestEnv(t)
	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("next_id", kv.DBOptions{Create: true})
		require.NoError(t, err)
		c := collection.NewCounter(db, []byte("next_operation_id"))

		first, err := c.FetchAdd(txn, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(0), first)

		second, err := c.FetchAdd(txn, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(1), second)

		cur, err := c.Get(txn)
		require.NoError(t, err)
		require.Equal(t, uint64(2), cur)
		return nil
	})
	require.NoError(t, err)
}

func TestSetInsertContainsRemove(t *testing.T) {
	env := openTestEnv(t)
	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("present_operation_ids", kv.DBOptions{Create: true, IntegerKey: true})
		require.NoError(t, err)
		s := collection.NewSet[uint64](db, collection.Uint64Codec{})

		require.NoError(t, s.Insert(txn, 0))
		require.NoError(t, s.Insert(txn, 1))
		require.NoError(t, s.Insert(txn, 2))

		err = s.Insert(txn, 0)
		require.ErrorIs(t, err, kv.ErrKeyExists)

		present, err := s.Contains(txn, 1)
		require.NoError(t, err)
		require.True(t, present)

		count, err := s.Count(txn)
		require.NoError(t, err)
		require.Equal(t, 3, count)

		require.NoError(t, s.Remove(txn, 1))
		present, err = s.Contains(txn, 1)
		require.NoError(t, err)
		require.False(t, present)

		it, err := s.Iter(txn)
		require.NoError(t, err)
		var got []uint64
		for {
			v, ok, err := it.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, v)
		}
		require.Equal(t, []uint64{0, 2}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestMapGetInsertDeleteIterate(t *testing.T) {
	env := openTestEnv(t)
	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("operation_id_to_operation", kv.DBOptions{Create: true, IntegerKey: true})
		require.NoError(t, err)
		m := collection.NewMap[uint64, []byte](db, collection.Uint64Codec{}, collection.BytesCodec{})

		require.NoError(t, m.InsertNoOverwrite(txn, 0, []byte("op0")))
		require.NoError(t, m.InsertNoOverwrite(txn, 1, []byte("op1")))

		err = m.InsertNoOverwrite(txn, 0, []byte("dup"))
		require.ErrorIs(t, err, kv.ErrKeyExists)

		v, ok, err := m.Get(txn, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte("op0"), v)

		_, ok, err = m.Get(txn, 99)
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, m.Delete(txn, 1))
		_, ok, err = m.Get(txn, 1)
		require.NoError(t, err)
		require.False(t, ok)

		count, err := m.Count(txn)
		require.NoError(t, err)
		require.Equal(t, 1, count)
		return nil
	})
	require.NoError(t, err)
}
