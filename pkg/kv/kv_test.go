package kv_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/kv"
)

func openTestEnv(t *testing.T) *kv.Env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	env, err := kv.Open(path, kv.DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return env
}

func TestPutGetDelete(t *testing.T) {
	env := openTestEnv(t)

	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{Create: true})
		require.NoError(t, err)
		return txn.Put(db, []byte("a"), []byte("1"), kv.PutDefault)
	})
	require.NoError(t, err)

	err = env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{})
		require.NoError(t, err)
		v, err := txn.Get(db, []byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)

		missing, err := txn.Get(db, []byte("nope"))
		require.NoError(t, err)
		require.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)

	err = env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{})
		require.NoError(t, err)
		return txn.Delete(db, []byte("a"))
	})
	require.NoError(t, err)

	err = env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{})
		require.NoError(t, err)
		v, err := txn.Get(db, []byte("a"))
		require.NoError(t, err)
		require.Nil(t, v)
		return nil
	})
	require.NoError(t, err)
}

func TestOpenDBMissingWithoutCreate(t *testing.T) {
	env := openTestEnv(t)
	err := env.View(func(txn *kv.Txn) error {
		_, err := txn.OpenDB("nope", kv.DBOptions{})
		return err
	})
	require.ErrorIs(t, err, kv.ErrDBNotFound)
}

func TestPutNoOverwrite(t *testing.T) {
	env := openTestEnv(t)
	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{Create: true})
		require.NoError(t, err)
		require.NoError(t, txn.Put(db, []byte("a"), []byte("1"), kv.PutDefault))
		return txn.Put(db, []byte("a"), []byte("2"), kv.PutNoOverwrite)
	})
	require.ErrorIs(t, err, kv.ErrKeyExists)
}

func TestWriteRejectedOnReadOnlyTxn(t *testing.T) {
	env := openTestEnv(t)
	require.NoError(t, env.Update(func(txn *kv.Txn) error {
		_, err := txn.OpenDB("widgets", kv.DBOptions{Create: true})
		return err
	}))

	err := env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{})
		require.NoError(t, err)
		return txn.Put(db, []byte("a"), []byte("1"), kv.PutDefault)
	})
	require.ErrorIs(t, err, kv.ErrReadOnlyViolation)
}

func TestCursorOrderedIteration(t *testing.T) {
	env := openTestEnv(t)
	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{Create: true})
		require.NoError(t, err)
		for _, k := range []string{"c", "a", "b"} {
			if err := txn.Put(db, []byte(k), []byte(k), kv.PutDefault); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got []string
	err = env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("widgets", kv.DBOptions{})
		require.NoError(t, err)
		cur, err := txn.Cursor(db)
		require.NoError(t, err)
		for k, _, ok := cur.First(); ok; k, _, ok = cur.Next() {
			got = append(got, string(k))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestIntegerKeyOrderingSurvivesBigEndianEncoding(t *testing.T) {
	env := openTestEnv(t)
	ids := []uint64{1, 256, 2, 65536, 3}

	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("ids", kv.DBOptions{Create: true, IntegerKey: true})
		require.NoError(t, err)
		for _, id := range ids {
			if err := txn.Put(db, kv.EncodeUint64Key(id), nil, kv.PutDefault); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got []uint64
	err = env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("ids", kv.DBOptions{IntegerKey: true})
		require.NoError(t, err)
		cur, err := txn.Cursor(db)
		require.NoError(t, err)
		for k, _, ok := cur.First(); ok; k, _, ok = cur.Next() {
			got = append(got, kv.DecodeUint64Key(k))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3, 256, 65536}, got)
}

func TestSeekPrefixEnumeratesCompositeKeyGroup(t *testing.T) {
	env := openTestEnv(t)
	hashA := kv.EncodeUint64Key(42)
	hashB := kv.EncodeUint64Key(43)

	err := env.Update(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("hash_metadata", kv.DBOptions{Create: true, DupSort: true})
		require.NoError(t, err)
		for _, rec := range [][]byte{[]byte("rec1"), []byte("rec2")} {
			key := append(append([]byte{}, hashA...), rec...)
			if err := txn.Put(db, key, []byte("meta"), kv.PutDefault); err != nil {
				return err
			}
		}
		key := append(append([]byte{}, hashB...), []byte("rec3")...)
		return txn.Put(db, key, []byte("meta"), kv.PutDefault)
	})
	require.NoError(t, err)

	var groupA int
	err = env.View(func(txn *kv.Txn) error {
		db, err := txn.OpenDB("hash_metadata", kv.DBOptions{DupSort: true})
		require.NoError(t, err)
		cur, err := txn.Cursor(db)
		require.NoError(t, err)
		k, _, ok := cur.SeekPrefix(hashA)
		for ; ok; k, _, ok = cur.NextWithPrefix(hashA) {
			groupA++
			_ = k
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, groupA)
}
