package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteKV(t *testing.T) *SQLiteKV {
	t.Helper()
	kv, err := NewSQLiteKV(context.Background(), filepath.Join(t.TempDir(), "voidtab.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSQLiteKVGetSetRemove(t *testing.T) {
	kv := newTestSQLiteKV(t)
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing", AreaSync)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "doc", []byte(`{"version":1}`), AreaSync))
	got, found, err := kv.Get(ctx, "doc", AreaSync)
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"version":1}`, string(got))

	// Upsert overwrites.
	require.NoError(t, kv.Set(ctx, "doc", []byte(`{"version":2}`), AreaSync))
	got, _, err = kv.Get(ctx, "doc", AreaSync)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(got))

	require.NoError(t, kv.Remove(ctx, "doc", AreaSync))
	_, found, err = kv.Get(ctx, "doc", AreaSync)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteKVAreasAreIsolated(t *testing.T) {
	kv := newTestSQLiteKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte(`"sync"`), AreaSync))
	require.NoError(t, kv.Set(ctx, "k", []byte(`"local"`), AreaLocal))
	require.NoError(t, kv.Remove(ctx, "k", AreaSync))

	_, found, err := kv.Get(ctx, "k", AreaSync)
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err := kv.Get(ctx, "k", AreaLocal)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `"local"`, string(got))
}

func TestSQLiteKVOnChangedIsNoop(t *testing.T) {
	kv := newTestSQLiteKV(t)

	unsubscribe, err := kv.OnChanged(func([]Change) {
		t.Fatal("sqlite backend must never dispatch changes")
	})
	require.NoError(t, err)
	unsubscribe()
}

func TestSQLiteKVEmptyPathRejected(t *testing.T) {
	_, err := NewSQLiteKV(context.Background(), "")
	require.Error(t, err)
}
