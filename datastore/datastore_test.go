package datastore

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holmberd/go-csvbind/dockey"
	"github.com/holmberd/go-csvbind/testutil"
)

// setupDSClient initializes a client with test data isolation and cleanup.
func setupDSClient(t *testing.T, rsClient *redis.Client) (*Client, context.Context, string) {
	t.Helper()
	ctx := context.Background()

	// A random namespace ensures test data isolation.
	namespace := testutil.RandomNamespace()

	ds, err := NewClient(rsClient)
	require.NoError(t, err)

	t.Cleanup(func() {
		// Flush documents in the namespace after each test.
		keyMatch, err := dockey.Match("docs", namespace)
		if err != nil {
			t.Fatal(err)
		}
		if err := ds.DeleteMatch(ctx, keyMatch); err != nil {
			t.Fatalf("failed to flush datastore: %v", err)
		}
	})
	return ds, ctx, namespace
}

func docKey(t *testing.T, name, namespace string) *dockey.Key {
	t.Helper()
	key, err := dockey.New("docs", name, namespace)
	require.NoError(t, err)
	return key
}

func TestDatastoreClient(t *testing.T) {
	rsClient, server := testutil.NewRedisClientWithCleanup(t)
	defer server.Close()

	t.Run("Nil redis client", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("Put and Get", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		key := docKey(t, "put", ns)

		doc := "name;count\npen;10\n"
		assert.NoError(t, ds.Put(ctx, key, doc, 0))

		got, err := ds.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("Put replaces previous content", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		key := docKey(t, "replace", ns)

		assert.NoError(t, ds.Put(ctx, key, "old", 0))
		assert.NoError(t, ds.Put(ctx, key, "new", 0))

		got, err := ds.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, "new", got)
	})

	t.Run("Get missing document", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		_, err := ds.Get(ctx, docKey(t, "missing", ns))
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("Delete and Exists", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		key := docKey(t, "to-delete", ns)

		assert.NoError(t, ds.Put(ctx, key, "temp", 0))
		exists, err := ds.Exists(ctx, key)
		assert.NoError(t, err)
		assert.True(t, exists)

		assert.NoError(t, ds.Delete(ctx, key))
		exists, err = ds.Exists(ctx, key)
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ScanKeys", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		numKeys := 3
		for i := 0; i < numKeys; i++ {
			key := docKey(t, fmt.Sprintf("item-%d", i), ns)
			assert.NoError(t, ds.Put(ctx, key, "doc", 0))
		}

		match, err := dockey.Match("docs", ns)
		require.NoError(t, err)
		keys, err := ds.ScanKeys(ctx, match)
		assert.NoError(t, err)
		assert.Len(t, keys, numKeys)
		for _, key := range keys {
			assert.Equal(t, "docs", key.Kind())
			assert.Equal(t, ns, key.Namespace())
		}
	})

	t.Run("ScanKeys isolates namespaces", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		_, _, otherNS := setupDSClient(t, rsClient)

		assert.NoError(t, ds.Put(ctx, docKey(t, "mine", ns), "doc", 0))
		assert.NoError(t, ds.Put(ctx, docKey(t, "theirs", otherNS), "doc", 0))

		match, err := dockey.Match("docs", ns)
		require.NoError(t, err)
		keys, err := ds.ScanKeys(ctx, match)
		assert.NoError(t, err)
		require.Len(t, keys, 1)
		assert.Equal(t, "mine", keys[0].Name())
	})

	t.Run("DeleteMatch", func(t *testing.T) {
		ds, ctx, ns := setupDSClient(t, rsClient)
		for i := 0; i < 3; i++ {
			key := docKey(t, fmt.Sprintf("doomed-%d", i), ns)
			assert.NoError(t, ds.Put(ctx, key, "doc", 0))
		}

		match, err := dockey.Match("docs", ns)
		require.NoError(t, err)
		assert.NoError(t, ds.DeleteMatch(ctx, match))

		keys, err := ds.ScanKeys(ctx, match)
		assert.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Nil key is a no-op", func(t *testing.T) {
		ds, ctx, _ := setupDSClient(t, rsClient)
		assert.NoError(t, ds.Put(ctx, nil, "doc", 0))
		_, err := ds.Get(ctx, nil)
		assert.NoError(t, err)
		assert.NoError(t, ds.Delete(ctx))
	})
}
