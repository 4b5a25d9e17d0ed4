package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))
	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStores(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		testStoreContract(t, openTestSQLite(t))
	})
	t.Run("memory", func(t *testing.T) {
		testStoreContract(t, NewMemoryStore())
	})
	t.Run("cached", func(t *testing.T) {
		testStoreContract(t, NewCached(NewMemoryStore(), time.Minute))
	})
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	val, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestCachedServesFromCache(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStore()
	cached := NewCached(backing, time.Minute)
	require.NoError(t, cached.Set(ctx, "k", "v"))

	// a write that bypasses the cache is not visible until the entry expires
	require.NoError(t, backing.Set(ctx, "k", "other"))
	val, err := cached.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestCollectionsMalformedDirectory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, string(KeyDirectory), "{this is not json"))
	cols := NewCollections(s, zerolog.Nop())

	dir := cols.LoadDirectory(ctx)
	require.NotNil(t, dir)
	assert.Equal(t, 0, dir.Len())
}

func TestCollectionsMissingKeys(t *testing.T) {
	ctx := context.Background()
	cols := NewCollections(NewMemoryStore(), zerolog.Nop())

	assert.Equal(t, 0, cols.LoadDirectory(ctx).Len())
	posts, ok := cols.LoadPosts(ctx)
	assert.False(t, ok)
	assert.Empty(t, posts)
	assert.Equal(t, 0, cols.LoadIDSet(ctx, KeyAppliedJobs).Len())
	assert.Equal(t, "", cols.LoadSession(ctx))
}

func TestCollectionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	cols := NewCollections(openTestSQLite(t), zerolog.Nop())

	dir := NewDirectory()
	dir.Put(&types.Profile{ID: "u9", Email: "sam@x.com", Name: "Sam"})
	require.NoError(t, cols.SaveDirectory(ctx, dir))
	loaded := cols.LoadDirectory(ctx)
	p, ok := loaded.Get("u9")
	require.True(t, ok)
	assert.Equal(t, "Sam", p.Name)

	require.NoError(t, cols.SaveIDSet(ctx, KeyAppliedJobs, NewIDSet("j1", "j2")))
	assert.Equal(t, []string{"j1", "j2"}, cols.LoadIDSet(ctx, KeyAppliedJobs).Slice())

	raw, err := cols.Store().Get(ctx, string(KeyAppliedJobs))
	require.NoError(t, err)
	assert.JSONEq(t, `["j1","j2"]`, raw)

	require.NoError(t, cols.SavePosts(ctx, []types.Post{{ID: "p1", Likes: 3}}))
	posts, ok := cols.LoadPosts(ctx)
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, 3, posts[0].Likes)

	require.NoError(t, cols.SaveSession(ctx, `{"access_token":"a"}`))
	assert.Equal(t, `{"access_token":"a"}`, cols.LoadSession(ctx))
	require.NoError(t, cols.SaveSession(ctx, ""))
	assert.Equal(t, "", cols.LoadSession(ctx))
}

func TestCollectionsCorruptIDSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, string(KeySavedJobs), `{"not":"an array"}`))
	cols := NewCollections(s, zerolog.Nop())
	assert.Equal(t, 0, cols.LoadIDSet(ctx, KeySavedJobs).Len())
}
