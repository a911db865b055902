package snapshot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridgo"
	"github.com/hupe1980/gridgo/blobstore"
)

func newTestGrid(t *testing.T, n int) *gridgo.Grid[int] {
	t.Helper()

	g, err := gridgo.New[int](10, 8)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		g.Insert(i, gridgo.Bounds{X: int32(i * 7 % 200), Y: int32(i * 13 % 200), W: 8, H: 8})
	}
	return g
}

func TestManager_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager[int](store)

	grid := newTestGrid(t, 20)

	version, err := mgr.Save(ctx, "world", grid)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	loaded, err := mgr.Load(ctx, "world", 1)
	require.NoError(t, err)
	assert.Equal(t, grid.Len(), loaded.Len())

	probe := gridgo.Bounds{X: 0, Y: 0, W: 200, H: 200}
	assert.ElementsMatch(t, grid.Query(probe), loaded.Query(probe))
}

func TestManager_VersionsAdvance(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager[int](store)

	grid := newTestGrid(t, 5)

	v1, err := mgr.Save(ctx, "world", grid)
	require.NoError(t, err)

	grid.Insert(99, gridgo.Bounds{X: 150, Y: 150, W: 5, H: 5})
	v2, err := mgr.Save(ctx, "world", grid)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(2), v2)

	versions, err := mgr.Versions(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, versions)

	// LATEST points at the second save.
	loaded, version, err := mgr.LoadLatest(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)
	assert.Equal(t, 6, loaded.Len())

	// Older versions stay loadable.
	old, err := mgr.Load(ctx, "world", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, old.Len())
}

func TestManager_LoadLatest_NoSnapshot(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager[int](blobstore.NewMemoryStore())

	_, _, err := mgr.LoadLatest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = mgr.Load(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	versions, err := mgr.Versions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestManager_SaveAll(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager[int](store, WithConcurrency(2))

	grids := make(map[string]*gridgo.Grid[int], 4)
	for i := 0; i < 4; i++ {
		grids[fmt.Sprintf("zone-%d", i)] = newTestGrid(t, 10+i)
	}

	versions, err := mgr.SaveAll(ctx, grids)
	require.NoError(t, err)
	require.Len(t, versions, 4)

	for name, grid := range grids {
		assert.Equal(t, uint64(1), versions[name])

		loaded, _, err := mgr.LoadLatest(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, grid.Len(), loaded.Len())
	}
}

func TestManager_SnapshotOptions(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	mgr := NewManager[int](store,
		WithSnapshotOptions(gridgo.WithCompression(gridgo.CompressionNone)),
	)

	grid := newTestGrid(t, 10)
	_, err := mgr.Save(ctx, "raw", grid)
	require.NoError(t, err)

	loaded, _, err := mgr.LoadLatest(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, grid.Len(), loaded.Len())
}

func TestManager_UploadRateLimit(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// A generous limit keeps the test fast while still exercising the
	// chunked wait path.
	mgr := NewManager[int](store, WithUploadRateLimit(1<<20))

	grid := newTestGrid(t, 50)
	_, err := mgr.Save(ctx, "limited", grid)
	require.NoError(t, err)

	loaded, _, err := mgr.LoadLatest(ctx, "limited")
	require.NoError(t, err)
	assert.Equal(t, grid.Len(), loaded.Len())
}
