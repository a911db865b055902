package gridgo

import (
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New[int](0, 16)
	assert.ErrorIs(t, err, ErrInvalidCellSize)

	_, err = New[int](-10, 16)
	assert.ErrorIs(t, err, ErrInvalidCellSize)

	_, err = New[int](10, 0)
	assert.ErrorIs(t, err, ErrInvalidBitWidth)

	_, err = New[int](10, 33)
	assert.ErrorIs(t, err, ErrInvalidBitWidth)

	g, err := New[int](10, 16)
	require.NoError(t, err)
	assert.Equal(t, int32(10), g.CellSize())
	assert.Equal(t, 16, g.BitWidth())
	assert.Equal(t, 0, g.Len())
}

func TestGrid_RoundTripMembership(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	b := Bounds{X: 5, Y: 5, W: 30, H: 30}
	h := g.Insert("v", b)

	assert.Contains(t, g.Query(b), "v")

	g.Remove(h, b)
	assert.NotContains(t, g.Query(b), "v")
	assert.Equal(t, 0, g.Len())
}

// Two elements in adjacent cells: A occupies cell (0,0) only, B
// occupies cell (1,0) only.
func TestGrid_AdjacentCells(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	boundsA := Bounds{X: 5, Y: 5, W: 3, H: 3}
	boundsB := Bounds{X: 12, Y: 5, W: 3, H: 3}
	hA := g.Insert("A", boundsA)
	g.Insert("B", boundsB)

	region := Bounds{X: 0, Y: 0, W: 20, H: 10}
	assert.ElementsMatch(t, []string{"A", "B"}, g.Query(region))

	g.Remove(hA, boundsA)
	assert.Equal(t, []string{"B"}, g.Query(region))
}

// Bounds {9,9,2,2} with cell size 10 straddle four cells: 9/10=0 and
// 11/10=1 on both axes.
func TestGrid_BoundaryStraddling(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	g.Insert("s", Bounds{X: 9, Y: 9, W: 2, H: 2})

	for _, probe := range []Bounds{
		{X: 5, Y: 5, W: 1, H: 1},   // cell (0,0)
		{X: 15, Y: 5, W: 1, H: 1},  // cell (1,0)
		{X: 5, Y: 15, W: 1, H: 1},  // cell (0,1)
		{X: 15, Y: 15, W: 1, H: 1}, // cell (1,1)
	} {
		assert.Equal(t, []string{"s"}, g.Query(probe), "probe %+v", probe)
	}
}

func TestGrid_Deduplication(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	// Spans 4x4 = 16 cells.
	g.Insert("big", Bounds{X: 0, Y: 0, W: 35, H: 35})

	// A query over all of them returns the element exactly once.
	got := g.Query(Bounds{X: 0, Y: 0, W: 100, H: 100})
	assert.Equal(t, []string{"big"}, got)
}

func TestGrid_Update(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	oldB := Bounds{X: 0, Y: 0, W: 5, H: 5}
	newB := Bounds{X: 100, Y: 100, W: 5, H: 5}
	h := g.Insert("mover", oldB)

	g.Update(h, oldB, newB)

	assert.Empty(t, g.Query(oldB))
	assert.Equal(t, []string{"mover"}, g.Query(newB))
	assert.Equal(t, "mover", g.Get(h))
	assert.Equal(t, 1, g.Len())
}

func TestGrid_UpdateOverlapping(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	oldB := Bounds{X: 0, Y: 0, W: 15, H: 5}
	newB := Bounds{X: 10, Y: 0, W: 15, H: 5} // shares cell (1,0) with oldB
	h := g.Insert("mover", oldB)
	g.Update(h, oldB, newB)

	assert.Equal(t, []string{"mover"}, g.Query(Bounds{X: 12, Y: 2, W: 1, H: 1}))
	assert.Equal(t, []string{"mover"}, g.Query(Bounds{X: 22, Y: 2, W: 1, H: 1}))
	assert.Empty(t, g.Query(Bounds{X: 2, Y: 2, W: 1, H: 1}))
}

func TestGrid_Clear(t *testing.T) {
	g, err := New[int](10, 8)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		g.Insert(i, Bounds{X: int32(i * 7), Y: int32(i * 3), W: 20, H: 20})
	}
	require.NotZero(t, g.Len())

	g.Clear()
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Query(Bounds{X: 0, Y: 0, W: 10000, H: 10000}))

	// The grid remains usable after Clear.
	g.Insert(1, Bounds{X: 0, Y: 0, W: 5, H: 5})
	assert.Equal(t, []int{1}, g.Query(Bounds{X: 0, Y: 0, W: 5, H: 5}))
}

func TestGrid_ZeroAreaBounds(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	b := Bounds{X: 42, Y: 17, W: 0, H: 0}
	g.Insert("point", b)

	assert.Equal(t, []string{"point"}, g.Query(b))
	assert.Equal(t, []string{"point"}, g.QueryPoint(42, 17))
}

func TestGrid_NegativeCoordinates(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	b := Bounds{X: -25, Y: -13, W: 8, H: 8}
	h := g.Insert("neg", b)

	assert.Equal(t, []string{"neg"}, g.Query(b))

	g.Remove(h, b)
	assert.Empty(t, g.Query(b))
}

func TestGrid_QueryPoint(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	g.Insert("a", Bounds{X: 0, Y: 0, W: 5, H: 5})
	g.Insert("b", Bounds{X: 12, Y: 0, W: 5, H: 5})

	assert.Equal(t, []string{"a"}, g.QueryPoint(3, 3))
	assert.Equal(t, []string{"b"}, g.QueryPoint(13, 3))
	assert.Empty(t, g.QueryPoint(500, 500))
}

func TestGrid_Visit(t *testing.T) {
	g, err := New[int](10, 16)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		g.Insert(i, Bounds{X: int32(i * 10), Y: 0, W: 5, H: 5})
	}

	var seen []int
	g.Visit(Bounds{X: 0, Y: 0, W: 100, H: 10}, func(v int) bool {
		seen = append(seen, v)
		return true
	})
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, seen)

	// Early termination.
	count := 0
	g.Visit(Bounds{X: 0, Y: 0, W: 100, H: 10}, func(int) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)

	// Scratch state must be reset even after early termination.
	assert.Len(t, g.Query(Bounds{X: 0, Y: 0, W: 100, H: 10}), 5)
}

func TestGrid_QueryFiltered(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	h1 := g.Insert("a", Bounds{X: 0, Y: 0, W: 5, H: 5})
	g.Insert("b", Bounds{X: 2, Y: 2, W: 5, H: 5})
	h3 := g.Insert("c", Bounds{X: 4, Y: 4, W: 5, H: 5})

	filter := roaring.New()
	filter.Add(uint32(h1))
	filter.Add(uint32(h3))

	got := g.QueryFiltered(Bounds{X: 0, Y: 0, W: 10, H: 10}, filter)
	assert.ElementsMatch(t, []string{"a", "c"}, got)

	// Filter state does not leak into the next unfiltered query.
	assert.Len(t, g.Query(Bounds{X: 0, Y: 0, W: 10, H: 10}), 3)
}

func TestGrid_VisitFiltered(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	h1 := g.Insert("a", Bounds{X: 0, Y: 0, W: 5, H: 5})
	g.Insert("b", Bounds{X: 2, Y: 2, W: 5, H: 5})

	filter := roaring.New()
	filter.Add(uint32(h1))

	var seen []string
	g.VisitFiltered(Bounds{X: 0, Y: 0, W: 10, H: 10}, filter, func(v string) bool {
		seen = append(seen, v)
		return true
	})
	assert.Equal(t, []string{"a"}, seen)
}

func TestGrid_HandleReuse(t *testing.T) {
	g, err := New[string](10, 16)
	require.NoError(t, err)

	b := Bounds{X: 0, Y: 0, W: 5, H: 5}
	h1 := g.Insert("first", b)
	g.Remove(h1, b)

	// Freed slot comes back for the next insert.
	h2 := g.Insert("second", b)
	assert.Equal(t, h1, h2)
	assert.Equal(t, []string{"second"}, g.Query(b))
}

func TestGrid_Reserve(t *testing.T) {
	g, err := New[int](10, 8)
	require.NoError(t, err)

	g.Insert(1, Bounds{X: 0, Y: 0, W: 5, H: 5})
	g.Reserve(1000)

	// Reserve is a pure capacity hint.
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []int{1}, g.Query(Bounds{X: 0, Y: 0, W: 5, H: 5}))
}

func TestGrid_Stats(t *testing.T) {
	g, err := New[int](10, 8, WithInitialCapacity(16))
	require.NoError(t, err)

	h := g.Insert(1, Bounds{X: 0, Y: 0, W: 15, H: 5}) // 2 cells
	g.Insert(2, Bounds{X: 0, Y: 20, W: 5, H: 5})      // 1 cell

	s := g.Stats()
	assert.Equal(t, 2, s.Elements)
	assert.Equal(t, 1<<8, s.HeadSlots)
	assert.Equal(t, 3, s.CellNodes)
	assert.Equal(t, 0, s.FreeCellNodes)
	assert.NotEmpty(t, s.ZOrderKernel)

	g.Remove(h, Bounds{X: 0, Y: 0, W: 15, H: 5})
	s = g.Stats()
	assert.Equal(t, 1, s.Elements)
	assert.Equal(t, 2, s.FreeCellNodes)
}

// Randomized cross-check against a brute-force reference.
func TestGrid_RandomizedAgainstBruteForce(t *testing.T) {
	const (
		worldSize = 2000
		numElems  = 300
		numProbes = 200
	)

	g, err := New[int](16, 16)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	randBounds := func(maxExtent int32) Bounds {
		return Bounds{
			X: rng.Int31n(worldSize),
			Y: rng.Int31n(worldSize),
			W: rng.Int31n(maxExtent),
			H: rng.Int31n(maxExtent),
		}
	}

	bounds := make([]Bounds, numElems)
	for i := 0; i < numElems; i++ {
		bounds[i] = randBounds(48)
		h := g.Insert(i, bounds[i])
		require.Equal(t, Handle(i), h)
	}

	// Cell-level overlap reference: two bounds share a result iff
	// their cell rectangles intersect.
	cellsOverlap := func(a, b Bounds) bool {
		ra := CellRectOf(a, 16)
		rb := CellRectOf(b, 16)
		return ra.XStart <= rb.XEnd && rb.XStart <= ra.XEnd &&
			ra.YStart <= rb.YEnd && rb.YStart <= ra.YEnd
	}

	for p := 0; p < numProbes; p++ {
		probe := randBounds(96)

		var want []int
		for i, b := range bounds {
			if cellsOverlap(probe, b) {
				want = append(want, i)
			}
		}

		got := g.Query(probe)
		// 16 address bits give 8 bits per axis, enough to cover every
		// cell in this world without aliasing, so results must match
		// the reference exactly.
		assert.ElementsMatch(t, want, got, "probe %+v", probe)
	}
}

func BenchmarkGrid_Insert(b *testing.B) {
	g, _ := New[int](16, 16, WithInitialCapacity(b.N))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Insert(i, Bounds{X: int32(i % 4096), Y: int32((i * 31) % 4096), W: 24, H: 24})
	}
}

func BenchmarkGrid_Query(b *testing.B) {
	g, _ := New[int](16, 16)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		g.Insert(i, Bounds{X: rng.Int31n(4096), Y: rng.Int31n(4096), W: 24, H: 24})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Query(Bounds{X: int32(i % 4000), Y: int32((i * 17) % 4000), W: 128, H: 128})
	}
}

func BenchmarkGrid_Update(b *testing.B) {
	g, _ := New[int](16, 16)
	old := Bounds{X: 100, Y: 100, W: 24, H: 24}
	h := g.Insert(0, old)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next := Bounds{X: old.X + 1, Y: old.Y, W: 24, H: 24}
		g.Update(h, old, next)
		old = next
	}
}

func BenchmarkGrid_Visit(b *testing.B) {
	g, _ := New[int](16, 16)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		g.Insert(i, Bounds{X: rng.Int31n(4096), Y: rng.Int31n(4096), W: 24, H: 24})
	}
	b.ResetTimer()
	var sink int
	for i := 0; i < b.N; i++ {
		g.Visit(Bounds{X: 1000, Y: 1000, W: 256, H: 256}, func(v int) bool {
			sink += v
			return true
		})
	}
	_ = sink
}
