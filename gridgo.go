package gridgo

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/gridgo/internal/arena"
	"github.com/hupe1980/gridgo/internal/queryset"
	"github.com/hupe1980/gridgo/internal/zorder"
)

// Handle identifies a stored element. It is stable from Insert until
// the matching Remove; using it afterwards is unchecked caller error.
type Handle int32

// Grid is a spatial hash grid mapping axis-aligned rectangles to
// values of type T.
//
// Not safe for concurrent use: queries share mutable scratch state
// with mutations. Independent Grid instances are fully isolated.
type Grid[T any] struct {
	cellSize int32
	bitWidth int
	mask     uint64

	elements *arena.Elements[T]
	nodes    *arena.Nodes
	seen     *queryset.Set

	// mark is allocated once so the query hot path closes over
	// nothing per call.
	mark func(elem int32)

	logger  *Logger
	metrics MetricsCollector
}

// Stats reports grid storage counters.
type Stats struct {
	Elements      int // live elements
	ElementSlots  int // total element slots, free included
	HeadSlots     int // permanent per-address list heads (2^bitWidth)
	CellNodes     int // allocated membership nodes beyond the heads
	FreeCellNodes int // membership nodes on the free list
	ZOrderKernel  string
}

// New creates an empty grid. cellSize is the number of world units per
// cell edge and must be positive. bitWidth sets the z-order address
// space (2^bitWidth head slots) and must be in [1, 32].
func New[T any](cellSize int32, bitWidth int, opts ...Option) (*Grid[T], error) {
	if cellSize <= 0 {
		return nil, ErrInvalidCellSize
	}
	if bitWidth < 1 || bitWidth > 32 {
		return nil, ErrInvalidBitWidth
	}

	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	addressSpace := 1 << bitWidth

	g := &Grid[T]{
		cellSize: cellSize,
		bitWidth: bitWidth,
		mask:     zorder.Mask(bitWidth),
		elements: arena.NewElements[T](o.initialCapacity),
		nodes:    arena.NewNodes(addressSpace, o.initialCapacity),
		seen:     queryset.New(o.initialCapacity),
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}
	g.mark = func(elem int32) {
		g.seen.Add(elem)
	}

	g.logger.Debug("grid created",
		"cell_size", cellSize,
		"bit_width", bitWidth,
		"zorder_kernel", zorder.ActiveKernel().String(),
	)

	return g, nil
}

// Insert stores value under bounds and returns its handle. The handle
// is linked into every cell the bounds overlap, so large bounds cost
// proportionally more to insert, remove and update.
func (g *Grid[T]) Insert(value T, b Bounds) Handle {
	rect := CellRectOf(b, g.cellSize)
	elem := g.elements.Insert(value)

	for yy := rect.YStart; yy <= rect.YEnd; yy++ {
		for xx := rect.XStart; xx <= rect.XEnd; xx++ {
			g.nodes.Insert(zorder.Index(uint32(xx), uint32(yy), g.mask), elem)
		}
	}

	g.metrics.RecordInsert(rect.Cells())
	return Handle(elem)
}

// Remove deletes the element behind handle. b must be the bounds
// passed to the most recent Insert or Update for this handle: the grid
// does not track cell membership, and mismatched bounds silently leave
// orphaned cell entries behind.
func (g *Grid[T]) Remove(handle Handle, b Bounds) {
	rect := CellRectOf(b, g.cellSize)
	elem := int32(handle)

	for yy := rect.YStart; yy <= rect.YEnd; yy++ {
		for xx := rect.XStart; xx <= rect.XEnd; xx++ {
			g.nodes.Remove(zorder.Index(uint32(xx), uint32(yy), g.mask), elem)
		}
	}

	g.elements.Remove(elem)
	g.metrics.RecordRemove(rect.Cells())
}

// Update moves handle from oldBounds to newBounds, keeping the handle
// and stored value. oldBounds carries the same matching obligation as
// Remove.
//
// Cells covered by both rectangles are removed from and reinserted
// into deliberately: with cells near the typical element size the
// overlap is one or two cells, and skipping it measured as noise.
func (g *Grid[T]) Update(handle Handle, oldBounds, newBounds Bounds) {
	oldRect := CellRectOf(oldBounds, g.cellSize)
	newRect := CellRectOf(newBounds, g.cellSize)
	elem := int32(handle)

	for yy := oldRect.YStart; yy <= oldRect.YEnd; yy++ {
		for xx := oldRect.XStart; xx <= oldRect.XEnd; xx++ {
			g.nodes.Remove(zorder.Index(uint32(xx), uint32(yy), g.mask), elem)
		}
	}
	for yy := newRect.YStart; yy <= newRect.YEnd; yy++ {
		for xx := newRect.XStart; xx <= newRect.XEnd; xx++ {
			g.nodes.Insert(zorder.Index(uint32(xx), uint32(yy), g.mask), elem)
		}
	}

	g.metrics.RecordUpdate(oldRect.Cells() + newRect.Cells())
}

// Query returns every value whose bounds overlap b, each exactly once.
// Result order is unspecified.
func (g *Grid[T]) Query(b Bounds) []T {
	start := time.Now()
	g.markRect(CellRectOf(b, g.cellSize))
	out := g.drain()
	g.metrics.RecordQuery(len(out), time.Since(start))
	return out
}

// QueryPoint returns every value overlapping the single cell containing
// the world coordinate (x, y).
func (g *Grid[T]) QueryPoint(x, y int32) []T {
	start := time.Now()
	g.nodes.Walk(g.pointAddress(x, y), g.mark)
	out := g.drain()
	g.metrics.RecordQuery(len(out), time.Since(start))
	return out
}

// QueryFiltered is Query restricted to handles present in filter.
func (g *Grid[T]) QueryFiltered(b Bounds, filter *roaring.Bitmap) []T {
	start := time.Now()
	g.markRect(CellRectOf(b, g.cellSize))
	out := g.drainFiltered(filter)
	g.metrics.RecordQuery(len(out), time.Since(start))
	return out
}

// Visit invokes fn once per value overlapping b, without building a
// result slice. Returning false stops the traversal. Visit order is
// unspecified; duplicates are suppressed as in Query.
func (g *Grid[T]) Visit(b Bounds, fn func(value T) bool) {
	start := time.Now()
	g.markRect(CellRectOf(b, g.cellSize))
	visited := g.visitDirty(fn)
	g.metrics.RecordQuery(visited, time.Since(start))
}

// VisitPoint is Visit over the single cell containing (x, y).
func (g *Grid[T]) VisitPoint(x, y int32, fn func(value T) bool) {
	start := time.Now()
	g.nodes.Walk(g.pointAddress(x, y), g.mark)
	visited := g.visitDirty(fn)
	g.metrics.RecordQuery(visited, time.Since(start))
}

// VisitFiltered is Visit restricted to handles present in filter.
func (g *Grid[T]) VisitFiltered(b Bounds, filter *roaring.Bitmap, fn func(value T) bool) {
	start := time.Now()
	g.markRect(CellRectOf(b, g.cellSize))

	visited := 0
	for _, elem := range g.seen.Dirty() {
		if !filter.Contains(uint32(elem)) {
			continue
		}
		visited++
		if !fn(g.elements.Get(elem)) {
			break
		}
	}
	g.seen.Reset()
	g.metrics.RecordQuery(visited, time.Since(start))
}

// Get returns the value stored under handle.
func (g *Grid[T]) Get(handle Handle) T {
	return g.elements.Get(int32(handle))
}

// Len returns the number of live elements.
func (g *Grid[T]) Len() int {
	return g.elements.Len()
}

// Clear discards all elements and cell nodes. The head-slot region
// keeps its size and the arenas keep their capacity for reuse.
func (g *Grid[T]) Clear() {
	g.elements.Clear()
	g.nodes.Clear()
	g.seen.Reset()
	g.logger.Debug("grid cleared")
}

// Reserve pre-sizes the arenas for n elements. Pure capacity hint.
func (g *Grid[T]) Reserve(n int) {
	g.elements.Reserve(n)
	g.nodes.Reserve(n)
	g.seen.EnsureCapacity(n)
}

// CellSize returns the configured world units per cell edge.
func (g *Grid[T]) CellSize() int32 {
	return g.cellSize
}

// BitWidth returns the configured z-order address bit width.
func (g *Grid[T]) BitWidth() int {
	return g.bitWidth
}

// Stats returns current storage counters.
func (g *Grid[T]) Stats() Stats {
	return Stats{
		Elements:      g.elements.Len(),
		ElementSlots:  g.elements.Cap(),
		HeadSlots:     g.nodes.Heads(),
		CellNodes:     g.nodes.Len(),
		FreeCellNodes: g.nodes.FreeLen(),
		ZOrderKernel:  zorder.ActiveKernel().String(),
	}
}

func (g *Grid[T]) pointAddress(x, y int32) uint64 {
	return zorder.Index(uint32(x/g.cellSize), uint32(y/g.cellSize), g.mask)
}

// markRect walks every covered cell, accumulating deduplicated handles
// in the query set.
func (g *Grid[T]) markRect(rect CellRect) {
	for yy := rect.YStart; yy <= rect.YEnd; yy++ {
		for xx := rect.XStart; xx <= rect.XEnd; xx++ {
			g.nodes.Walk(zorder.Index(uint32(xx), uint32(yy), g.mask), g.mark)
		}
	}
}

// drain maps the accumulated handles to values and resets the query
// set for the next query.
func (g *Grid[T]) drain() []T {
	dirty := g.seen.Dirty()
	out := make([]T, 0, len(dirty))
	for _, elem := range dirty {
		out = append(out, g.elements.Get(elem))
	}
	g.seen.Reset()
	return out
}

func (g *Grid[T]) drainFiltered(filter *roaring.Bitmap) []T {
	dirty := g.seen.Dirty()
	out := make([]T, 0, len(dirty))
	for _, elem := range dirty {
		if filter.Contains(uint32(elem)) {
			out = append(out, g.elements.Get(elem))
		}
	}
	g.seen.Reset()
	return out
}

func (g *Grid[T]) visitDirty(fn func(value T) bool) int {
	defer g.seen.Reset()
	visited := 0
	for _, elem := range g.seen.Dirty() {
		visited++
		if !fn(g.elements.Get(elem)) {
			break
		}
	}
	return visited
}
