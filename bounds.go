package gridgo

// Bounds is an axis-aligned rectangle in world coordinates, origin
// top-left. Width and height must be non-negative.
type Bounds struct {
	X, Y, W, H int32
}

// CellRect is the inclusive range of cell coordinates overlapped by a
// Bounds. XStart <= XEnd and YStart <= YEnd hold for any Bounds with
// non-negative extent.
type CellRect struct {
	XStart, XEnd int32
	YStart, YEnd int32
}

// Cells returns the number of cells the rect covers.
func (r CellRect) Cells() int {
	return int(r.XEnd-r.XStart+1) * int(r.YEnd-r.YStart+1)
}

// CellRectOf maps world bounds onto cell coordinates using truncating
// integer division. No clamping is applied: cell coordinates may be
// negative or arbitrarily large, and wrap later via the z-order mask.
// A zero-area bounds still covers exactly one cell.
func CellRectOf(b Bounds, cellSize int32) CellRect {
	return CellRect{
		XStart: b.X / cellSize,
		XEnd:   (b.X + b.W) / cellSize,
		YStart: b.Y / cellSize,
		YEnd:   (b.Y + b.H) / cellSize,
	}
}

// CellRect maps world bounds onto this grid's cell coordinates.
func (g *Grid[T]) CellRect(b Bounds) CellRect {
	return CellRectOf(b, g.cellSize)
}
