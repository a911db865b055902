package gridgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellRectOf(t *testing.T) {
	tests := []struct {
		name     string
		bounds   Bounds
		cellSize int32
		want     CellRect
	}{
		{
			name:     "single cell",
			bounds:   Bounds{X: 5, Y: 5, W: 3, H: 3},
			cellSize: 10,
			want:     CellRect{XStart: 0, XEnd: 0, YStart: 0, YEnd: 0},
		},
		{
			name:     "straddles four cells",
			bounds:   Bounds{X: 9, Y: 9, W: 2, H: 2},
			cellSize: 10,
			want:     CellRect{XStart: 0, XEnd: 1, YStart: 0, YEnd: 1},
		},
		{
			name:     "exactly on boundary",
			bounds:   Bounds{X: 10, Y: 20, W: 10, H: 10},
			cellSize: 10,
			want:     CellRect{XStart: 1, XEnd: 2, YStart: 2, YEnd: 3},
		},
		{
			name:     "zero area",
			bounds:   Bounds{X: 42, Y: 17, W: 0, H: 0},
			cellSize: 10,
			want:     CellRect{XStart: 4, XEnd: 4, YStart: 1, YEnd: 1},
		},
		{
			// Truncating division rounds toward zero, so -25/10 = -2.
			name:     "negative coordinates",
			bounds:   Bounds{X: -25, Y: -13, W: 8, H: 8},
			cellSize: 10,
			want:     CellRect{XStart: -2, XEnd: -1, YStart: -1, YEnd: 0},
		},
		{
			name:     "cell size one",
			bounds:   Bounds{X: 3, Y: 4, W: 2, H: 1},
			cellSize: 1,
			want:     CellRect{XStart: 3, XEnd: 5, YStart: 4, YEnd: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellRectOf(tt.bounds, tt.cellSize))
		})
	}
}

func TestGrid_CellRect(t *testing.T) {
	g, err := New[int](10, 8)
	assert.NoError(t, err)

	got := g.CellRect(Bounds{X: 9, Y: 9, W: 2, H: 2})
	assert.Equal(t, CellRect{XStart: 0, XEnd: 1, YStart: 0, YEnd: 1}, got)
}
