// Package gridgo provides an embedded 2D spatial hash grid for Go.
//
// Gridgo maps axis-aligned rectangles ("bounds") to arbitrary values
// and answers range queries ("which values overlap this rectangle?")
// fast enough for broad-phase collision detection and visibility
// culling over large numbers of moving objects:
//
//   - Z-order (Morton code) cell addressing with a PDEP-accelerated
//     kernel on amd64 and a portable fallback
//   - Arena-backed element and cell storage with free-list reuse:
//     steady-state insert/remove/update allocates nothing
//   - O(result) query deduplication via a dirty-list bitset
//   - Roaring-bitmap filtered queries
//   - Compressed, checksummed binary snapshots with pluggable blob
//     stores (local FS, S3, MinIO)
//
// # Quick Start
//
// Create a grid with 64-unit cells and a 16-bit address space:
//
//	grid, err := gridgo.New[string](64, 16)
//	if err != nil {
//	    panic(err)
//	}
//
//	player := grid.Insert("player", gridgo.Bounds{X: 10, Y: 10, W: 32, H: 32})
//	grid.Insert("tree", gridgo.Bounds{X: 200, Y: 40, W: 16, H: 48})
//
//	// Everything overlapping the camera viewport.
//	visible := grid.Query(gridgo.Bounds{X: 0, Y: 0, W: 640, H: 480})
//
//	// Objects move: same handle, new bounds.
//	grid.Update(player, gridgo.Bounds{X: 10, Y: 10, W: 32, H: 32},
//	    gridgo.Bounds{X: 14, Y: 10, W: 32, H: 32})
//
// # Caller Contract
//
// The grid does not track which cells an element occupies. Remove and
// Update must be given the bounds passed to the most recent Insert or
// Update for that handle; stale bounds silently orphan cell entries.
// This trades self-tracking for speed and is the core caller
// obligation.
//
// A Grid instance is not safe for concurrent use. All operations,
// queries included, mutate shared scratch state; serialize access or
// use one grid per goroutine. Distinct Grid instances are fully
// independent.
//
// # Tuning
//
// Cell size and address bit width are independent knobs. Cells should
// roughly match the typical element size; the bit width bounds the
// head-slot table (2^bitWidth entries) and therefore the collision
// rate. Out-of-range coordinates never fault - addresses wrap via the
// z-order mask, degrading locality rather than correctness.
//
// # Snapshots
//
// Grids serialize to a compressed, CRC-checked binary format:
//
//	var buf bytes.Buffer
//	err := grid.WriteSnapshot(&buf, gridgo.WithCompression(gridgo.CompressionZstd))
//	restored, err := gridgo.LoadSnapshot[string](&buf)
//
// The snapshot package layers versioned, named snapshots over a
// blobstore.Store (local directory, S3, MinIO) with an atomic LATEST
// pointer.
package gridgo
