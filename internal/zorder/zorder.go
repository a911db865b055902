// Package zorder maps 2D cell coordinates onto a single Morton-order
// address by interleaving coordinate bits.
//
// Two kernels exist: a portable shift/mask spread sequence and a PDEP
// (BMI2) kernel on amd64. The kernel is selected once at init based on
// CPU capabilities; both produce identical results for all inputs.
package zorder

// kernelInterleave is the active bit-interleave implementation.
// Platform init may replace it with a hardware kernel.
var kernelInterleave func(x, y uint32) uint64 = interleaveGeneric

// Mask returns the address mask for the given bit width.
func Mask(bitWidth int) uint64 {
	return (uint64(1) << bitWidth) - 1
}

// Index returns the z-order address of cell (x, y), wrapped into the
// address space described by mask. Coordinates are treated as raw bit
// patterns, so negative cell coordinates wrap rather than fault.
func Index(x, y uint32, mask uint64) uint64 {
	return kernelInterleave(x, y) & mask
}

// Interleave returns the full 64-bit interleaving of x and y, with the
// bits of x in even positions and the bits of y in odd positions.
func Interleave(x, y uint32) uint64 {
	return kernelInterleave(x, y)
}

func interleaveGeneric(x, y uint32) uint64 {
	return spread(x) | spread(y)<<1
}

// spread inserts a zero bit between every bit of v.
func spread(v uint32) uint64 {
	r := uint64(v)
	r = (r | r<<16) & 0x0000ffff0000ffff
	r = (r | r<<8) & 0x00ff00ff00ff00ff
	r = (r | r<<4) & 0x0f0f0f0f0f0f0f0f
	r = (r | r<<2) & 0x3333333333333333
	r = (r | r<<1) & 0x5555555555555555
	return r
}
