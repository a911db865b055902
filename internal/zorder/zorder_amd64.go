//go:build amd64 && !noasm

package zorder

import "golang.org/x/sys/cpu"

func init() {
	hasBMI2 = cpu.X86.HasBMI2
	initCapabilities()
	if activeKernel == PDEP {
		kernelInterleave = interleavePdep
	}
}

// interleavePdep deposits x into the even and y into the odd bit
// positions using two PDEP instructions. Implemented in zorder_amd64.s.
//
//go:noescape
func interleavePdep(x, y uint32) uint64
