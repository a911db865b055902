package zorder

import "os"

// Kernel identifies a bit-interleave implementation.
type Kernel uint8

const (
	// Generic is the portable shift/mask implementation.
	Generic Kernel = iota
	// PDEP is the BMI2 parallel-bit-deposit implementation (amd64).
	PDEP
)

// String returns the string representation of a Kernel.
func (k Kernel) String() string {
	switch k {
	case Generic:
		return "generic"
	case PDEP:
		return "pdep"
	default:
		return "unknown"
	}
}

// Package-level state - initialized once at package init.
// No mutex needed: Go guarantees init() runs before any other code.
var (
	activeKernel Kernel

	// hasBMI2 is set by the platform-specific init.
	hasBMI2 bool
)

// initCapabilities is called from platform-specific init functions
// after CPU features are detected. Setting GRIDGO_NOPDEP forces the
// portable kernel, which is mainly useful for equivalence testing.
func initCapabilities() {
	if os.Getenv("GRIDGO_NOPDEP") != "" {
		activeKernel = Generic
		return
	}
	if hasBMI2 {
		activeKernel = PDEP
	}
}

// ActiveKernel returns the kernel selected at init.
func ActiveKernel() Kernel {
	return activeKernel
}

// HasBMI2 returns true if the CPU supports BMI2.
func HasBMI2() bool {
	return hasBMI2
}
