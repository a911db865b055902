// Package queryset deduplicates element handles accumulated during a
// single range query.
//
// An element spanning several cells is reported once per cell by the
// node arena; the set suppresses the repeats. Seen markers live in a
// word-packed bitset and every newly added handle is recorded in a
// dirty list, so Reset clears only what the query touched instead of
// the whole handle space.
package queryset

// Set tracks handles seen during the current query.
type Set struct {
	bits  []uint64
	dirty []int32
}

// New creates a set sized for capacity handles. The set grows lazily
// beyond that as larger handles are added.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]int32, 0, 128),
	}
}

// Add marks handle as seen and reports whether it was newly added.
func (s *Set) Add(handle int32) bool {
	word := int(handle >> 6)
	mask := uint64(1) << (uint32(handle) & 63)

	if word >= len(s.bits) {
		s.grow(word + 1)
	}

	if s.bits[word]&mask != 0 {
		return false
	}
	s.bits[word] |= mask
	s.dirty = append(s.dirty, handle)
	return true
}

// Contains returns true if handle was added since the last Reset.
func (s *Set) Contains(handle int32) bool {
	word := int(handle >> 6)
	if word >= len(s.bits) {
		return false
	}
	return s.bits[word]&(uint64(1)<<(uint32(handle)&63)) != 0
}

// Dirty returns the handles added since the last Reset, in insertion
// order. The slice is invalidated by Reset.
func (s *Set) Dirty() []int32 {
	return s.dirty
}

// Len returns the number of handles added since the last Reset.
func (s *Set) Len() int {
	return len(s.dirty)
}

// Reset unmarks every handle in the dirty list, leaving the set ready
// for the next query. O(dirty), not O(handle space).
func (s *Set) Reset() {
	for _, handle := range s.dirty {
		s.bits[handle>>6] &^= uint64(1) << (uint32(handle) & 63)
	}
	s.dirty = s.dirty[:0]
}

// EnsureCapacity grows the bitset to hold at least capacity handles.
func (s *Set) EnsureCapacity(capacity int) {
	words := (capacity + 63) / 64
	if words > len(s.bits) {
		s.grow(words)
	}
}

func (s *Set) grow(words int) {
	newCap := len(s.bits) * 2
	if newCap < words {
		newCap = words
	}
	bits := make([]uint64, newCap)
	copy(bits, s.bits)
	s.bits = bits
}
