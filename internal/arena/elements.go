package arena

// Elements is a slot arena for element values. Slots are addressed by
// the index returned from Insert; a removed slot keeps its value as
// garbage until the free list hands it out again.
//
// Storage is split into parallel slices (values and free links) so the
// value slice stays densely packed for cache-friendly reads.
type Elements[T any] struct {
	values []T
	links  []int32 // free-list link per slot, meaningful only while the slot is free
	free   int32   // head of the free list
	live   int
}

// NewElements creates an element arena with room for capacity values.
func NewElements[T any](capacity int) *Elements[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Elements[T]{
		values: make([]T, 0, capacity),
		links:  make([]int32, 0, capacity),
		free:   None,
	}
}

// Insert stores value and returns its slot index. A slot from the free
// list is reused when available; otherwise the arena grows by one slot.
func (e *Elements[T]) Insert(value T) int32 {
	e.live++

	if e.free != None {
		slot := e.free
		e.free = e.links[slot]
		e.values[slot] = value
		return slot
	}

	slot := int32(len(e.values))
	e.values = append(e.values, value)
	e.links = append(e.links, None)
	return slot
}

// Remove pushes slot onto the free list. The stored value is neither
// cleared nor validated; using the slot index after Remove is a caller
// bug the arena does not detect.
func (e *Elements[T]) Remove(slot int32) {
	e.links[slot] = e.free
	e.free = slot
	e.live--
}

// Get returns the value stored in slot.
func (e *Elements[T]) Get(slot int32) T {
	return e.values[slot]
}

// Len returns the number of live values.
func (e *Elements[T]) Len() int {
	return e.live
}

// Cap returns the total number of slots, live or free.
func (e *Elements[T]) Cap() int {
	return len(e.values)
}

// Reserve grows the underlying storage to hold at least n slots.
func (e *Elements[T]) Reserve(n int) {
	if n <= cap(e.values) {
		return
	}
	values := make([]T, len(e.values), n)
	copy(values, e.values)
	e.values = values

	links := make([]int32, len(e.links), n)
	copy(links, e.links)
	e.links = links
}

// Clear discards all slots and resets the free list.
func (e *Elements[T]) Clear() {
	e.values = e.values[:0]
	e.links = e.links[:0]
	e.free = None
	e.live = 0
}

// Values returns the underlying value slice, including garbage in free
// slots. Callers must treat it as read-only.
func (e *Elements[T]) Values() []T {
	return e.values
}

// Links returns the underlying free-list link slice. Callers must
// treat it as read-only.
func (e *Elements[T]) Links() []int32 {
	return e.links
}

// FreeHead returns the head of the free list.
func (e *Elements[T]) FreeHead() int32 {
	return e.free
}

// RestoreElements rebuilds an arena from snapshot state. values and
// links must be the same length; free must be a valid chain through
// links terminated by None.
func RestoreElements[T any](values []T, links []int32, free int32, live int) *Elements[T] {
	return &Elements[T]{
		values: values,
		links:  links,
		free:   free,
		live:   live,
	}
}
