package arena

// Nodes stores one singly-linked membership list per cell address.
//
// The first addressSpace slots are permanent list heads, indexed
// directly by z-order address. Heads never hold an element and never
// enter the free list; everything past the head region is an ordinary
// node allocated on demand.
//
// Like Elements, storage is split into parallel slices: elems holds the
// element slot stored in each node, next the list links. A free node
// reuses its next field as the free-list link.
type Nodes struct {
	elems   []int32
	next    []int32
	heads   int
	free    int32
	freeLen int
}

// NewNodes creates a node arena with addressSpace permanent head slots
// and room for capacity additional nodes.
func NewNodes(addressSpace, capacity int) *Nodes {
	if capacity < 0 {
		capacity = 0
	}
	n := &Nodes{
		elems: make([]int32, addressSpace, addressSpace+capacity),
		next:  make([]int32, addressSpace, addressSpace+capacity),
		heads: addressSpace,
		free:  None,
	}
	for i := 0; i < addressSpace; i++ {
		n.elems[i] = None
		n.next[i] = None
	}
	return n
}

// Insert links elem at the front of the cell list at addr, reusing a
// free node when one is available. O(1).
func (n *Nodes) Insert(addr uint64, elem int32) {
	head := int32(addr)

	if n.free != None {
		// Read the free link before next is overwritten with the
		// list splice.
		node := n.free
		n.free = n.next[node]
		n.freeLen--

		n.elems[node] = elem
		n.next[node] = n.next[head]
		n.next[head] = node
		return
	}

	node := int32(len(n.elems))
	n.elems = append(n.elems, elem)
	n.next = append(n.next, n.next[head])
	n.next[head] = node
}

// Remove unlinks the first node holding elem from the cell list at
// addr and pushes it onto the free list. Walking off the end of the
// list is a silent no-op: the caller may legitimately probe cells the
// element never occupied.
func (n *Nodes) Remove(addr uint64, elem int32) {
	prev := int32(addr)
	cur := n.next[prev]

	for cur != None && n.elems[cur] != elem {
		prev = cur
		cur = n.next[cur]
	}
	if cur == None {
		return
	}

	n.next[prev] = n.next[cur]
	n.next[cur] = n.free
	n.free = cur
	n.freeLen++
}

// Walk invokes fn for every element slot in the cell list at addr.
func (n *Nodes) Walk(addr uint64, fn func(elem int32)) {
	cur := n.next[addr]
	for cur != None {
		fn(n.elems[cur])
		cur = n.next[cur]
	}
}

// Heads returns the size of the permanent head region.
func (n *Nodes) Heads() int {
	return n.heads
}

// Len returns the number of nodes allocated beyond the head region,
// including free ones.
func (n *Nodes) Len() int {
	return len(n.elems) - n.heads
}

// FreeLen returns the number of nodes currently on the free list.
func (n *Nodes) FreeLen() int {
	return n.freeLen
}

// Reserve grows the underlying storage to hold at least n additional
// nodes beyond the head region.
func (n *Nodes) Reserve(extra int) {
	want := n.heads + extra
	if want <= cap(n.elems) {
		return
	}
	elems := make([]int32, len(n.elems), want)
	copy(elems, n.elems)
	n.elems = elems

	next := make([]int32, len(n.next), want)
	copy(next, n.next)
	n.next = next
}

// Clear discards all nodes and restores the head region to its initial
// empty-list state. The head region itself keeps its size.
func (n *Nodes) Clear() {
	n.elems = n.elems[:n.heads]
	n.next = n.next[:n.heads]
	for i := 0; i < n.heads; i++ {
		n.elems[i] = None
		n.next[i] = None
	}
	n.free = None
	n.freeLen = 0
}

// Elems returns the underlying element slice, head region included.
// Callers must treat it as read-only.
func (n *Nodes) Elems() []int32 {
	return n.elems
}

// Next returns the underlying link slice, head region included.
// Callers must treat it as read-only.
func (n *Nodes) Next() []int32 {
	return n.next
}

// FreeHead returns the head of the free list.
func (n *Nodes) FreeHead() int32 {
	return n.free
}

// RestoreNodes rebuilds a node arena from snapshot state. elems and
// next must be the same length and at least heads long; free must be a
// valid chain through next terminated by None.
func RestoreNodes(elems, next []int32, heads int, free int32) *Nodes {
	n := &Nodes{
		elems: elems,
		next:  next,
		heads: heads,
		free:  free,
	}
	for cur := free; cur != None; cur = next[cur] {
		n.freeLen++
	}
	return n
}
