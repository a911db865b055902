// Package arena provides index-addressed slot storage with embedded
// free lists.
//
// Two arenas exist: Elements, a generic slot store for caller values,
// and Nodes, which threads one singly-linked membership list per cell
// address through a single flat slice. Freed slots are reused via a
// free list threaded through the slots' own storage, so steady-state
// mutation allocates nothing.
//
// Neither arena is safe for concurrent use. Both grow transparently;
// there is no capacity-exceeded condition.
package arena

// None terminates a linked list, whether a cell membership list or a
// free list.
const None = int32(-1)
