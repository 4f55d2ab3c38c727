// Package table implements the hash map core: a split-ordered bucket array
// over the lock-free list, with epoch-based reclamation of unlinked nodes
// and superseded bucket arrays.
//
// Buckets are shortcuts, not containers. Every element lives in one global
// sorted list; a bucket slot caches a pointer to the sentinel node where that
// bucket's run begins. Slots start empty and are initialized lazily on first
// touch, parent bucket first, so a resize is nothing but publishing a wider
// array whose new slots are still empty. No element ever moves.
//
// Unlinked nodes are retired through an epoch domain and recycled through a
// pool once no traversal can still hold them. Callers that registered a slot
// on the domain get that reclamation path; unregistered callers run without
// a guard and unlinked nodes fall to the garbage collector instead.
package table
