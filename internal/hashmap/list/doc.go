// Package list implements the lock-free sorted linked list underneath the
// hash map (Harris, 2001).
//
// Every node carries a sort key; the list is globally ordered by it and never
// holds two live nodes with the same (sort key, key) pair. Deletion is
// two-phase: a logical mark on the node's outgoing link, then a best-effort
// physical unlink by whichever traversal next passes the node. Traversals
// unlink every marked node they encounter and hand the unlinked nodes to the
// caller's reclamation guard.
//
// The mark bit is not a tagged pointer. Each node's successor is published as
// an immutable link record holding the (successor, marked) pair, and every
// update installs a fresh record with a compare-and-swap on the record
// pointer. Two loads of the same pointer therefore always agree on both
// fields, which is the atomicity a tagged pointer buys in C, without hiding
// pointers from the garbage collector.
package list
