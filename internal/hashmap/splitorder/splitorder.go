// Package splitorder implements the key construction for split-ordered lists.
//
// Split ordering (Shalev & Shavit, JACM 2006) keeps every element of a hash
// table in one globally sorted linked list. The sort key is the bit-reversal
// of the element's hash: the low bits of the hash select the bucket, so after
// reversal every bucket's elements form a contiguous run in the list, and a
// table resize never has to move a node.
//
// Two kinds of keys share the ordering:
//   - Regular keys: bit-reversed hash with the low bit forced to 1.
//   - Dummy keys: bit-reversed bucket index with the low bit 0.
//
// Forcing the low bits this way makes a bucket's dummy sentinel sort strictly
// before every regular node of that bucket, even when the reversed hash and
// the reversed bucket index coincide.
package splitorder

import "math/bits"

// Mix is the splitmix64 finalizer. The constants are load-bearing: bucket
// placement must agree across implementations that share stored data, so
// they are fixed rather than seeded.
func Mix(key uint64) uint64 {
	key ^= key >> 30
	key *= 0xbf58476d1ce4e5b9
	key ^= key >> 27
	key *= 0x94d049bb133111eb
	key ^= key >> 31
	return key
}

// RegularKey returns the split-ordered sort key for a regular node holding
// key. The low bit is always 1.
func RegularKey(key uint64) uint64 {
	return bits.Reverse64(Mix(key)) | 1
}

// DummyKey returns the split-ordered sort key for bucket's sentinel node.
// The low bit is always 0.
func DummyKey(bucket uint64) uint64 {
	return bits.Reverse64(bucket)
}

// BucketOf maps key onto a bucket index. capacity must be a power of two.
func BucketOf(key uint64, capacity uint64) uint64 {
	return Mix(key) & (capacity - 1)
}

// Parent returns the bucket whose sentinel precedes bucket's sentinel in the
// list: bucket with its highest set bit cleared. Parent(0) is 0.
func Parent(bucket uint64) uint64 {
	if bucket == 0 {
		return 0
	}
	return bucket &^ (1 << (bits.Len64(bucket) - 1))
}
