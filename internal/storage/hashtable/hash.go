package hashtable

import "github.com/spaolacci/murmur3"

// hashKey returns the 64-bit murmur3 hash of a key. The same hash is
// used for bucket placement and for the pre-compare shortcut on chain
// scans, so it must be deterministic for the life of the table.
func hashKey(key string) uint64 {
	return murmur3.Sum64([]byte(key))
}

// bucketIndex maps a hash onto a bucket array of the given capacity.
func bucketIndex(hash uint64, capacity int) int {
	return int(hash % uint64(capacity))
}
