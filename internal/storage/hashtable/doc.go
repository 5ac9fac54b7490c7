// Package hashtable implements the netkv in-memory store: a
// mutex-guarded chained hash table mapping string keys to string values
// with per-entry time-to-live.
//
// Buckets are growable slices indexed by hash(key) mod capacity;
// collisions chain within the bucket slice. Each slot caches the key's
// 64-bit hash so chain scans can skip full key comparison on mismatch.
// The table grows by doubling its bucket count whenever the load factor
// would exceed 0.75 on insertion, rehashing by moving slots between
// bucket arrays (key/value bytes are never reallocated).
//
// Every operation runs under a single exclusive lock, so a resize or
// sweep is atomic with respect to concurrent lookups. Expired entries
// are removed lazily: a lookup that lands on a dead entry deletes it in
// the same locked scan, and Size/DumpRange sweep the whole table before
// reporting.
//
// Thread Safety:
//
// All exported methods are safe for concurrent use. The lock is never
// held across anything that can block outside the table.
package hashtable
