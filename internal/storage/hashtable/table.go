package hashtable

import (
	"sync"
	"time"

	"github.com/ebalduf/netkv/internal/core/domain"
)

const (
	// DefaultInitialCapacity is the bucket count a fresh table starts
	// with. A prime spreads keys a little better for small tables.
	DefaultInitialCapacity = 101

	// loadFactorThreshold is the count/capacity ratio above which the
	// table grows before an insertion.
	loadFactorThreshold = 0.75

	// growthFactor doubles capacity on resize. Fixed: a smaller factor
	// could churn, and anything computed must never shrink the table.
	growthFactor = 2
)

// Mode selects the conflict behavior of an Upsert.
type Mode int

const (
	// ModeWrite replaces an existing entry or inserts a new one.
	ModeWrite Mode = iota
	// ModeUpdateOnly replaces only if the key already exists.
	ModeUpdateOnly
	// ModeAddOnly inserts only if the key does not exist.
	ModeAddOnly
)

// String returns the command-level name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeUpdateOnly:
		return "update"
	case ModeAddOnly:
		return "add"
	default:
		return "write"
	}
}

// slot is one chained entry plus its cached key hash. Comparing hashes
// first lets chain scans skip most full key comparisons.
type slot struct {
	hash  uint64
	entry domain.Entry
}

// Table is the concurrent in-memory store. All operations serialize on
// one exclusive lock; see the package documentation.
type Table struct {
	mu              sync.Mutex
	buckets         [][]slot
	capacity        int
	count           int
	initialCapacity int
	defaultTTL      time.Duration
	clock           func() time.Time

	// telemetry counters, read via Stats
	resizes uint64
	sweeps  uint64
	expired uint64
}

// Option configures a Table.
type Option func(*Table)

// WithInitialCapacity sets the starting (and post-Clear) bucket count.
// Values < 1 are ignored.
func WithInitialCapacity(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.initialCapacity = n
		}
	}
}

// WithDefaultTTL sets the TTL applied when an upsert passes ttl <= 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(t *Table) {
		if d > 0 {
			t.defaultTTL = d
		}
	}
}

// WithClock sets the time source. Tests use this to control expiry
// without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(t *Table) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// New creates an empty table.
func New(opts ...Option) *Table {
	t := &Table{
		initialCapacity: DefaultInitialCapacity,
		defaultTTL:      domain.DefaultTTL,
		clock:           time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.capacity = t.initialCapacity
	t.buckets = make([][]slot, t.capacity)

	return t
}

// Upsert inserts or replaces the entry for key according to mode.
// A ttl <= 0 selects the default TTL. Replacement resets the entry's
// creation time, so the TTL window starts over.
func (t *Table) Upsert(key, value string, ttl time.Duration, mode Mode) error {
	if ttl <= 0 {
		ttl = t.defaultTTL
	}
	hash := hashKey(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	idx := bucketIndex(hash, t.capacity)
	pos := t.scanLocked(idx, hash, key, now)

	if pos >= 0 {
		if mode == ModeAddOnly {
			return domain.ErrKeyExists
		}
		t.buckets[idx][pos].entry = domain.Entry{
			Key:       key,
			Value:     value,
			CreatedAt: now,
			TTL:       ttl,
		}
		return nil
	}

	if mode == ModeUpdateOnly {
		return domain.ErrKeyNotFound
	}

	// Insertion path: grow first so the new entry never lands in a
	// bucket array about to be replaced.
	if float64(t.count+1)/float64(t.capacity) > loadFactorThreshold {
		t.resizeLocked()
		idx = bucketIndex(hash, t.capacity)
	}

	t.buckets[idx] = append(t.buckets[idx], slot{
		hash: hash,
		entry: domain.Entry{
			Key:       key,
			Value:     value,
			CreatedAt: now,
			TTL:       ttl,
		},
	})
	t.count++
	return nil
}

// Lookup returns the value and creation time for key. An expired entry
// is removed in the same locked scan and reported as not found.
func (t *Table) Lookup(key string) (string, time.Time, error) {
	hash := hashKey(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := bucketIndex(hash, t.capacity)
	pos := t.scanLocked(idx, hash, key, t.clock())
	if pos < 0 {
		return "", time.Time{}, domain.ErrKeyNotFound
	}

	e := t.buckets[idx][pos].entry
	return e.Value, e.CreatedAt, nil
}

// Remove deletes the entry for key. Removing a key whose entry already
// expired (or was lazily expired by a concurrent lookup) reports
// ErrKeyNotFound rather than resurrecting anything.
func (t *Table) Remove(key string) error {
	hash := hashKey(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := bucketIndex(hash, t.capacity)
	pos := t.scanLocked(idx, hash, key, t.clock())
	if pos < 0 {
		return domain.ErrKeyNotFound
	}

	t.deleteLocked(idx, pos)
	return nil
}

// Sweep removes every expired entry and returns how many were purged.
// Caps memory held by abandoned keys between lookups.
func (t *Table) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked(t.clock())
}

// Size returns the live entry count and the bucket capacity. The table
// is swept first so the count excludes expired entries.
func (t *Table) Size() (count, capacity int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked(t.clock())
	return t.count, t.capacity
}

// DumpEntry is one row of a dump listing.
type DumpEntry struct {
	Key       string
	Value     string
	Bucket    int
	CreatedAt time.Time
}

// DumpRange returns the live entries of buckets [start, start+n), in
// bucket order, after sweeping. Out-of-range bounds fail with
// ErrInvalidRange.
func (t *Table) DumpRange(start, n int) ([]DumpEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if start < 0 || n < 0 || start+n > t.capacity {
		return nil, domain.ErrInvalidRange
	}

	t.sweepLocked(t.clock())
	return t.collectLocked(start, n), nil
}

// DumpAll returns every live entry, equivalent to a full-range dump.
func (t *Table) DumpAll() []DumpEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked(t.clock())
	return t.collectLocked(0, t.capacity)
}

// Clear discards all entries and resets the table to its initial
// capacity.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.capacity = t.initialCapacity
	t.buckets = make([][]slot, t.capacity)
	t.count = 0
}

// Stats is a point-in-time snapshot of table counters for telemetry.
type Stats struct {
	Count    int
	Capacity int
	Resizes  uint64
	Sweeps   uint64
	Expired  uint64
}

// Stats returns current table statistics without sweeping.
func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Count:    t.count,
		Capacity: t.capacity,
		Resizes:  t.resizes,
		Sweeps:   t.sweeps,
		Expired:  t.expired,
	}
}

// scanLocked finds key in bucket idx and returns its position, or -1.
// A matching entry that turns out to be expired is deleted here, in the
// same scan, so no caller can ever observe a dead entry.
func (t *Table) scanLocked(idx int, hash uint64, key string, now time.Time) int {
	bucket := t.buckets[idx]
	for i := range bucket {
		if bucket[i].hash != hash || bucket[i].entry.Key != key {
			continue
		}
		if bucket[i].entry.IsExpired(now) {
			t.deleteLocked(idx, i)
			t.expired++
			return -1
		}
		return i
	}
	return -1
}

// deleteLocked removes the slot at bucket[idx][pos] preserving chain
// order, and decrements the count.
func (t *Table) deleteLocked(idx, pos int) {
	bucket := t.buckets[idx]
	t.buckets[idx] = append(bucket[:pos], bucket[pos+1:]...)
	t.count--
}

// sweepLocked walks every bucket and purges expired entries.
func (t *Table) sweepLocked(now time.Time) int {
	removed := 0
	for idx := range t.buckets {
		bucket := t.buckets[idx]
		kept := bucket[:0]
		for _, s := range bucket {
			if s.entry.IsExpired(now) {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		t.buckets[idx] = kept
	}

	t.count -= removed
	t.sweeps++
	t.expired += uint64(removed)
	return removed
}

// resizeLocked doubles the bucket array and rehashes by moving slots.
// Entries are moved, not copied: key and value bytes stay where they
// are, only slot headers relocate.
func (t *Table) resizeLocked() {
	newCapacity := t.capacity * growthFactor
	newBuckets := make([][]slot, newCapacity)

	for _, bucket := range t.buckets {
		for _, s := range bucket {
			idx := bucketIndex(s.hash, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], s)
		}
	}

	t.buckets = newBuckets
	t.capacity = newCapacity
	t.resizes++
}

// collectLocked gathers live entries from buckets [start, start+n).
// Callers must have swept already.
func (t *Table) collectLocked(start, n int) []DumpEntry {
	out := make([]DumpEntry, 0, t.count)
	for idx := start; idx < start+n; idx++ {
		for _, s := range t.buckets[idx] {
			out = append(out, DumpEntry{
				Key:       s.entry.Key,
				Value:     s.entry.Value,
				Bucket:    idx,
				CreatedAt: s.entry.CreatedAt,
			})
		}
	}
	return out
}
