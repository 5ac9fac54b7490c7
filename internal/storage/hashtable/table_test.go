package hashtable

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ebalduf/netkv/internal/core/domain"
)

// fakeClock is a manually advanced time source so expiry tests never
// sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNew(t *testing.T) {
	tbl := New()
	count, capacity := tbl.Size()
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if capacity != DefaultInitialCapacity {
		t.Errorf("capacity = %d, want %d", capacity, DefaultInitialCapacity)
	}
}

func TestUpsert_Modes(t *testing.T) {
	tests := []struct {
		name    string
		prime   bool // insert "k"="old" first
		mode    Mode
		wantErr error
		wantVal string // value of "k" afterwards; "" means absent
	}{
		{"write inserts", false, ModeWrite, nil, "new"},
		{"write replaces", true, ModeWrite, nil, "new"},
		{"add inserts", false, ModeAddOnly, nil, "new"},
		{"add on existing fails", true, ModeAddOnly, domain.ErrKeyExists, "old"},
		{"update replaces", true, ModeUpdateOnly, nil, "new"},
		{"update on missing fails", false, ModeUpdateOnly, domain.ErrKeyNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New()
			if tt.prime {
				if err := tbl.Upsert("k", "old", 0, ModeWrite); err != nil {
					t.Fatalf("prime upsert: %v", err)
				}
			}

			err := tbl.Upsert("k", "new", 0, tt.mode)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upsert err = %v, want %v", err, tt.wantErr)
			}

			val, _, err := tbl.Lookup("k")
			if tt.wantVal == "" {
				if !errors.Is(err, domain.ErrKeyNotFound) {
					t.Fatalf("Lookup err = %v, want ErrKeyNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if val != tt.wantVal {
				t.Errorf("value = %q, want %q", val, tt.wantVal)
			}
		})
	}
}

func TestUpsert_Uniqueness(t *testing.T) {
	tbl := New()
	for i := 0; i < 10; i++ {
		if err := tbl.Upsert("k", fmt.Sprintf("v%d", i), 0, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	count, _ := tbl.Size()
	if count != 1 {
		t.Errorf("count after repeated writes = %d, want 1", count)
	}
	val, _, err := tbl.Lookup("k")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if val != "v9" {
		t.Errorf("value = %q, want v9 (last write wins)", val)
	}
}

func TestLookup_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	if err := tbl.Upsert("k", "v", 10*time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	clock.Advance(9 * time.Second)
	if _, _, err := tbl.Lookup("k"); err != nil {
		t.Fatalf("Lookup before expiry: %v", err)
	}

	clock.Advance(2 * time.Second) // now 11s after creation
	if _, _, err := tbl.Lookup("k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("Lookup after expiry err = %v, want ErrKeyNotFound", err)
	}

	// The lazy removal must decrement the live count exactly once.
	stats := tbl.Stats()
	if stats.Count != 0 {
		t.Errorf("count after lazy expiry = %d, want 0", stats.Count)
	}
	if stats.Expired != 1 {
		t.Errorf("expired counter = %d, want 1", stats.Expired)
	}

	// A second lookup must not decrement again.
	if _, _, err := tbl.Lookup("k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("second Lookup err = %v, want ErrKeyNotFound", err)
	}
	if got := tbl.Stats().Count; got != 0 {
		t.Errorf("count after second lookup = %d, want 0", got)
	}
}

func TestUpsert_ReplaceResetsTTL(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	if err := tbl.Upsert("k", "v1", 10*time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(8 * time.Second)
	if err := tbl.Upsert("k", "v2", 10*time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	clock.Advance(8 * time.Second) // 16s after first write, 8s after second
	val, _, err := tbl.Lookup("k")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if val != "v2" {
		t.Errorf("value = %q, want v2", val)
	}
}

func TestUpsert_AddAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	if err := tbl.Upsert("k", "v1", time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(2 * time.Second)

	// The expired entry counts as absent for add-only.
	if err := tbl.Upsert("k", "v2", time.Minute, ModeAddOnly); err != nil {
		t.Fatalf("add after expiry: %v", err)
	}
	val, _, err := tbl.Lookup("k")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if val != "v2" {
		t.Errorf("value = %q, want v2", val)
	}
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now), WithDefaultTTL(time.Minute))

	if err := tbl.Upsert("k", "v", 0, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(59 * time.Second)
	if _, _, err := tbl.Lookup("k"); err != nil {
		t.Fatalf("Lookup before default TTL: %v", err)
	}
	clock.Advance(2 * time.Second)
	if _, _, err := tbl.Lookup("k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("Lookup after default TTL err = %v, want ErrKeyNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	if err := tbl.Upsert("k", "v", time.Minute, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := tbl.Remove("k"); err != nil {
		t.Fatalf("Remove existing: %v", err)
	}
	if _, _, err := tbl.Lookup("k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("Lookup after remove err = %v, want ErrKeyNotFound", err)
	}

	if err := tbl.Remove("missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("Remove missing err = %v, want ErrKeyNotFound", err)
	}

	// Removing an already-expired key reports not found, never a
	// resurrection.
	if err := tbl.Upsert("e", "v", time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(2 * time.Second)
	if err := tbl.Remove("e"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("Remove expired err = %v, want ErrKeyNotFound", err)
	}
	if got := tbl.Stats().Count; got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		if err := tbl.Upsert(fmt.Sprintf("short%d", i), "v", time.Second, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := tbl.Upsert(fmt.Sprintf("long%d", i), "v", time.Hour, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	clock.Advance(2 * time.Second)
	if removed := tbl.Sweep(); removed != 5 {
		t.Errorf("Sweep removed = %d, want 5", removed)
	}
	count, _ := tbl.Size()
	if count != 3 {
		t.Errorf("count after sweep = %d, want 3", count)
	}

	// Idempotent: nothing left to purge.
	if removed := tbl.Sweep(); removed != 0 {
		t.Errorf("second Sweep removed = %d, want 0", removed)
	}
}

func TestSize_ImplicitSweep(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithClock(clock.Now))

	if err := tbl.Upsert("k", "v", time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(2 * time.Second)

	count, _ := tbl.Size()
	if count != 0 {
		t.Errorf("Size count = %d, want 0 (expired entries excluded)", count)
	}
}

func TestResize_RoundTrip(t *testing.T) {
	tbl := New(WithInitialCapacity(8))

	const n = 200
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%04d", i)
		if err := tbl.Upsert(key, fmt.Sprintf("val-%04d", i), 0, ModeWrite); err != nil {
			t.Fatalf("Upsert(%s): %v", key, err)
		}
	}

	count, capacity := tbl.Size()
	if count != n {
		t.Fatalf("count = %d, want %d (no entries lost or duplicated)", count, n)
	}
	if capacity <= 8 {
		t.Fatalf("capacity = %d, want > 8 (resize must have happened)", capacity)
	}
	if tbl.Stats().Resizes == 0 {
		t.Fatal("resize counter = 0, want > 0")
	}

	// Every key must survive rehashing with its last-written value.
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%04d", i)
		val, _, err := tbl.Lookup(key)
		if err != nil {
			t.Fatalf("Lookup(%s) after resize: %v", key, err)
		}
		if want := fmt.Sprintf("val-%04d", i); val != want {
			t.Fatalf("Lookup(%s) = %q, want %q", key, val, want)
		}
	}
}

func TestClear(t *testing.T) {
	tbl := New(WithInitialCapacity(8))

	for i := 0; i < 100; i++ {
		if err := tbl.Upsert(fmt.Sprintf("k%d", i), "v", 0, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	tbl.Clear()
	count, capacity := tbl.Size()
	if count != 0 {
		t.Errorf("count after Clear = %d, want 0", count)
	}
	if capacity != 8 {
		t.Errorf("capacity after Clear = %d, want initial 8", capacity)
	}

	// Clear is idempotent.
	tbl.Clear()
	count, capacity = tbl.Size()
	if count != 0 || capacity != 8 {
		t.Errorf("after second Clear: count=%d capacity=%d, want 0, 8", count, capacity)
	}
}

func TestDumpRange(t *testing.T) {
	clock := newFakeClock()
	tbl := New(WithInitialCapacity(16), WithClock(clock.Now))

	for i := 0; i < 10; i++ {
		if err := tbl.Upsert(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i), time.Hour, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if err := tbl.Upsert("dead", "x", time.Second, ModeWrite); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	clock.Advance(2 * time.Second)

	entries, err := tbl.DumpRange(0, 16)
	if err != nil {
		t.Fatalf("DumpRange: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("len(entries) = %d, want 10 (expired excluded)", len(entries))
	}
	for _, e := range entries {
		if e.Bucket < 0 || e.Bucket >= 16 {
			t.Errorf("entry %q bucket = %d, out of [0,16)", e.Key, e.Bucket)
		}
		if e.Key == "dead" {
			t.Error("dump contains expired entry")
		}
	}

	// Partial ranges cover a strict subset.
	lower, err := tbl.DumpRange(0, 8)
	if err != nil {
		t.Fatalf("DumpRange(0, 8): %v", err)
	}
	upper, err := tbl.DumpRange(8, 8)
	if err != nil {
		t.Fatalf("DumpRange(8, 8): %v", err)
	}
	if len(lower)+len(upper) != 10 {
		t.Errorf("split dump total = %d, want 10", len(lower)+len(upper))
	}
}

func TestDumpRange_InvalidRange(t *testing.T) {
	tbl := New(WithInitialCapacity(16))

	tests := []struct {
		name     string
		start, n int
	}{
		{"negative start", -1, 4},
		{"negative count", 0, -1},
		{"past capacity", 8, 9},
		{"start past capacity", 17, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tbl.DumpRange(tt.start, tt.n); !errors.Is(err, domain.ErrInvalidRange) {
				t.Errorf("DumpRange(%d, %d) err = %v, want ErrInvalidRange", tt.start, tt.n, err)
			}
		})
	}
}

func TestDumpAll(t *testing.T) {
	tbl := New()
	for i := 0; i < 7; i++ {
		if err := tbl.Upsert(fmt.Sprintf("k%d", i), "v", 0, ModeWrite); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if got := len(tbl.DumpAll()); got != 7 {
		t.Errorf("DumpAll len = %d, want 7", got)
	}
}

func TestConcurrent_DistinctKeys(t *testing.T) {
	// Small initial capacity forces resizes while writers are racing.
	tbl := New(WithInitialCapacity(4))

	const (
		writers       = 8
		keysPerWriter = 200
	)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keysPerWriter; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				if err := tbl.Upsert(key, key+"-val", 0, ModeWrite); err != nil {
					t.Errorf("Upsert(%s): %v", key, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	count, _ := tbl.Size()
	if count != writers*keysPerWriter {
		t.Fatalf("count = %d, want %d", count, writers*keysPerWriter)
	}

	for w := 0; w < writers; w++ {
		for i := 0; i < keysPerWriter; i++ {
			key := fmt.Sprintf("w%d-k%d", w, i)
			val, _, err := tbl.Lookup(key)
			if err != nil {
				t.Fatalf("Lookup(%s): %v", key, err)
			}
			if val != key+"-val" {
				t.Fatalf("Lookup(%s) = %q, torn or corrupted value", key, val)
			}
		}
	}
}

func TestConcurrent_MixedOperations(t *testing.T) {
	tbl := New(WithInitialCapacity(4))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("w%d-k%d", w, i)
				_ = tbl.Upsert(key, "v", 0, ModeWrite)
				_, _, _ = tbl.Lookup(key)
				if i%3 == 0 {
					_ = tbl.Remove(key)
				}
				if i%17 == 0 {
					tbl.Sweep()
				}
			}
		}(w)
	}
	wg.Wait()

	// Invariant check: count matches what lookups can still see.
	count, _ := tbl.Size()
	if count != len(tbl.DumpAll()) {
		t.Errorf("count %d disagrees with dump length %d", count, len(tbl.DumpAll()))
	}
}

func TestMode_String(t *testing.T) {
	if ModeWrite.String() != "write" || ModeUpdateOnly.String() != "update" || ModeAddOnly.String() != "add" {
		t.Error("Mode.String mismatch")
	}
}
