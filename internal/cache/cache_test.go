package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"taengine/internal/model"
)

// ────────────────────────────────────────────────────────────
// Fingerprints
// ────────────────────────────────────────────────────────────

func TestFingerprint_ContentDriven(t *testing.T) {
	a, _ := model.FromCloses([]float64{100, 101, 102})
	b, _ := model.FromCloses([]float64{100, 101, 102})

	if NewFingerprint("rsi", "p=14", a) != NewFingerprint("rsi", "p=14", b) {
		t.Errorf("value-equal series must yield the same fingerprint")
	}
	if NewFingerprint("rsi", "p=14", a) == NewFingerprint("rsi", "p=7", a) {
		t.Errorf("different parameters must yield different fingerprints")
	}
	if NewFingerprint("rsi", "p=14", a) == NewFingerprint("atr", "p=14", a) {
		t.Errorf("different indicators must yield different fingerprints")
	}

	b.Close[1] += 0.5
	if NewFingerprint("rsi", "p=14", a) == NewFingerprint("rsi", "p=14", b) {
		t.Errorf("mutated series must yield a different fingerprint")
	}
}

// ────────────────────────────────────────────────────────────
// Get / Put / eviction policy
// ────────────────────────────────────────────────────────────

func TestCache_HitAvoidsRecompute(t *testing.T) {
	c := New(8)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v1, err := GetOrCompute(c, "fp-a", compute)
	if err != nil || v1 != 42 {
		t.Fatalf("first call: v=%v err=%v", v1, err)
	}
	v2, err := GetOrCompute(c, "fp-a", compute)
	if err != nil || v2 != 42 {
		t.Fatalf("second call: v=%v err=%v", v2, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats: hits=%d misses=%d, want 1/1", st.Hits, st.Misses)
	}
}

func TestCache_Bounded_200Inserts(t *testing.T) {
	// 200 distinct fingerprints through a 128-entry cache leave exactly
	// 128 resident, the first 72 evicted in insertion order since
	// nothing was ever re-accessed.
	c := New(0) // default capacity

	for i := 0; i < 200; i++ {
		c.Put(Fingerprint(fmt.Sprintf("fp-%03d", i)), i)
	}

	if c.Len() != 128 {
		t.Fatalf("Len: got %d, want 128", c.Len())
	}
	st := c.Stats()
	if st.Evictions != 72 {
		t.Errorf("evictions: got %d, want 72", st.Evictions)
	}
	for i := 0; i < 72; i++ {
		if _, ok := c.Info(Fingerprint(fmt.Sprintf("fp-%03d", i))); ok {
			t.Errorf("fp-%03d should have been evicted", i)
		}
	}
	for i := 72; i < 200; i++ {
		if _, ok := c.Info(Fingerprint(fmt.Sprintf("fp-%03d", i))); !ok {
			t.Errorf("fp-%03d should be resident", i)
		}
	}
}

func TestCache_EvictsLeastRecentlyAccessed(t *testing.T) {
	c := New(3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	// Touch a so b becomes the least recently accessed.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be resident")
	}

	c.Put("d", 4)

	if _, ok := c.Info("b"); ok {
		t.Errorf("b should have been evicted")
	}
	for _, fp := range []Fingerprint{"a", "c", "d"} {
		if _, ok := c.Info(fp); !ok {
			t.Errorf("%s should be resident", fp)
		}
	}
}

func TestCache_UntouchedEvictInInsertionOrder(t *testing.T) {
	c := New(3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4)

	if _, ok := c.Info("a"); ok {
		t.Errorf("a is the oldest untouched entry and should be evicted first")
	}
	if c.Len() != 3 {
		t.Errorf("Len: got %d, want 3", c.Len())
	}
}

func TestCache_OverwriteIsFreshInsert(t *testing.T) {
	c := New(4)
	c.Put("a", 1)
	c.Get("a")
	c.Get("a")

	info, ok := c.Info("a")
	if !ok || info.AccessCount != 3 {
		t.Fatalf("before overwrite: count=%d ok=%v, want 3", info.AccessCount, ok)
	}

	c.Put("a", 2)
	info, ok = c.Info("a")
	if !ok || info.AccessCount != 1 {
		t.Errorf("overwrite must reset access count: got %d, want 1", info.AccessCount)
	}
	if v, _ := c.Get("a"); v.(int) != 2 {
		t.Errorf("overwrite must replace the value: got %v, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("overwrite must not grow the cache: Len=%d", c.Len())
	}
}

func TestCache_ClearKeepsCounters(t *testing.T) {
	c := New(4)
	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", c.Len())
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("Clear must keep counters: hits=%d misses=%d, want 1/1", st.Hits, st.Misses)
	}
	if _, ok := c.Get("a"); ok {
		t.Errorf("entries must be gone after Clear")
	}
}

func TestCache_DefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		c := New(capacity)
		if got := c.Stats().Capacity; got != DefaultCapacity {
			t.Errorf("New(%d): capacity=%d, want %d", capacity, got, DefaultCapacity)
		}
	}
}

// ────────────────────────────────────────────────────────────
// GetOrCompute semantics
// ────────────────────────────────────────────────────────────

func TestGetOrCompute_ErrorsNotCached(t *testing.T) {
	c := New(4)
	boom := errors.New("boom")
	calls := 0
	compute := func() (int, error) {
		calls++
		return 0, boom
	}

	if _, err := GetOrCompute(c, "fp", compute); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if _, err := GetOrCompute(c, "fp", compute); !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("failed compute must rerun: calls=%d, want 2", calls)
	}
	if c.Len() != 0 {
		t.Errorf("errors must never be cached: Len=%d", c.Len())
	}
}

func TestGetOrCompute_NilCache(t *testing.T) {
	v, err := GetOrCompute(nil, "fp", func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("nil cache must degrade to plain compute: v=%q err=%v", v, err)
	}
}

func TestGetOrCompute_Concurrent(t *testing.T) {
	c := New(8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				v, err := GetOrCompute(c, "shared", func() (int, error) { return 42, nil })
				if err != nil || v != 42 {
					t.Errorf("concurrent get: v=%v err=%v", v, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Errorf("Len: got %d, want 1", c.Len())
	}
	st := c.Stats()
	if st.Hits+st.Misses != 400 {
		t.Errorf("lookups: hits+misses=%d, want 400", st.Hits+st.Misses)
	}
}
