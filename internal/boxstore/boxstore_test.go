package boxstore

import (
	"container/heap"
	"path/filepath"
	"testing"

	"github.com/piwi3910/slackpack/internal/geom"
)

func rect(minSide float64, name string) geom.Rectangle {
	return geom.New(geom.Point{0, 0}, geom.Point{minSide, minSide + 1}, name, geom.TypeNormalBox1)
}

func TestMemoryStorage_PopReturnsLargestMinSideFirst(t *testing.T) {
	s := NewMemoryStorage()
	_ = s.Add(rect(2, "a"))
	_ = s.Add(rect(5, "b"))
	_ = s.Add(rect(1, "c"))

	box, ok, err := s.PopMax()
	if err != nil || !ok || box.Name != "b" {
		t.Fatalf("expected b first, got %v ok=%v err=%v", box, ok, err)
	}
	box, ok, err = s.PopMax()
	if err != nil || !ok || box.Name != "a" {
		t.Fatalf("expected a second, got %v ok=%v err=%v", box, ok, err)
	}
	box, ok, err = s.PopMax()
	if err != nil || !ok || box.Name != "c" {
		t.Fatalf("expected c third, got %v ok=%v err=%v", box, ok, err)
	}
	_, ok, _ = s.PopMax()
	if ok {
		t.Fatal("expected empty storage to report ok=false")
	}
}

func TestMemoryStorage_PeekDoesNotRemove(t *testing.T) {
	s := NewMemoryStorage()
	_ = s.Add(rect(3, "x"))
	peeked, ok, _ := s.PeekMax()
	if !ok || peeked.Name != "x" {
		t.Fatalf("expected x, got %v", peeked)
	}
	popped, ok, _ := s.PopMax()
	if !ok || popped.Name != "x" {
		t.Fatalf("peek should not have removed the box")
	}
}

func TestSQLStorage_AddAndPopRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "boxes.db")
	s, err := NewSQLStorage(dsn, WithCacheSize(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	for i, size := range []float64{5, 1, 3} {
		if err := s.Add(rect(size, string(rune('a'+i)))); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	box, ok, err := s.PopMax()
	if err != nil || !ok || box.Name != "a" {
		t.Fatalf("expected a (minSide 5) first, got %v ok=%v err=%v", box, ok, err)
	}
	box, ok, err = s.PopMax()
	if err != nil || !ok || box.Name != "c" {
		t.Fatalf("expected c (minSide 3) second, got %v ok=%v err=%v", box, ok, err)
	}
	box, ok, err = s.PopMax()
	if err != nil || !ok || box.Name != "b" {
		t.Fatalf("expected b (minSide 1) third, got %v ok=%v err=%v", box, ok, err)
	}
}

func TestSQLStorage_SyncTriggeredByCacheSize(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "boxes.db")
	s, err := NewSQLStorage(dsn, WithCacheSize(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	// First add stays under the cache_size threshold (1); the second
	// exceeds it and forces a sync through the backend.
	if err := s.Add(rect(1, "a")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.Add(rect(2, "b")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	box, ok, err := s.PopMax()
	if err != nil || !ok || box.Name != "b" {
		t.Fatalf("expected b first after sync, got %v ok=%v err=%v", box, ok, err)
	}
}

// fakeSyncBackend is an in-memory syncBackend stand-in that records the
// batches it is given (and never returns rows), so cachedCoordinator
// tests can drive sync-triggering paths (e.g. max_cache emptying on pop)
// without a real database.
type fakeSyncBackend struct {
	inserted [][]geom.Rectangle
	deleted  [][]string
}

func (f *fakeSyncBackend) insertBatch(boxes []geom.Rectangle) error {
	f.inserted = append(f.inserted, boxes)
	return nil
}

func (f *fakeSyncBackend) deleteByNames(names []string) error {
	f.deleted = append(f.deleted, names)
	return nil
}

func (f *fakeSyncBackend) fetchTopN(n int) ([]geom.Rectangle, error) { return nil, nil }

func (f *fakeSyncBackend) close() error { return nil }

// TestCachedCoordinator_TieBreaksTowardMaxCache exercises the
// to_add/max_cache comparator directly (spec.md §4.2.4: "breaking ties
// toward max_cache").
func TestCachedCoordinator_TieBreaksTowardMaxCache(t *testing.T) {
	coord := newCachedCoordinator(&fakeSyncBackend{}, 10)
	heap.Push(&coord.toAdd, rect(3, "from-to-add"))
	heap.Push(&coord.maxCache, rect(3, "from-max-cache"))

	peeked, ok, err := coord.peekMax()
	if err != nil || !ok || peeked.Name != "from-max-cache" {
		t.Fatalf("expected max_cache entry on tie, got %v ok=%v err=%v", peeked, ok, err)
	}

	popped, ok, err := coord.popMax()
	if err != nil || !ok || popped.Name != "from-max-cache" {
		t.Fatalf("expected max_cache entry popped on tie, got %v ok=%v err=%v", popped, ok, err)
	}
	// Popping the last max_cache entry empties it, which triggers a sync
	// that flushes the remaining to_add entry to the backend.
	backend := coord.backend.(*fakeSyncBackend)
	if len(backend.inserted) != 1 || len(backend.inserted[0]) != 1 || backend.inserted[0][0].Name != "from-to-add" {
		t.Fatalf("expected to_add entry flushed by the post-pop sync, got %+v", backend.inserted)
	}
}

func TestPartitionRanges_CoverFullSpan(t *testing.T) {
	ranges := partitionRanges(1, 4.0/3.0, 10, 4)
	if len(ranges) == 0 {
		t.Fatal("expected at least one partition")
	}
	if ranges[0].Max != 1 {
		t.Errorf("expected first partition max to be 1, got %v", ranges[0].Max)
	}
	if ranges[len(ranges)-1].Min != 0 {
		t.Errorf("expected last partition min to be 0, got %v", ranges[len(ranges)-1].Min)
	}
}

func TestPartitionedSQLStorage_PopReturnsLargestAcrossPartitions(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "partitioned.db")
	s, err := NewPartitionedSQLStorage(dsn, 1, 4.0/3.0, 20, WithPartitionedCacheSize(1), WithBoxesPerPartition(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	for i, size := range []float64{0.9, 0.1, 0.5} {
		if err := s.Add(rect(size, string(rune('a'+i)))); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	box, ok, err := s.PopMax()
	if err != nil || !ok || box.Name != "a" {
		t.Fatalf("expected a (0.9) first, got %v ok=%v err=%v", box, ok, err)
	}
}
