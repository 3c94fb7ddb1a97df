package boxstore

import (
	"container/heap"

	"github.com/piwi3910/slackpack/internal/geom"
)

// maxHeap is a container/heap.Interface over geom.Rectangle ordered so
// that the largest minimum-side rectangle sits at index 0. Grounded on
// katalvlaran/lvlath's container/heap-based priority queues (dijkstra,
// prim_kruskal).
type maxHeap []geom.Rectangle

func (h maxHeap) Len() int { return len(h) }
func (h maxHeap) Less(i, j int) bool {
	// max-heap: larger minimum side sorts first.
	return less(h[j], h[i])
}
func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *maxHeap) Push(x any) {
	*h = append(*h, x.(geom.Rectangle))
}

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MemoryStorage is the in-memory Storage backend: an O(log N) binary
// max-heap with no external dependencies.
type MemoryStorage struct {
	h maxHeap
}

// NewMemoryStorage returns an empty in-memory box storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{h: make(maxHeap, 0)}
}

func (s *MemoryStorage) Add(box geom.Rectangle) error {
	heap.Push(&s.h, box)
	return nil
}

func (s *MemoryStorage) PeekMax() (geom.Rectangle, bool, error) {
	if len(s.h) == 0 {
		return geom.Rectangle{}, false, nil
	}
	return s.h[0], true, nil
}

func (s *MemoryStorage) PopMax() (geom.Rectangle, bool, error) {
	if len(s.h) == 0 {
		return geom.Rectangle{}, false, nil
	}
	box := heap.Pop(&s.h).(geom.Rectangle)
	return box, true, nil
}

func (s *MemoryStorage) Close() error { return nil }
