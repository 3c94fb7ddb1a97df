package boxstore

import (
	"container/heap"

	"github.com/piwi3910/slackpack/internal/geom"
)

// syncBackend is the durable-storage contract the cached coordinator
// syncs against. Both SQLStorage and PartitionedSQLStorage implement
// it; the coordinator itself never knows which one it is talking to.
type syncBackend interface {
	insertBatch(boxes []geom.Rectangle) error
	deleteByNames(names []string) error
	fetchTopN(n int) ([]geom.Rectangle, error)
	close() error
}

// insertBatchSize caps how many rows are sent to the backend per
// transaction, matching the original tool's BATCH_SIZE constant.
const insertBatchSize = 1_000_000

// cachedCoordinator is the shared to_add/max_cache/to_delete logic from
// hybrid_box_storage.py / hybrid_partitioned_box_storage.py: writes are
// buffered in memory and flushed to the backend in batches, while reads
// are served from a pre-fetched window of the largest durable rows.
type cachedCoordinator struct {
	backend   syncBackend
	cacheSize int

	toAdd    maxHeap
	maxCache maxHeap
	toDelete []geom.Rectangle
}

func newCachedCoordinator(backend syncBackend, cacheSize int) *cachedCoordinator {
	return &cachedCoordinator{
		backend:   backend,
		cacheSize: cacheSize,
		toAdd:     make(maxHeap, 0),
		maxCache:  make(maxHeap, 0),
	}
}

func (c *cachedCoordinator) add(box geom.Rectangle) error {
	heap.Push(&c.toAdd, box)
	if len(c.toAdd) > c.cacheSize {
		return c.sync()
	}
	return nil
}

// winner reports which of the two cache heads is larger, using the same
// nil-aware comparator as the original (an empty cache always loses).
func (c *cachedCoordinator) winner() (fromToAdd bool, ok bool) {
	haveAdd := len(c.toAdd) > 0
	haveMax := len(c.maxCache) > 0
	switch {
	case !haveAdd && !haveMax:
		return false, false
	case !haveAdd:
		return false, true
	case !haveMax:
		return true, true
	default:
		// maxCache wins ties, matching the original's >= comparison
		// (it compares max_cache against to_add and keeps max_cache on tie).
		if less(c.maxCache[0], c.toAdd[0]) {
			return true, true
		}
		return false, true
	}
}

func (c *cachedCoordinator) peekMax() (geom.Rectangle, bool, error) {
	fromToAdd, ok := c.winner()
	if !ok {
		return geom.Rectangle{}, false, nil
	}
	if fromToAdd {
		return c.toAdd[0], true, nil
	}
	return c.maxCache[0], true, nil
}

func (c *cachedCoordinator) popMax() (geom.Rectangle, bool, error) {
	fromToAdd, ok := c.winner()
	if !ok {
		return geom.Rectangle{}, false, nil
	}
	if fromToAdd {
		box := heap.Pop(&c.toAdd).(geom.Rectangle)
		return box, true, nil
	}
	box := heap.Pop(&c.maxCache).(geom.Rectangle)
	c.toDelete = append(c.toDelete, box)
	if len(c.maxCache) == 0 {
		if err := c.sync(); err != nil {
			return box, true, err
		}
	}
	return box, true, nil
}

// sync flushes pending inserts and deletes to the backend, then
// refills maxCache from the durable top of the table.
func (c *cachedCoordinator) sync() error {
	if err := c.flushInserts(); err != nil {
		return err
	}
	if err := c.flushDeletes(); err != nil {
		return err
	}
	return c.refillMaxCache()
}

func (c *cachedCoordinator) flushInserts() error {
	pending := make([]geom.Rectangle, len(c.toAdd))
	copy(pending, c.toAdd)
	for start := 0; start < len(pending); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := c.backend.insertBatch(pending[start:end]); err != nil {
			return err
		}
	}
	c.toAdd = make(maxHeap, 0)
	return nil
}

func (c *cachedCoordinator) flushDeletes() error {
	if len(c.toDelete) == 0 {
		return nil
	}
	names := make([]string, len(c.toDelete))
	for i, r := range c.toDelete {
		names[i] = r.Name
	}
	if err := c.backend.deleteByNames(names); err != nil {
		return err
	}
	c.toDelete = nil
	return nil
}

func (c *cachedCoordinator) refillMaxCache() error {
	rows, err := c.backend.fetchTopN(c.cacheSize)
	if err != nil {
		return err
	}
	c.maxCache = make(maxHeap, 0, len(rows))
	for _, r := range rows {
		heap.Push(&c.maxCache, r)
	}
	return nil
}

func (c *cachedCoordinator) close() error {
	return c.backend.close()
}
