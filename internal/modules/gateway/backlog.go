package gateway

import (
	"sync"
	"time"

	"github.com/restaurant-bff/core/internal/domain"
)

const (
	backlogPerKeyCap = 50
	backlogGlobalCap = 10000
	backlogTTL       = 120 * time.Second
)

// BacklogManager is a per-subscription FIFO of undelivered messages with
// per-key and global caps and TTL, drained on subscribe. Guarded by a
// single mutex: the donor's Hub owns its state the same way, via the
// single Run loop plus a RWMutex for the read-heavy diagnostics path.
type BacklogManager struct {
	mu        sync.Mutex
	byKey     map[string][]domain.BacklogEntry
	totalSize int

	onDropOldest func(key string)
	onDropNewest func(key string)
}

// NewBacklogManager builds an empty BacklogManager.
func NewBacklogManager() *BacklogManager {
	return &BacklogManager{byKey: map[string][]domain.BacklogEntry{}}
}

// Enqueue appends a message to the key's FIFO, applying per-key and
// global caps. Per-key overflow drops the oldest entry in that key
// (warn); global overflow drops the newest entry being enqueued (warn).
func (b *BacklogManager) Enqueue(entry domain.BacklogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweepLocked()

	if b.totalSize >= backlogGlobalCap {
		if b.onDropNewest != nil {
			b.onDropNewest(entry.Key)
		}
		return
	}

	queue := b.byKey[entry.Key]
	if len(queue) >= backlogPerKeyCap {
		queue = queue[1:]
		b.totalSize--
		if b.onDropOldest != nil {
			b.onDropOldest(entry.Key)
		}
	}
	b.byKey[entry.Key] = append(queue, entry)
	b.totalSize++
}

// Drain removes and returns all backlog entries for key, in enqueue order.
func (b *BacklogManager) Drain(key string) []domain.BacklogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweepLocked()

	entries := b.byKey[key]
	delete(b.byKey, key)
	b.totalSize -= len(entries)
	return entries
}

// Size reports the total number of backlogged entries across all keys.
func (b *BacklogManager) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSize
}

// sweepLocked drops expired entries. Must be called with mu held.
func (b *BacklogManager) sweepLocked() {
	now := time.Now()
	for key, queue := range b.byKey {
		kept := queue[:0:0]
		for _, e := range queue {
			if now.Sub(e.EnqueuedAt) <= backlogTTL {
				kept = append(kept, e)
			} else {
				b.totalSize--
			}
		}
		if len(kept) == 0 {
			delete(b.byKey, key)
		} else {
			b.byKey[key] = kept
		}
	}
}

// Sweep runs the TTL sweep outside of an enqueue/drain call, for the
// cron-style sweeper that keeps memory bounded even for keys nobody ever
// touches again.
func (b *BacklogManager) Sweep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweepLocked()
}
