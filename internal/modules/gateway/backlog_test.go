package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/restaurant-bff/core/internal/domain"
)

func entryFor(key string, i int) domain.BacklogEntry {
	return domain.BacklogEntry{Key: key, Message: []byte{byte(i)}, EnqueuedAt: time.Now()}
}

func TestBacklogPerKeyCapDropsOldest(t *testing.T) {
	b := NewBacklogManager()
	key := "search:r1"
	for i := 0; i < backlogPerKeyCap+5; i++ {
		b.Enqueue(entryFor(key, i))
	}

	drained := b.Drain(key)
	assert.Len(t, drained, backlogPerKeyCap)
	// The oldest 5 entries (0..4) were dropped; the FIFO starts at 5.
	assert.Equal(t, byte(5), drained[0].Message[0])
}

func TestBacklogDrainPreservesOrder(t *testing.T) {
	b := NewBacklogManager()
	key := "search:r1"
	for i := 0; i < 5; i++ {
		b.Enqueue(entryFor(key, i))
	}
	drained := b.Drain(key)
	for i, e := range drained {
		assert.Equal(t, byte(i), e.Message[0])
	}
}

func TestBacklogDrainIsOneShot(t *testing.T) {
	b := NewBacklogManager()
	key := "search:r1"
	b.Enqueue(entryFor(key, 1))
	assert.Len(t, b.Drain(key), 1)
	assert.Empty(t, b.Drain(key))
}
