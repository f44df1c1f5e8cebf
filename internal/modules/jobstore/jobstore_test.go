package jobstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

func TestInitThenGet(t *testing.T) {
	store := New(redistest.New())
	ctx := context.Background()

	job, err := store.Init(ctx, "req-1", "sess-a", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, job.Status)

	loaded, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "sess-a", loaded.OwnerSessionID)
	assert.Equal(t, domain.JobPending, loaded.Status)
}

func TestGetUnknownReturnsNil(t *testing.T) {
	store := New(redistest.New())
	job, err := store.Get(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestSetDoneIsTerminal(t *testing.T) {
	store := New(redistest.New())
	ctx := context.Background()
	_, err := store.Init(ctx, "req-1", "sess-a", nil)
	require.NoError(t, err)

	resp := &domain.SearchResponse{Results: []domain.RestaurantResult{}, Meta: domain.SearchResponseMeta{RegionCode: "IL", Source: "route2"}}
	require.NoError(t, store.SetDone(ctx, "req-1", resp))

	job, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.True(t, job.IsTerminal())
}

func TestTerminalWriteIsWriteOnce(t *testing.T) {
	store := New(redistest.New())
	ctx := context.Background()
	_, err := store.Init(ctx, "req-1", "sess-a", nil)
	require.NoError(t, err)

	resp := &domain.SearchResponse{Meta: domain.SearchResponseMeta{RegionCode: "IL", Source: "route2"}}
	require.NoError(t, store.SetDone(ctx, "req-1", resp))

	// A second, conflicting terminal write must not override the first.
	require.NoError(t, store.SetFailed(ctx, "req-1", domain.ErrInternal, "too late"))

	job, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Nil(t, job.Failure)
}

func TestConcurrentTerminalWritesApplyExactlyOnce(t *testing.T) {
	store := New(redistest.New())
	ctx := context.Background()
	_, err := store.Init(ctx, "req-1", "sess-a", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = store.SetDone(ctx, "req-1", &domain.SearchResponse{Meta: domain.SearchResponseMeta{RegionCode: "IL", Source: "route2"}})
	}()
	go func() {
		defer wg.Done()
		_ = store.SetFailed(ctx, "req-1", domain.ErrInternal, "boom")
	}()
	wg.Wait()

	job, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, job.IsTerminal())
	// Exactly one of the two writers' effects is visible, never a mix.
	if job.Status == domain.JobDone {
		assert.Nil(t, job.Failure)
	} else {
		assert.NotNil(t, job.Failure)
	}
}
