// Package jobstore is the authoritative key-value store of
// requestId -> Job, with TTL and write-once terminal semantics. Grounded
// on the donor's internal/pkg/taskqueue (Redis-backed, JSON-serialized
// records, TxPipeline for atomic writes) with dedup dropped (every
// search request already has a unique, server-minted requestId) and a
// SETNX-guarded compare-and-set added so two racing terminal writes for
// the same requestId cannot both apply.
package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/redis"
)

const (
	keyPrefix = "bff:job:"
	lockPrefix = "bff:job:lock:"
	defaultTTL = 5 * time.Minute
	lockTTL    = 5 * time.Second
)

// Store is the Redis-backed JobStore.
type Store struct {
	rdb redis.KV
	ttl time.Duration
}

// New builds a Store with the spec's minimum 5 minute TTL.
func New(rdb redis.KV) *Store {
	return &Store{rdb: rdb, ttl: defaultTTL}
}

func jobKey(requestID string) string {
	return keyPrefix + requestID
}

func lockKey(requestID string) string {
	return lockPrefix + requestID
}

// Init creates a new PENDING job, owned by ownerSessionID (and optionally
// ownerUserID). ownerSessionId is set here and never changes afterward.
func (s *Store) Init(ctx context.Context, requestID, ownerSessionID string, ownerUserID *string) (*domain.Job, error) {
	now := time.Now()
	job := &domain.Job{
		RequestID:      requestID,
		Status:         domain.JobPending,
		OwnerSessionID: ownerSessionID,
		OwnerUserID:    ownerUserID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.write(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get loads a job by requestId. Returns (nil, nil) if not found or expired.
func (s *Store) Get(ctx context.Context, requestID string) (*domain.Job, error) {
	raw, found, err := s.rdb.Get(ctx, jobKey(requestID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var job domain.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", requestID, err)
	}
	return &job, nil
}

// SetDone performs the PENDING -> DONE terminal write, guarded by a
// per-requestId lock so a racing SetFailed for the same job cannot also
// apply: the loser observes the winner's already-terminal state and no-ops.
func (s *Store) SetDone(ctx context.Context, requestID string, response *domain.SearchResponse) error {
	return s.terminalWrite(ctx, requestID, func(job *domain.Job) {
		job.Status = domain.JobDone
		job.Response = response
	})
}

// SetFailed performs the PENDING -> FAILED terminal write.
func (s *Store) SetFailed(ctx context.Context, requestID string, kind domain.PipelineErrorKind, message string) error {
	return s.terminalWrite(ctx, requestID, func(job *domain.Job) {
		job.Status = domain.JobFailed
		job.Failure = &domain.JobFailure{Kind: kind, Message: message}
	})
}

func (s *Store) terminalWrite(ctx context.Context, requestID string, mutate func(job *domain.Job)) error {
	const maxAttempts = 5
	var took bool
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		took, err = s.rdb.SetNX(ctx, lockKey(requestID), "1", lockTTL)
		if err != nil {
			return fmt.Errorf("acquire job lock: %w", err)
		}
		if took {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !took {
		// Could not win the lock after retrying; the other writer is still
		// applying its terminal write. The loser observes whatever state
		// eventually lands rather than erroring, matching the spec's
		// "concurrent completion attempts are idempotent" invariant.
		job, getErr := s.Get(ctx, requestID)
		if getErr != nil {
			return getErr
		}
		if job != nil && job.IsTerminal() {
			return nil
		}
		return fmt.Errorf("job %s: could not acquire terminal write lock", requestID)
	}
	defer func() { _ = s.rdb.Del(ctx, lockKey(requestID)) }()

	job, err := s.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", requestID)
	}
	if job.IsTerminal() {
		// Write-once: the job already reached a terminal state, possibly by
		// a racing writer that won the lock first. No-op.
		return nil
	}

	mutate(job)
	return s.write(ctx, job)
}

func (s *Store) write(ctx context.Context, job *domain.Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	ttl := time.Until(job.ExpiresAt)
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.rdb.Set(ctx, jobKey(job.RequestID), string(encoded), ttl)
}
