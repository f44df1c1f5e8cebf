// Package asyncrunner spawns the detached pipeline execution that backs
// POST /search?mode=async: mint a Job, respond 202 immediately, then run
// the Route2Orchestrator against a context bearing no HTTP request
// references, finishing with an exactly-once terminal JobStore write.
package asyncrunner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/modules/gateway"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/modules/route2"
)

const (
	detachedTimeout = 45 * time.Second
)

// JobOwnerNotifier is the narrow gateway.Hub surface the runner calls to
// promote pending subscriptions once a job exists.
type JobOwnerNotifier interface {
	OnJobCreated(job *domain.Job)
}

// Orchestrator is the narrow route2.Orchestrator surface the runner calls.
type Orchestrator interface {
	Search(ctx context.Context, request domain.SearchRequest, rctx route2.Context) (domain.SearchResponse, error)
}

// Runner wires JobStore writes around an Orchestrator.Search call.
type Runner struct {
	jobs         *jobstore.Store
	orchestrator Orchestrator
	hub          JobOwnerNotifier
	logger       *zap.Logger
}

// New builds a Runner.
func New(jobs *jobstore.Store, orchestrator Orchestrator, hub JobOwnerNotifier, logger *zap.Logger) *Runner {
	return &Runner{jobs: jobs, orchestrator: orchestrator, hub: hub, logger: logger.Named("AsyncRunner")}
}

// Accept mints a job, notifies the gateway hub, and spawns the detached
// execution — it never blocks on the pipeline itself, per §4.4's
// accept-path contract.
func (r *Runner) Accept(ctx context.Context, requestID string, identity *domain.SessionIdentity, request domain.SearchRequest, rctx route2.Context) (*domain.Job, error) {
	job, err := r.jobs.Init(ctx, requestID, identity.SessionID, identity.UserID)
	if err != nil {
		return nil, err
	}
	r.hub.OnJobCreated(job)

	if rctx.Publisher != nil {
		rctx.Publisher.Publish(domain.ChannelSearch, requestID, gateway.NewProgress(requestID, "accepted", "accepted", "", nil))
	}

	go r.runDetached(request, rctx)

	return job, nil
}

// runDetached owns its own abort controller and global timer — no
// reference to the originating *gin.Context or http.Request survives
// past Accept returning.
func (r *Runner) runDetached(request domain.SearchRequest, rctx route2.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic_in_detached_runner", zap.String("requestId", rctx.RequestID), zap.Any("panic", p))
			if setErr := r.jobs.SetFailed(context.Background(), rctx.RequestID, domain.ErrInternal, "internal error"); setErr != nil {
				r.logger.Error("set_failed_write_failed", zap.String("requestId", rctx.RequestID), zap.Error(setErr))
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), detachedTimeout)
	defer cancel()

	response, err := r.orchestrator.Search(ctx, request, rctx)
	if err != nil {
		// The orchestrator has already published search.error and a
		// SEARCH_FAILED assistant for this err via handlePipelineError;
		// the runner's sole remaining responsibility is the terminal
		// JobStore write, per §4.4's "exactly-once terminal update".
		kind, message := classifyTerminalError(ctx, err)
		if setErr := r.jobs.SetFailed(context.Background(), rctx.RequestID, kind, message); setErr != nil {
			r.logger.Error("set_failed_write_failed", zap.String("requestId", rctx.RequestID), zap.Error(setErr))
		}
		return
	}

	if setErr := r.jobs.SetDone(context.Background(), rctx.RequestID, &response); setErr != nil {
		r.logger.Error("set_done_write_failed", zap.String("requestId", rctx.RequestID), zap.Error(setErr))
	}
}

// classifyTerminalError recovers the classified kind the orchestrator
// already attached to err, falling back to PIPELINE_TIMEOUT when the
// outer detached-execution deadline fired (which the orchestrator's own
// internal deadline may not have observed yet).
func classifyTerminalError(ctx context.Context, err error) (domain.PipelineErrorKind, string) {
	var ce route2.ClassifiedError
	if errors.As(err, &ce) {
		return ce.ErrorKind(), ce.Error()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return domain.ErrPipelineTimeout, "pipeline deadline exceeded"
	}
	return domain.ErrInternal, err.Error()
}
