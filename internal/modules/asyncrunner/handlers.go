package asyncrunner

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/middleware"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/modules/route2"
	"github.com/restaurant-bff/core/internal/pkg/llm"
	"github.com/restaurant-bff/core/internal/pkg/redis"
	"github.com/restaurant-bff/core/internal/pkg/response"
)

// Handler mounts the HTTP surface for POST /search and
// GET /search/:requestId/result, bridging HTTP to the detached Runner.
type Handler struct {
	jobs      *jobstore.Store
	runner    *Runner
	cfg       *config.AppConfig
	llmClient *llm.Client
	google    route2.GoogleMapsClient
	publisher route2.Publisher
	assistant route2.AssistantPublisher
}

// NewHandler builds the async-search HTTP handler. google may be nil when
// ENABLE_GOOGLE_SEARCH is false; every request then fails fast in the
// route-mapper stage with GOOGLE_API_KEY_MISSING rather than silently
// succeeding.
func NewHandler(jobs *jobstore.Store, runner *Runner, cfg *config.AppConfig, llmClient *llm.Client, google route2.GoogleMapsClient, publisher route2.Publisher, assistant route2.AssistantPublisher) *Handler {
	return &Handler{jobs: jobs, runner: runner, cfg: cfg, llmClient: llmClient, google: google, publisher: publisher, assistant: assistant}
}

// RegisterRoutes mounts the search routes; POST /search sits behind an
// idempotence middleware that this method builds from the given redis.KV.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, rdb redis.KV) {
	rg.POST("/search", middleware.IdempotentAccept(rdb), h.handleSearch)
	rg.GET("/search/:requestId/result", h.handleResult)
}

func (h *Handler) handleSearch(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Unauthorized(c, "missing session identity")
		return
	}

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid search request")
		return
	}

	requestID := uuid.NewString()
	rctx := route2.Context{
		RequestID:    requestID,
		SessionID:    identity.SessionID,
		UserLocation: req.UserLocation,
		TraceID:      uuid.NewString(),
		Deadline:     time.Now().Add(45 * time.Second),
		LLMClient:    h.llmClient,
		Google:       h.google,
		Publisher:    h.publisher,
		Assistant:    h.assistant,
		Config:       h.cfg,
		Locale:       req.Locale,
	}

	job, err := h.runner.Accept(c.Request.Context(), requestID, identity, req, rctx)
	if err != nil {
		response.Internal(c, "INTERNAL_ERROR", "failed to accept search", requestID)
		return
	}

	response.Accepted(c, gin.H{
		"requestId":        job.RequestID,
		"resultUrl":        "/api/v1/search/" + job.RequestID + "/result",
		"contractsVersion": response.ContractsVersion,
	})
}

func (h *Handler) handleResult(c *gin.Context) {
	requestID := c.Param("requestId")
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Unauthorized(c, "missing session identity")
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), requestID)
	if err != nil {
		response.Internal(c, "INTERNAL_ERROR", "failed to load job", requestID)
		return
	}
	// A missing job and an existing job owned by someone else return the
	// identical 404 body, preserving existence opacity (§4.4 IDOR check).
	if job == nil || job.OwnerSessionID != identity.SessionID {
		response.NotFound(c, requestID)
		return
	}

	switch job.Status {
	case domain.JobPending:
		response.Accepted(c, gin.H{"requestId": requestID, "status": "PENDING"})
	case domain.JobDone:
		response.OK(c, job.Response)
	case domain.JobFailed:
		code := "INTERNAL_ERROR"
		message := "search failed"
		if job.Failure != nil {
			code = string(job.Failure.Kind)
			message = job.Failure.Message
		}
		response.Internal(c, code, message, requestID)
	}
}
