// Package photos exposes the public, rate-limited photo-proxy route.
// The binary image fetch itself is delegated to an external collaborator
// (a Google Places-style photo provider) that is out of scope for this
// core, per spec: only the route and its rate limiting belong here.
package photos

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/restaurant-bff/core/internal/pkg/ratelimit"
	"github.com/restaurant-bff/core/internal/pkg/response"
)

const maxWidthPxCap = 1200

// Provider is the external collaborator's consumed interface: fetch the
// raw image bytes and content type for a placeId/photoId pair.
type Provider interface {
	FetchPhoto(ctx context.Context, placeID, photoID string, maxWidthPx int) (data []byte, contentType string, err error)
}

// Handler mounts GET /photos/places/:placeId/photos/:photoId.
type Handler struct {
	provider Provider
	limiter  *ratelimit.HTTPLimiter
}

// NewHandler builds the photo-proxy handler. limiter enforces the 30/min
// per-IP cap from §5's rate-limiting table.
func NewHandler(provider Provider, limiter *ratelimit.HTTPLimiter) *Handler {
	return &Handler{provider: provider, limiter: limiter}
}

// RegisterRoutes mounts the public (no-auth) photo route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/photos/places/:placeId/photos/:photoId", h.handlePhoto)
}

func (h *Handler) handlePhoto(c *gin.Context) {
	ctx := c.Request.Context()

	allowed, retryAfter, err := h.limiter.Allow(ctx, c.ClientIP())
	if err != nil {
		response.Internal(c, "INTERNAL_ERROR", "rate limit check failed", "")
		return
	}
	if !allowed {
		response.TooManyRequests(c, retryAfter)
		return
	}

	maxWidthPx := maxWidthPxCap
	if raw := c.Query("maxWidthPx"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxWidthPxCap {
			maxWidthPx = parsed
		}
	}

	placeID := c.Param("placeId")
	photoID := c.Param("photoId")

	data, contentType, err := h.provider.FetchPhoto(ctx, placeID, photoID, maxWidthPx)
	if err != nil {
		response.NotFound(c, "")
		return
	}

	c.Header("Cache-Control", "public, max-age=604800")
	c.Data(http.StatusOK, contentType, data)
}
