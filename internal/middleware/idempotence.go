package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/restaurant-bff/core/internal/pkg/redis"
)

const idempotenceKeyPrefix = "bff:idempotence:"
const idempotenceLockTTL = 60 * time.Second

// IdempotentAccept wraps POST /search?mode=async so a client's retried
// accept (e.g. a flaky mobile network retry) does not spawn a second
// detached pipeline for the same logical request. Grounded on the donor's
// Idempotence middleware: hash method+path+body+auth into a Redis lock
// key, held for idempotenceLockTTL. On a hit, the cached response body
// recorded by the first request is replayed verbatim.
func IdempotentAccept(rdb redis.KV) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": "VALIDATION_ERROR", "message": "invalid body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		auth := c.GetHeader("Authorization")
		h := sha256.New()
		h.Write([]byte(c.Request.Method))
		h.Write([]byte(c.Request.URL.Path))
		h.Write(body)
		h.Write([]byte(auth))
		key := idempotenceKeyPrefix + hex.EncodeToString(h.Sum(nil))

		ctx := c.Request.Context()
		if cached, found, _ := rdb.Get(ctx, key); found && cached != "" {
			var recorded cachedResponse
			if json.Unmarshal([]byte(cached), &recorded) == nil {
				c.Data(recorded.Status, "application/json", recorded.Body)
				c.Abort()
				return
			}
		}

		took, err := rdb.SetNX(ctx, key, "", idempotenceLockTTL)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "idempotence lock failed"})
			return
		}
		if !took {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"code": "CONFLICT", "message": "duplicate request in flight"})
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder
		c.Next()

		recorded := cachedResponse{Status: recorder.status, Body: recorder.body.Bytes()}
		if encoded, err := json.Marshal(recorded); err == nil {
			_ = rdb.Set(ctx, key, string(encoded), idempotenceLockTTL)
		}
	}
}

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
