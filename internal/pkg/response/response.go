// Package response renders the JSON envelopes the HTTP surface returns,
// adapted from the donor's response helpers to this spec's error shape.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContractsVersion is echoed on every error body and every async accept.
const ContractsVersion = "1"

// ErrorBody is the JSON shape returned for every non-2xx response.
type ErrorBody struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	RequestID        string `json:"requestId,omitempty"`
	ContractsVersion string `json:"contractsVersion"`
}

// OK writes a 200 with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Accepted writes a 202 with the given payload.
func Accepted(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusAccepted, payload)
}

// Error writes a JSON error envelope with the given status/code/message.
func Error(c *gin.Context, status int, code, message, requestID string) {
	c.JSON(status, ErrorBody{
		Code:             code,
		Message:          message,
		RequestID:        requestID,
		ContractsVersion: ContractsVersion,
	})
}

// NotFound writes a 404 NOT_FOUND with a fixed message and the given
// requestID, used for both
// "truly missing" and "exists but not yours" (IDOR opacity) cases.
func NotFound(c *gin.Context, requestID string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", "not found", requestID)
}

// BadRequest writes a 400 VALIDATION_ERROR.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message, "")
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message, "")
}

// TooManyRequests writes a 429 with Retry-After.
func TooManyRequests(c *gin.Context, retryAfterSeconds int) {
	c.Header("Retry-After", itoa(retryAfterSeconds))
	Error(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "rate limit exceeded", "")
}

// Internal writes a 500 with a closed-set error code; never leaks a stack.
func Internal(c *gin.Context, code, message, requestID string) {
	Error(c, http.StatusInternalServerError, code, message, requestID)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
