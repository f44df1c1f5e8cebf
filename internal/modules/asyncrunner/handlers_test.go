package asyncrunner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/domain"
	jwtpkg "github.com/restaurant-bff/core/internal/pkg/jwt"
	"github.com/restaurant-bff/core/internal/middleware"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

func newResultTestServer(t *testing.T) (*httptest.Server, *jobstore.Store, *jwtpkg.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jobs := jobstore.New(redistest.New())
	verifier := jwtpkg.New("test-secret-test-secret-test-secret")

	h := &Handler{jobs: jobs}
	engine := gin.New()
	rg := engine.Group("/api/v1", middleware.Auth(verifier))
	rg.GET("/search/:requestId/result", h.handleResult)

	return httptest.NewServer(engine), jobs, verifier
}

func authedGet(t *testing.T, srv *httptest.Server, verifier *jwtpkg.Verifier, sessionID, path string) *http.Response {
	t.Helper()
	token, err := verifier.Sign(sessionID, nil, time.Hour)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestResultNotFoundForUnknownRequestID(t *testing.T) {
	srv, _, verifier := newResultTestServer(t)
	defer srv.Close()

	resp := authedGet(t, srv, verifier, "sess-a", "/api/v1/search/unknown/result")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultReturns404NotForbiddenOnOwnerMismatch(t *testing.T) {
	srv, jobs, verifier := newResultTestServer(t)
	defer srv.Close()

	_, err := jobs.Init(context.Background(), "r1", "sess-owner", nil)
	require.NoError(t, err)

	resp := authedGet(t, srv, verifier, "sess-attacker", "/api/v1/search/r1/result")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResultReturns202WhilePending(t *testing.T) {
	srv, jobs, verifier := newResultTestServer(t)
	defer srv.Close()

	_, err := jobs.Init(context.Background(), "r2", "sess-a", nil)
	require.NoError(t, err)

	resp := authedGet(t, srv, verifier, "sess-a", "/api/v1/search/r2/result")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestResultReturns200WhenDone(t *testing.T) {
	srv, jobs, verifier := newResultTestServer(t)
	defer srv.Close()

	_, err := jobs.Init(context.Background(), "r3", "sess-a", nil)
	require.NoError(t, err)
	require.NoError(t, jobs.SetDone(context.Background(), "r3", &domain.SearchResponse{Results: []domain.RestaurantResult{}}))

	resp := authedGet(t, srv, verifier, "sess-a", "/api/v1/search/r3/result")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResultReturns500WhenFailed(t *testing.T) {
	srv, jobs, verifier := newResultTestServer(t)
	defer srv.Close()

	_, err := jobs.Init(context.Background(), "r4", "sess-a", nil)
	require.NoError(t, err)
	require.NoError(t, jobs.SetFailed(context.Background(), "r4", domain.ErrGoogleTimeout, "timed out"))

	resp := authedGet(t, srv, verifier, "sess-a", "/api/v1/search/r4/result")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
