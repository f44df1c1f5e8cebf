package photos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/pkg/ratelimit"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

type fakeProvider struct {
	data        []byte
	contentType string
	err         error
}

func (f *fakeProvider) FetchPhoto(_ context.Context, _, _ string, _ int) ([]byte, string, error) {
	return f.data, f.contentType, f.err
}

func newPhotosServer(t *testing.T, provider Provider) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	limiter := ratelimit.NewHTTPLimiter(redistest.New(), "photos", 30, 60*time.Second)
	h := NewHandler(provider, limiter)
	engine := gin.New()
	rg := engine.Group("/api/v1")
	h.RegisterRoutes(rg)
	return httptest.NewServer(engine)
}

func TestPhotoHandlerServesImageWithCacheHeader(t *testing.T) {
	srv := newPhotosServer(t, &fakeProvider{data: []byte("jpeg-bytes"), contentType: "image/jpeg"})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/photos/places/p1/photos/ph1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=604800", resp.Header.Get("Cache-Control"))
}

func TestPhotoHandlerReturns404OnProviderError(t *testing.T) {
	srv := newPhotosServer(t, &fakeProvider{err: assert.AnError})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/photos/places/p1/photos/ph1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
