package gateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

type fakeTicketConsumer struct {
	sessionID string
}

func (f *fakeTicketConsumer) ConsumeWsTicket(_ context.Context, ticket string) (*domain.SessionIdentity, error) {
	if ticket != "valid" {
		return nil, &fakeTicketError{}
	}
	return &domain.SessionIdentity{SessionID: f.sessionID}, nil
}

type fakeTicketError struct{}

func (e *fakeTicketError) Error() string { return "invalid ticket" }

func newTestServer(t *testing.T, sessionID string, jobs *jobstore.Store) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop(), nil, jobs)
	handler := NewHandler(hub, &fakeTicketConsumer{sessionID: sessionID}, nil, true)

	r := gin.New()
	r.GET("/ws", handler.ServeHTTP)

	srv := httptest.NewServer(r)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	go hub.Run(ctx)

	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, ticket string) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?ticket=" + ticket
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestSubscribe_PendingThenPromotedOnJobCreation(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	srv, hub := newTestServer(t, "sess-a", jobs)

	conn := dial(t, srv, "valid")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"v": 1, "type": "subscribe", "channel": "search", "requestId": "r1"}))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), `"pending":true`)

	job, err := jobs.Init(context.Background(), "r1", "sess-a", nil)
	require.NoError(t, err)
	hub.OnJobCreated(job)

	hub.Publish(domain.ChannelSearch, "r1", NewProgress("r1", "accepted", "accepted", "", nil))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "accepted")
}

func TestSubscribe_SessionMismatchNacks(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	_, err := jobs.Init(context.Background(), "r1", "sess-owner", nil)
	require.NoError(t, err)

	srv, _ := newTestServer(t, "sess-attacker", jobs)
	conn := dial(t, srv, "valid")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"v": 1, "type": "subscribe", "channel": "search", "requestId": "r1"}))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "session_mismatch")
}

func TestSubscribe_ActiveDrainsBacklogImmediately(t *testing.T) {
	jobs := jobstore.New(redistest.New())
	_, err := jobs.Init(context.Background(), "r1", "sess-a", nil)
	require.NoError(t, err)

	srv, hub := newTestServer(t, "sess-a", jobs)
	hub.Publish(domain.ChannelSearch, "r1", NewProgress("r1", "accepted", "accepted", "", nil))
	time.Sleep(50 * time.Millisecond)

	conn := dial(t, srv, "valid")
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(map[string]any{"v": 1, "type": "subscribe", "channel": "search", "requestId": "r1"}))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), `"pending":false`)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(msg), "accepted")
}
