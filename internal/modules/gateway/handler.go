package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/restaurant-bff/core/internal/domain"
)

// TicketConsumer resolves a one-time ws ticket to a SessionIdentity.
type TicketConsumer interface {
	ConsumeWsTicket(ctx context.Context, ticket string) (*domain.SessionIdentity, error)
}

// Handler upgrades /ws connections, authenticates them via a one-time
// ticket, and pumps frames into the Hub's Run loop.
type Handler struct {
	hub     *Hub
	tickets TicketConsumer
	origins map[string]struct{}
	devMode bool
}

// NewHandler builds a gateway.Handler. Origins in allowedOrigins are always
// accepted; when devMode is true every other origin is accepted as well,
// whether or not the list is empty.
func NewHandler(hub *Hub, tickets TicketConsumer, allowedOrigins []string, devMode bool) *Handler {
	origins := map[string]struct{}{}
	for _, o := range allowedOrigins {
		origins[normalizeOrigin(o)] = struct{}{}
	}
	return &Handler{hub: hub, tickets: tickets, origins: origins, devMode: devMode}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ServeHTTP handles GET /ws?ticket=...
func (h *Handler) ServeHTTP(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if !h.originAllowed(origin) {
		w := c.Writer
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("ORIGIN_BLOCKED"))
		return
	}

	ticket := c.Query("ticket")
	if ticket == "" {
		c.Writer.WriteHeader(http.StatusUnauthorized)
		_, _ = c.Writer.Write([]byte("NOT_AUTHORIZED"))
		return
	}

	identity, err := h.tickets.ConsumeWsTicket(c.Request.Context(), ticket)
	if err != nil {
		c.Writer.WriteHeader(http.StatusUnauthorized)
		_, _ = c.Writer.Write([]byte("NOT_AUTHORIZED"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	socket := newSocket(conn, identity)
	h.hub.register <- socket

	go socket.writePump()
	h.readPump(c.Request.Context(), socket)
}

func (h *Handler) originAllowed(origin string) bool {
	if origin == "" {
		return h.devMode
	}
	if _, ok := h.origins[normalizeOrigin(origin)]; ok {
		return true
	}
	return h.devMode
}

func (h *Handler) readPump(ctx context.Context, s *Socket) {
	defer func() { h.hub.unregister <- s }()

	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(idleTimeout))

		env, ok := parseInboundEnvelope(raw)
		if !ok {
			continue
		}

		switch env.Type {
		case InboundSubscribe:
			h.hub.subscribe <- subscribeOp{socket: s, channel: env.Channel, requestID: env.RequestID}
		case InboundUnsubscribe:
			h.hub.unsub <- unsubscribeOp{socket: s, channel: env.Channel, requestID: env.RequestID}
		case InboundEvent:
			// Client-originated events (e.g. cancellation) are accepted but
			// not yet acted on by any pipeline stage.
		}
	}
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.TrimSpace(o), "/")
}
