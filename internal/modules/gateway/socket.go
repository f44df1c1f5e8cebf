package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/ratelimit"
)

const (
	maxFrameBytes  = 64 * 1024
	pingInterval   = 30 * time.Second
	idleTimeout    = 15 * time.Minute
	writeWait      = 10 * time.Second
)

// Socket is one live WS connection, authorized to a single SessionIdentity.
type Socket struct {
	conn      *websocket.Conn
	sessionID string
	userID    *string

	subscribeLimiter *ratelimit.SocketLimiter

	send chan []byte
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	keys map[string]struct{}
}

func newSocket(conn *websocket.Conn, identity *domain.SessionIdentity) *Socket {
	return &Socket{
		conn:             conn,
		sessionID:        identity.SessionID,
		userID:           identity.UserID,
		subscribeLimiter: ratelimit.NewSocketLimiter(10),
		send:             make(chan []byte, 64),
		done:             make(chan struct{}),
		keys:             map[string]struct{}{},
	}
}

func (s *Socket) trySend(msg []byte) bool {
	select {
	case s.send <- msg:
		return true
	case <-s.done:
		return false
	default:
		// Slow consumer: drop rather than block the hub's single writer.
		return false
	}
}

func (s *Socket) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *Socket) addKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
}

func (s *Socket) removeKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

func (s *Socket) allKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	return keys
}

// writePump drains the send channel to the underlying connection and
// maintains the heartbeat ping, on its own goroutine per the standard
// gorilla/websocket pattern.
func (s *Socket) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
