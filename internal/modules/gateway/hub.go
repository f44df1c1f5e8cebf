package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/redis"
)

const fanoutChannel = "bff:ws:fanout"

// JobOwnerLookup is the subset of JobStore the gateway needs: resolving a
// requestId's owner (and, once the job is terminal, replaying its final
// state) without importing the jobstore package's write paths.
type JobOwnerLookup interface {
	Get(ctx context.Context, requestID string) (*domain.Job, error)
}

type subscribeOp struct {
	socket    *Socket
	channel   domain.Channel
	requestID string
}

type unsubscribeOp struct {
	socket    *Socket
	channel   domain.Channel
	requestID string
}

type publishOp struct {
	channel   domain.Channel
	requestID string
	message   []byte
	fromFanout bool
}

// Hub is the single owner of SubscriptionRegistry, PendingSubscriptions,
// and per-socket rate limiter state, mutated from its own Run goroutine
// and, for pending-subscription activation, from OnJobCreated under the
// same locks — the donor's Run-loop shape, generalized from socket.io
// rooms to this spec's subscribe/unsubscribe/event protocol over raw
// gorilla/websocket connections.
type Hub struct {
	logger *zap.Logger
	rdb    *redis.Client
	jobs   JobOwnerLookup

	backlog *BacklogManager
	pending *PendingSubscriptions

	register   chan *Socket
	unregister chan *Socket
	subscribe  chan subscribeOp
	unsub      chan unsubscribeOp
	publish    chan publishOp

	mu          sync.RWMutex
	subscribers map[string]map[*Socket]struct{}
	sockets     map[*Socket]struct{}
}

// NewHub builds a Hub. rdb may be nil, in which case cross-replica
// fan-out is disabled (single-process / test mode).
func NewHub(logger *zap.Logger, rdb *redis.Client, jobs JobOwnerLookup) *Hub {
	return &Hub{
		logger:      logger.Named("gateway"),
		rdb:         rdb,
		jobs:        jobs,
		backlog:     NewBacklogManager(),
		pending:     NewPendingSubscriptions(),
		register:    make(chan *Socket, 16),
		unregister:  make(chan *Socket, 16),
		subscribe:   make(chan subscribeOp, 64),
		unsub:       make(chan unsubscribeOp, 64),
		publish:     make(chan publishOp, 256),
		subscribers: map[string]map[*Socket]struct{}{},
		sockets:     map[*Socket]struct{}{},
	}
}

// Run processes register/unregister/subscribe/unsubscribe/publish ops,
// Redis fan-out messages and the periodic sweep until ctx is cancelled.
// Must be started exactly once.
func (h *Hub) Run(ctx context.Context) {
	var redisMsgs <-chan []byte
	if h.rdb != nil {
		redisMsgs = h.subscribeRedis(ctx)
	}

	sweep := time.NewTicker(30 * time.Second)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.mu.Lock()
			h.sockets[s] = struct{}{}
			h.mu.Unlock()
		case s := <-h.unregister:
			h.handleUnregister(s)
		case op := <-h.subscribe:
			h.handleSubscribe(ctx, op)
		case op := <-h.unsub:
			h.handleUnsubscribe(op)
		case op := <-h.publish:
			h.deliver(op)
		case raw := <-redisMsgs:
			h.handleFanoutMessage(raw)
		case <-sweep.C:
			h.backlog.Sweep()
			h.pending.Sweep()
		}
	}
}

func (h *Hub) handleUnregister(s *Socket) {
	h.mu.Lock()
	delete(h.sockets, s)
	for _, key := range s.allKeys() {
		if set, ok := h.subscribers[key]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subscribers, key)
			}
		}
	}
	h.mu.Unlock()
	s.close()
}

// handleSubscribe implements §4.3's subscribe handling: job lookup,
// ownership check, backlog drain, or pending registration.
func (h *Hub) handleSubscribe(ctx context.Context, op subscribeOp) {
	key := domain.SubscriptionKey(op.channel, op.requestID)

	if !op.socket.subscribeLimiter.Allow() {
		op.socket.trySend(NewSubNack(op.channel, op.requestID, ReasonRateLimited))
		return
	}

	job, err := h.jobs.Get(ctx, op.requestID)
	if err != nil {
		h.logger.Warn("job lookup failed on subscribe", zap.String("requestId", op.requestID), zap.Error(err))
		op.socket.trySend(NewSubNack(op.channel, op.requestID, ReasonInvalid))
		return
	}

	if job == nil {
		h.pending.Add(op.socket, op.channel, op.requestID, op.socket.sessionID)
		op.socket.trySend(NewSubAck(op.channel, op.requestID, true))
		return
	}

	if job.OwnerSessionID != op.socket.sessionID {
		h.logger.Info("subscribe session mismatch",
			zap.String("requestId", op.requestID),
			zap.String("ownerPrefix", prefix(job.OwnerSessionID)),
			zap.String("callerPrefix", prefix(op.socket.sessionID)))
		op.socket.trySend(NewSubNack(op.channel, op.requestID, ReasonSessionMismatch))
		return
	}

	h.registerActive(op.socket, key)
	op.socket.trySend(NewSubAck(op.channel, op.requestID, false))
	h.drainBacklog(op.socket, key)

	if job.IsTerminal() {
		h.replayTerminal(op.socket, op.channel, job)
	}
}

func (h *Hub) handleUnsubscribe(op unsubscribeOp) {
	key := domain.SubscriptionKey(op.channel, op.requestID)
	h.mu.Lock()
	if set, ok := h.subscribers[key]; ok {
		delete(set, op.socket)
		if len(set) == 0 {
			delete(h.subscribers, key)
		}
	}
	h.mu.Unlock()
	op.socket.removeKey(key)
	h.pending.Remove(op.socket, op.channel, op.requestID)
}

func (h *Hub) registerActive(s *Socket, key string) {
	h.mu.Lock()
	set, ok := h.subscribers[key]
	if !ok {
		set = map[*Socket]struct{}{}
		h.subscribers[key] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	s.addKey(key)
}

func (h *Hub) drainBacklog(s *Socket, key string) {
	for _, entry := range h.backlog.Drain(key) {
		s.trySend(entry.Message)
	}
}

func (h *Hub) replayTerminal(s *Socket, channel domain.Channel, job *domain.Job) {
	if channel != domain.ChannelSearch {
		return
	}
	switch job.Status {
	case domain.JobDone:
		count := 0
		if job.Response != nil {
			count = len(job.Response.Results)
		}
		s.trySend(NewReady(job.RequestID, resultURLFor(job.RequestID), count))
	case domain.JobFailed:
		kind := domain.ErrInternal
		msg := ""
		if job.Failure != nil {
			kind = job.Failure.Kind
			msg = job.Failure.Message
		}
		s.trySend(NewError(job.RequestID, "terminal", kind, msg))
	}
}

func resultURLFor(requestID string) string {
	return "/api/v1/search/" + requestID + "/result"
}

// OnJobCreated activates pending subscriptions for requestID against the
// newly created job's ownership, promoting matches and rejecting
// mismatches. Safe to call from any goroutine — it runs on the caller's
// goroutine, relying on the mutexes of PendingSubscriptions, the
// subscriber map and the backlog rather than the Run loop.
func (h *Hub) OnJobCreated(job *domain.Job) {
	for _, channel := range []domain.Channel{domain.ChannelSearch, domain.ChannelAssistant} {
		for _, entry := range h.pending.TakeForRequest(channel, job.RequestID) {
			if entry.sessionID != job.OwnerSessionID {
				entry.socket.trySend(NewSubNack(channel, job.RequestID, ReasonSessionMismatch))
				continue
			}
			key := domain.SubscriptionKey(channel, job.RequestID)
			h.registerActive(entry.socket, key)
			h.drainBacklog(entry.socket, key)
		}
	}
}

// Publish computes the canonical key, and either delivers to live
// subscribers or backlogs the message. Safe to call from any goroutine.
func (h *Hub) Publish(channel domain.Channel, requestID string, message []byte) {
	h.publish <- publishOp{channel: channel, requestID: requestID, message: message}
	if h.rdb != nil {
		envelope, _ := json.Marshal(fanoutEnvelope{Channel: channel, RequestID: requestID, Message: message})
		_ = h.rdb.Publish(context.Background(), fanoutChannel, string(envelope))
	}
}

type fanoutEnvelope struct {
	Channel   domain.Channel `json:"channel"`
	RequestID string         `json:"requestId"`
	Message   []byte         `json:"message"`
}

// deliver implements PublishManager: serialize once, send to each open
// socket, or backlog if nobody is subscribed.
func (h *Hub) deliver(op publishOp) {
	key := domain.SubscriptionKey(op.channel, op.requestID)

	h.mu.RLock()
	set := h.subscribers[key]
	snapshot := make([]*Socket, 0, len(set))
	for s := range set {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	if len(snapshot) == 0 {
		h.backlog.Enqueue(domain.BacklogEntry{
			Key: key, Channel: op.channel, RequestID: op.requestID,
			Message: op.message, EnqueuedAt: time.Now(),
		})
		h.logger.Info("websocket_published",
			zap.String("subscriptionKey", key), zap.Int("clientCount", 0),
			zap.Int("payloadBytes", len(op.message)), zap.Bool("backlogged", true))
		return
	}

	sent, failed := 0, 0
	for _, s := range snapshot {
		if s.trySend(op.message) {
			sent++
		} else {
			failed++
		}
	}
	h.logger.Info("websocket_published",
		zap.String("subscriptionKey", key), zap.Int("clientCount", len(snapshot)),
		zap.Int("payloadBytes", len(op.message)), zap.Int("sent", sent), zap.Int("failed", failed))
}

// handleFanoutMessage delivers a message received on the Redis fan-out
// channel. deliver never publishes to Redis, so there is no echo loop;
// fromFanout only marks where the op came from.
func (h *Hub) handleFanoutMessage(raw []byte) {
	var envelope fanoutEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	h.deliver(publishOp{channel: envelope.Channel, requestID: envelope.RequestID, message: envelope.Message, fromFanout: true})
}

func (h *Hub) subscribeRedis(ctx context.Context) <-chan []byte {
	out := make(chan []byte, 64)
	pubsub := h.rdb.Subscribe(ctx, fanoutChannel)
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out <- []byte(msg.Payload)
			}
		}
	}()
	return out
}

// Stats is the payload behind GET /internal/stats.
type Stats struct {
	WSConnections        int `json:"wsConnections"`
	BacklogEntries       int `json:"backlogEntries"`
	PendingSubscriptions int `json:"pendingSubscriptions"`
}

// ClientCount reports the number of live sockets, mirroring the donor's
// Hub.ClientCount.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sockets)
}

// StatsSnapshot assembles the /internal/stats payload.
func (h *Hub) StatsSnapshot() Stats {
	return Stats{
		WSConnections:        h.ClientCount(),
		BacklogEntries:       h.backlog.Size(),
		PendingSubscriptions: h.pending.Count(),
	}
}

func prefix(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
