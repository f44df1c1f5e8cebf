package gateway

import (
	"sync"
	"time"

	"github.com/restaurant-bff/core/internal/domain"
)

const pendingSubscriptionTTL = 120 * time.Second

type pendingEntry struct {
	socket    *Socket
	sessionID string
	channel   domain.Channel
	requestID string
	expiresAt time.Time
}

// PendingSubscriptions holds subscribe requests accepted before the
// corresponding job existed, keyed by (channel, requestId). Activated or
// rejected when the job is subsequently created.
type PendingSubscriptions struct {
	mu      sync.Mutex
	byKey   map[string][]*pendingEntry
}

// NewPendingSubscriptions builds an empty PendingSubscriptions registry.
func NewPendingSubscriptions() *PendingSubscriptions {
	return &PendingSubscriptions{byKey: map[string][]*pendingEntry{}}
}

// Add registers a pending subscription with a 120s TTL.
func (p *PendingSubscriptions) Add(socket *Socket, channel domain.Channel, requestID, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := domain.SubscriptionKey(channel, requestID)
	p.byKey[key] = append(p.byKey[key], &pendingEntry{
		socket: socket, sessionID: sessionID, channel: channel, requestID: requestID,
		expiresAt: time.Now().Add(pendingSubscriptionTTL),
	})
}

// Remove drops a socket's own pending entry for key, e.g. on unsubscribe
// or socket close.
func (p *PendingSubscriptions) Remove(socket *Socket, channel domain.Channel, requestID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := domain.SubscriptionKey(channel, requestID)
	entries := p.byKey[key]
	kept := entries[:0:0]
	for _, e := range entries {
		if e.socket != socket {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(p.byKey, key)
	} else {
		p.byKey[key] = kept
	}
}

// TakeForRequest pops and returns every non-expired pending entry for a
// (channel, requestId) key, for promotion or rejection when the job
// matching that requestId appears.
func (p *PendingSubscriptions) TakeForRequest(channel domain.Channel, requestID string) []*pendingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := domain.SubscriptionKey(channel, requestID)
	entries := p.byKey[key]
	delete(p.byKey, key)

	now := time.Now()
	live := entries[:0:0]
	for _, e := range entries {
		if now.Before(e.expiresAt) {
			live = append(live, e)
		}
	}
	return live
}

// Count reports the number of live pending subscriptions, for /internal/stats.
func (p *PendingSubscriptions) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	now := time.Now()
	for _, entries := range p.byKey {
		for _, e := range entries {
			if now.Before(e.expiresAt) {
				n++
			}
		}
	}
	return n
}

// Sweep drops expired pending entries, for the periodic TTL sweeper.
func (p *PendingSubscriptions) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	for key, entries := range p.byKey {
		kept := entries[:0:0]
		for _, e := range entries {
			if now.Before(e.expiresAt) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(p.byKey, key)
		} else {
			p.byKey[key] = kept
		}
	}
}
