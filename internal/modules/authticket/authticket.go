// Package authticket mints session JWTs and single-use WebSocket tickets,
// grounded on the donor's internal/pkg/jwt plus the donor's Redis-backed
// single-use-token idiom used elsewhere for idempotence locks.
package authticket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/restaurant-bff/core/internal/domain"
	jwtpkg "github.com/restaurant-bff/core/internal/pkg/jwt"
	"github.com/restaurant-bff/core/internal/pkg/redis"
)

const (
	sessionTokenTTL = 30 * 24 * time.Hour
	wsTicketTTL     = 30 * time.Second
	wsTicketPrefix  = "ws_ticket:"
)

// wsTicketPayload is what's stored at ws_ticket:<id> in Redis.
type wsTicketPayload struct {
	UserID    *string   `json:"userId"`
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service mints session tokens and WS tickets, and verifies both.
type Service struct {
	verifier *jwtpkg.Verifier
	rdb      redis.KV
}

// New builds an authticket.Service.
func New(verifier *jwtpkg.Verifier, rdb redis.KV) *Service {
	return &Service{verifier: verifier, rdb: rdb}
}

// IssueSessionToken mints a sessionId (uuid v4) and a 30-day HS256 JWT.
func (s *Service) IssueSessionToken(userID *string) (token string, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.verifier.Sign(sessionID, userID, sessionTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign session token: %w", err)
	}
	return token, sessionID, nil
}

// VerifyJWT validates a bearer token and returns the SessionIdentity.
func (s *Service) VerifyJWT(raw string) (*domain.SessionIdentity, error) {
	return s.verifier.Parse(raw)
}

// IssueWsTicket mints a single-use ws ticket bound to identity, stored at
// ws_ticket:<id> with a 30s TTL.
func (s *Service) IssueWsTicket(ctx context.Context, identity *domain.SessionIdentity) (ticket string, expiresIn time.Duration, err error) {
	id := uuid.NewString()
	payload := wsTicketPayload{
		UserID:    identity.UserID,
		SessionID: identity.SessionID,
		CreatedAt: time.Now(),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("encode ws ticket payload: %w", err)
	}
	if err := s.rdb.Set(ctx, wsTicketPrefix+id, string(encoded), wsTicketTTL); err != nil {
		return "", 0, fmt.Errorf("store ws ticket: %w", err)
	}
	return id, wsTicketTTL, nil
}

// TicketError distinguishes "not found/expired/used" from "malformed
// payload" so the gateway can pick the right close code.
type TicketError struct {
	NotFound bool
	Err      error
}

func (e *TicketError) Error() string {
	if e.NotFound {
		return "ws ticket not found, expired, or already used"
	}
	return fmt.Sprintf("ws ticket malformed: %v", e.Err)
}

// ConsumeWsTicket performs a single-use GET-then-DEL (via GetDel) on the
// ticket key. A ticket can be consumed exactly once.
func (s *Service) ConsumeWsTicket(ctx context.Context, ticket string) (*domain.SessionIdentity, error) {
	raw, found, err := s.rdb.GetDel(ctx, wsTicketPrefix+ticket)
	if err != nil {
		return nil, fmt.Errorf("consume ws ticket: %w", err)
	}
	if !found {
		return nil, &TicketError{NotFound: true}
	}

	var payload wsTicketPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &TicketError{Err: err}
	}
	if payload.SessionID == "" {
		return nil, &TicketError{Err: fmt.Errorf("missing sessionId")}
	}
	return &domain.SessionIdentity{SessionID: payload.SessionID, UserID: payload.UserID}, nil
}
