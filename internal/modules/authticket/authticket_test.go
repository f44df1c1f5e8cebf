package authticket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/domain"
	jwtpkg "github.com/restaurant-bff/core/internal/pkg/jwt"
	"github.com/restaurant-bff/core/internal/pkg/redis/redistest"
)

func newService() *Service {
	return New(jwtpkg.New("test-secret-0123456789012345678901234567"), redistest.New())
}

func TestIssueAndVerifySessionToken(t *testing.T) {
	s := newService()
	token, sessionID, err := s.IssueSessionToken(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, sessionID)

	identity, err := s.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, identity.SessionID)
}

func TestWsTicketIsSingleUse(t *testing.T) {
	s := newService()
	ctx := context.Background()
	identity := &domain.SessionIdentity{SessionID: "sess-1"}

	ticket, expiresIn, err := s.IssueWsTicket(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, float64(30), expiresIn.Seconds())

	resolved, err := s.ConsumeWsTicket(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resolved.SessionID)

	_, err = s.ConsumeWsTicket(ctx, ticket)
	require.Error(t, err)
	var ticketErr *TicketError
	require.ErrorAs(t, err, &ticketErr)
	assert.True(t, ticketErr.NotFound)
}

func TestConsumeUnknownTicketFails(t *testing.T) {
	s := newService()
	_, err := s.ConsumeWsTicket(context.Background(), "does-not-exist")
	require.Error(t, err)
}
