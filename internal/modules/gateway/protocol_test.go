package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/domain"
)

func TestParseInboundEnvelope_Canonical(t *testing.T) {
	env, ok := parseInboundEnvelope([]byte(`{"v":1,"type":"subscribe","channel":"search","requestId":"r1"}`))
	require.True(t, ok)
	assert.Equal(t, InboundSubscribe, env.Type)
	assert.Equal(t, domain.ChannelSearch, env.Channel)
	assert.Equal(t, "r1", env.RequestID)
}

func TestParseInboundEnvelope_LegacyPayloadRequestID(t *testing.T) {
	env, ok := parseInboundEnvelope([]byte(`{"type":"subscribe","channel":"search","payload":{"requestId":"r2"}}`))
	require.True(t, ok)
	assert.Equal(t, "r2", env.RequestID)
}

func TestParseInboundEnvelope_LegacyDataRequestID(t *testing.T) {
	env, ok := parseInboundEnvelope([]byte(`{"type":"subscribe","channel":"assistant","data":{"requestId":"r3"}}`))
	require.True(t, ok)
	assert.Equal(t, "r3", env.RequestID)
}

func TestParseInboundEnvelope_LegacyReqID(t *testing.T) {
	env, ok := parseInboundEnvelope([]byte(`{"type":"unsubscribe","channel":"search","reqId":"r4"}`))
	require.True(t, ok)
	assert.Equal(t, InboundUnsubscribe, env.Type)
	assert.Equal(t, "r4", env.RequestID)
}

func TestParseInboundEnvelope_RejectsMissingRequestID(t *testing.T) {
	_, ok := parseInboundEnvelope([]byte(`{"type":"subscribe","channel":"search"}`))
	assert.False(t, ok)
}

func TestParseInboundEnvelope_RejectsUnknownChannel(t *testing.T) {
	_, ok := parseInboundEnvelope([]byte(`{"type":"subscribe","channel":"bogus","requestId":"r1"}`))
	assert.False(t, ok)
}

func TestSubscriptionKeyEquality(t *testing.T) {
	subscribeKey := domain.SubscriptionKey(domain.ChannelSearch, "r1")
	publishKey := domain.SubscriptionKey(domain.ChannelSearch, "r1")
	assert.Equal(t, subscribeKey, publishKey)
	assert.Equal(t, "search:r1", subscribeKey)
}
