package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
)

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) GenerateText(_ context.Context, _, _, _ string, _ int) (string, error) {
	return f.response, f.err
}

type capturingPublisher struct {
	channel   domain.Channel
	requestID string
	message   []byte
}

func (c *capturingPublisher) Publish(channel domain.Channel, requestID string, message []byte) {
	c.channel = channel
	c.requestID = requestID
	c.message = message
}

func testConfig() *config.AppConfig {
	cfg, err := config.Load(map[string]string{"NODE_ENV": "test"})
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestClarifyAlwaysBlocksSearch(t *testing.T) {
	gen := &fakeGenerator{response: `{"type":"CLARIFY","message":"Where are you?","question":"What city?","blocksSearch":false}`}
	svc := New(gen, testConfig(), zap.NewNop())
	pub := &capturingPublisher{}

	svc.GenerateAndPublish(context.Background(), "r1", "sess-a", Context{Type: domain.AssistantClarify, Language: domain.LangEnglish}, "", pub)

	assert.Equal(t, domain.ChannelAssistant, pub.channel)
	assert.Contains(t, string(pub.message), `"blocksSearch":true`)
}

func TestSchemaInvalidPublishesAssistantError(t *testing.T) {
	gen := &fakeGenerator{response: `not json at all`}
	svc := New(gen, testConfig(), zap.NewNop())
	pub := &capturingPublisher{}

	result := svc.GenerateAndPublish(context.Background(), "r1", "sess-a", Context{Type: domain.AssistantSummary}, "fallback", pub)

	assert.Equal(t, "fallback", result)
	assert.Contains(t, string(pub.message), "SCHEMA_INVALID")
	assert.Contains(t, string(pub.message), "assistant_error")
}

func TestLLMFailurePublishesAssistantError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	svc := New(gen, testConfig(), zap.NewNop())
	pub := &capturingPublisher{}

	result := svc.GenerateAndPublish(context.Background(), "r1", "sess-a", Context{Type: domain.AssistantSearchFailed}, "", pub)

	require.Equal(t, "", result)
	assert.Contains(t, string(pub.message), "LLM_FAILED")
}

func TestSuccessfulSummaryPublishesAssistantMessage(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" + `{"type":"SUMMARY","message":"Found 3 places","question":null,"blocksSearch":false}` + "\n```"}
	svc := New(gen, testConfig(), zap.NewNop())
	pub := &capturingPublisher{}

	result := svc.GenerateAndPublish(context.Background(), "r1", "sess-a", Context{Type: domain.AssistantSummary, ResultCount: 3}, "", pub)

	assert.Equal(t, "Found 3 places", result)
	assert.Contains(t, string(pub.message), `"assistant"`)
}
