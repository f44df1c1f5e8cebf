package route2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/restaurant-bff/core/internal/domain"
)

func TestRunIntentParsesValidResponse(t *testing.T) {
	gen := &fakeTextGen{response: `{"route":"NEARBY","language":"en","nearMe":true,"reason":"proximity_query"}`}
	intent := runIntent(context.Background(), gen, testGateConfig(t), "sushi near me")
	assert.Equal(t, domain.RouteNearby, intent.Route)
	assert.True(t, intent.NearMe)
}

func TestRunIntentFallsBackToTextSearchOnError(t *testing.T) {
	gen := &fakeTextGen{err: assert.AnError}
	intent := runIntent(context.Background(), gen, testGateConfig(t), "anything")
	assert.Equal(t, domain.RouteTextSearch, intent.Route)
	assert.Equal(t, "fallback_error", intent.Reason)
}

func TestRunIntentFallsBackToTextSearchOnSchemaInvalid(t *testing.T) {
	gen := &fakeTextGen{response: `garbage`}
	intent := runIntent(context.Background(), gen, testGateConfig(t), "anything")
	assert.Equal(t, domain.RouteTextSearch, intent.Route)
	assert.Equal(t, "fallback_schema_invalid", intent.Reason)
}
