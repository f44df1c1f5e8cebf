package route2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunBaseFiltersParsesExplicitFilters(t *testing.T) {
	gen := &fakeTextGen{response: `{"openNow":true,"priceLevel":2,"dietary":["kosher"]}`}
	filters := runBaseFilters(context.Background(), gen, testGateConfig(t), "open kosher places now")
	assert.NotNil(t, filters.OpenNow)
	assert.True(t, *filters.OpenNow)
	assert.Equal(t, []string{"kosher"}, filters.Dietary)
}

func TestRunBaseFiltersDegradesToEmptyOnError(t *testing.T) {
	gen := &fakeTextGen{err: assert.AnError}
	filters := runBaseFilters(context.Background(), gen, testGateConfig(t), "anything")
	assert.Nil(t, filters.OpenNow)
	assert.Empty(t, filters.Dietary)
}
