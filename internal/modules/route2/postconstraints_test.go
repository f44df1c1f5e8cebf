package route2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPostConstraintsParsesHints(t *testing.T) {
	gen := &fakeTextGen{response: `{"isGlutenFree":true,"priceLevel":1}`}
	constraints := runPostConstraints(context.Background(), gen, testGateConfig(t), "something cheap and gluten free")
	assert.NotNil(t, constraints.IsGlutenFree)
	assert.True(t, *constraints.IsGlutenFree)
	assert.Nil(t, constraints.IsKosher)
}

func TestRunPostConstraintsDegradesToZeroValueOnError(t *testing.T) {
	gen := &fakeTextGen{err: assert.AnError}
	constraints := runPostConstraints(context.Background(), gen, testGateConfig(t), "anything")
	assert.Nil(t, constraints.IsGlutenFree)
	assert.Nil(t, constraints.IsKosher)
}
