package route2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restaurant-bff/core/internal/domain"
)

func ptrF(v float64) *float64 { return &v }
func ptrB(v bool) *bool       { return &v }

func TestRankResultsOrdersByScoreDescending(t *testing.T) {
	results := []domain.RestaurantResult{
		{PlaceID: "low", Rating: ptrF(2)},
		{PlaceID: "high", Rating: ptrF(4.5)},
	}
	ranked := rankResults(results)
	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].PlaceID)
	assert.Equal(t, "low", ranked[1].PlaceID)
}

func TestGroupResultsNonRadiusIsAllExact(t *testing.T) {
	results := []domain.RestaurantResult{{PlaceID: "a", DistanceMeters: ptrF(5000)}}
	grouped := groupResults(results, false)
	assert.Equal(t, domain.GroupExact, grouped[0].GroupKind)
}

func TestGroupResultsRadiusSplitsByDistance(t *testing.T) {
	results := []domain.RestaurantResult{
		{PlaceID: "close", DistanceMeters: ptrF(10)},
		{PlaceID: "far", DistanceMeters: ptrF(500)},
	}
	grouped := groupResults(results, true)
	assert.Equal(t, domain.GroupExact, grouped[0].GroupKind)
	assert.Equal(t, domain.GroupNearby, grouped[1].GroupKind)
}

func TestBuildResponseCombinesHardAndSoftFilterTags(t *testing.T) {
	results := []domain.RestaurantResult{{PlaceID: "a"}}
	hard := hardFilterTags(&domain.RequestFilters{OpenNow: ptrB(true)})
	soft := applyPostFilter(domain.PostConstraints{IsKosher: ptrB(true)})

	resp := buildResponse(results, false, "US", hard, soft)

	assert.Contains(t, resp.Meta.AppliedFilters, "openNow")
	assert.Contains(t, resp.Meta.AppliedFilters, "isKosher:soft")
	assert.Equal(t, "US", resp.Meta.RegionCode)
}
