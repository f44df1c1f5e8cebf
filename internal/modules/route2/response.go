package route2

import (
	"math"
	"sort"

	"github.com/restaurant-bff/core/internal/domain"
)

const nearbyExactThresholdMeters = 50.0

// scoreResult computes a fixed, threshold-driven score — no ranking-model
// training per §2's explicit non-goal. Rating dominates; distance is a
// secondary tiebreaker when present.
func scoreResult(r domain.RestaurantResult) float64 {
	score := 0.0
	if r.Rating != nil {
		score += *r.Rating * 10
	}
	if r.DistanceMeters != nil {
		score -= math.Min(*r.DistanceMeters/100, 20)
	}
	return score
}

// groupResults buckets into EXACT (near-zero distance from the searched
// point, or no distance signal at all — e.g. a plain TextSearch) versus
// NEARBY (meaningfully off from the anchor, e.g. a radius search).
func groupResults(results []domain.RestaurantResult, isRadiusSearch bool) []domain.RestaurantResult {
	out := make([]domain.RestaurantResult, len(results))
	copy(out, results)
	for i := range out {
		if !isRadiusSearch {
			out[i].GroupKind = domain.GroupExact
			continue
		}
		if out[i].DistanceMeters != nil && *out[i].DistanceMeters <= nearbyExactThresholdMeters {
			out[i].GroupKind = domain.GroupExact
		} else {
			out[i].GroupKind = domain.GroupNearby
		}
	}
	return out
}

// rankResults scores and sorts descending, assigning Score so the value
// is visible to clients for debugging/telemetry.
func rankResults(results []domain.RestaurantResult) []domain.RestaurantResult {
	out := make([]domain.RestaurantResult, len(results))
	copy(out, results)
	for i := range out {
		s := scoreResult(out[i])
		out[i].Score = &s
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Score > *out[j].Score
	})
	return out
}

// buildResponse assembles the terminal SearchResponse: rank, group, and
// combine hard-filter and soft-hint tags into meta.appliedFilters, per
// §4.1 step 10.
func buildResponse(results []domain.RestaurantResult, isRadiusSearch bool, regionCode string, hardFilterTags, softFilterTags []string) domain.SearchResponse {
	ranked := rankResults(results)
	grouped := groupResults(ranked, isRadiusSearch)

	applied := append([]string{}, hardFilterTags...)
	applied = append(applied, softFilterTags...)

	return domain.SearchResponse{
		Results: grouped,
		Meta: domain.SearchResponseMeta{
			RegionCode:     regionCode,
			Source:         "route2",
			AppliedFilters: applied,
		},
	}
}

// hardFilterTags names the explicit RequestFilters fields the caller set,
// for meta.appliedFilters — these carry no ":soft" suffix since they are
// explicit filters rather than post-hoc hints. They are reported only:
// the route mapper does not pass them to the provider, and results are
// not filtered by them.
func hardFilterTags(f *domain.RequestFilters) []string {
	if f == nil {
		return nil
	}
	var tags []string
	if f.OpenNow != nil && *f.OpenNow {
		tags = append(tags, "openNow")
	}
	if f.PriceLevel != nil {
		tags = append(tags, "priceLevel")
	}
	for _, d := range f.Dietary {
		tags = append(tags, d)
	}
	for _, m := range f.MustHave {
		tags = append(tags, m)
	}
	return tags
}
