package route2

import "github.com/restaurant-bff/core/internal/domain"

// applyPostFilter tags soft hints into appliedFilters; results are never
// removed for a soft hint, per §4.1 step 9.
func applyPostFilter(constraints domain.PostConstraints) []string {
	var tags []string
	if constraints.IsGlutenFree != nil && *constraints.IsGlutenFree {
		tags = append(tags, "isGlutenFree:soft")
	}
	if constraints.IsKosher != nil && *constraints.IsKosher {
		tags = append(tags, "isKosher:soft")
	}
	if constraints.PriceLevel != nil {
		tags = append(tags, "priceLevel:soft")
	}
	for _, r := range constraints.Requirements {
		tags = append(tags, r+":soft")
	}
	return tags
}
