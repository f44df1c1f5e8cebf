package route2

import (
	"context"
	"time"

	"github.com/restaurant-bff/core/internal/domain"
)

const (
	routeMapperMaxAttempts  = 3
	routeMapperInitialDelay = 200 * time.Millisecond
)

// runRouteMapper dispatches to the Google-Maps collaborator per the
// resolved route, retrying transient failures with a backoff that doubles
// after each attempt. A
// NEARBY route without a location is a deterministic guard, never a
// provider call, per §4.1 step 6.
func runRouteMapper(ctx context.Context, google GoogleMapsClient, intent domain.Intent, userLocation *domain.Location, regionCode, providerLanguage string) ([]domain.RestaurantResult, error) {
	if google == nil {
		return nil, newStageError(stageRouteMapper, domain.ErrGoogleAPIKeyMissing, errGoogleSearchDisabled)
	}
	switch intent.Route {
	case domain.RouteNearby:
		if userLocation == nil {
			return nil, newStageError(stageRouteMapper, domain.ErrValidation, errNearbyRequiresLocation)
		}
		radius := 1500.0
		if intent.ExplicitDistanceMeters != nil && *intent.ExplicitDistanceMeters > 0 {
			radius = *intent.ExplicitDistanceMeters
		}
		return withRetry(ctx, routeMapperMaxAttempts, func() ([]domain.RestaurantResult, error) {
			return google.Nearby(ctx, *userLocation, radius, regionCode, providerLanguage)
		})

	case domain.RouteLandmarkPlan:
		return withRetry(ctx, routeMapperMaxAttempts, func() ([]domain.RestaurantResult, error) {
			loc, err := google.Geocode(ctx, intent.LocationAnchor, regionCode)
			if err != nil {
				return nil, err
			}
			return google.Nearby(ctx, loc, 2000, regionCode, providerLanguage)
		})

	default: // TEXTSEARCH and any unexpected route
		query := intent.FoodAnchor
		if intent.LocationAnchor != "" {
			query = query + " " + intent.LocationAnchor
		}
		return withRetry(ctx, routeMapperMaxAttempts, func() ([]domain.RestaurantResult, error) {
			return google.TextSearch(ctx, query, regionCode, providerLanguage)
		})
	}
}

func withRetry(ctx context.Context, maxAttempts int, op func() ([]domain.RestaurantResult, error)) ([]domain.RestaurantResult, error) {
	var lastErr error
	delay := routeMapperInitialDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		results, err := op()
		if err == nil {
			return results, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}
	return nil, lastErr
}

type nearbyRequiresLocationError struct{}

func (nearbyRequiresLocationError) Error() string { return "nearby route requires userLocation" }

var errNearbyRequiresLocation = nearbyRequiresLocationError{}

type googleSearchDisabledError struct{}

func (googleSearchDisabledError) Error() string { return "google maps collaborator not configured" }

var errGoogleSearchDisabled = googleSearchDisabledError{}
