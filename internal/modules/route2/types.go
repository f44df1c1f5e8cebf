// Package route2 implements the staged query pipeline: Gate2, Intent,
// the route-LLM mapper, base filters, post-constraints, the Google-Maps
// stage, post-filter, and response assembly — sequenced by
// Route2Orchestrator with guarded early exits, per-stage timeouts, and a
// global deadline.
package route2

import (
	"context"
	"time"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
)

// Publisher is the injected interface the orchestrator uses for every WS
// emission; it never holds a reference to socket sets directly.
type Publisher interface {
	Publish(channel domain.Channel, requestID string, message []byte)
}

// AssistantPublisher is the narrow surface of assistant.Service the
// orchestrator calls; kept as an interface to avoid a direct dependency
// from route2 onto the assistant package's concrete type.
type AssistantPublisher interface {
	GenerateAndPublish(ctx context.Context, requestID, sessionID string, narratorCtx AssistantContext, httpFallbackMessage string, publisher Publisher) string
}

// AssistantContext mirrors assistant.Context; route2 builds one per
// narrator call without importing the assistant package's concrete type,
// keeping the dependency direction orchestrator -> assistant one-way via
// the caller that wires both together.
type AssistantContext struct {
	Type        domain.AssistantType
	Language    domain.UILanguage
	Query       string
	Reason      string
	ResultCount int
	RegionCode  string
	FailureKind domain.PipelineErrorKind
}

// GoogleMapsClient is the external collaborator's consumed interface —
// the concrete Google Places-style provider is out of scope for this
// core and is specified only by what it must expose.
type GoogleMapsClient interface {
	TextSearch(ctx context.Context, query, regionCode, language string) ([]domain.RestaurantResult, error)
	Nearby(ctx context.Context, loc domain.Location, radiusMeters float64, regionCode, language string) ([]domain.RestaurantResult, error)
	Geocode(ctx context.Context, placeName, regionCode string) (domain.Location, error)
}

// Context carries everything a single search call needs, per §4.1's
// public contract.
type Context struct {
	RequestID    string
	SessionID    string
	UserLocation *domain.Location
	TraceID      string
	Deadline     time.Time

	LLMClient    llmTextGenerator
	Google       GoogleMapsClient
	Publisher    Publisher
	Assistant    AssistantPublisher
	Config       *config.AppConfig

	Locale string
}
