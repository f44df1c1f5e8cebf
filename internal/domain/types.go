// Package domain holds the shared types that flow between the route2
// pipeline, the websocket fan-out layer, and the async job lifecycle.
package domain

import "time"

// SessionIdentity is the canonical identity carried on the JWT. sessionId
// is the only value the rest of the system trusts for ownership checks.
type SessionIdentity struct {
	SessionID string  `json:"sessionId"`
	UserID    *string `json:"userId"`
}

// Location is a lat/lng pair supplied by the client.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RequestFilters are the explicit filters a client may request.
type RequestFilters struct {
	OpenNow    *bool    `json:"openNow,omitempty"`
	PriceLevel *int     `json:"priceLevel,omitempty"`
	Dietary    []string `json:"dietary,omitempty"`
	MustHave   []string `json:"mustHave,omitempty"`
}

// SearchRequest is immutable after accept.
type SearchRequest struct {
	Query         string          `json:"query" binding:"required"`
	UserLocation  *Location       `json:"userLocation,omitempty"`
	Locale        string          `json:"locale,omitempty"`
	Filters       *RequestFilters `json:"filters,omitempty"`
	ClearContext  bool            `json:"clearContext,omitempty"`
}

// JobStatus is the closed set of lifecycle states for a Job.
type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// JobFailure records the classified reason a job ended FAILED.
type JobFailure struct {
	Kind    PipelineErrorKind `json:"kind"`
	Message string            `json:"message"`
}

// Job is the authoritative record of a search request's lifecycle.
// Terminal state (DONE or FAILED) is write-once; ownerSessionId never
// changes after creation.
type Job struct {
	RequestID      string          `json:"requestId"`
	Status         JobStatus       `json:"status"`
	OwnerSessionID string          `json:"ownerSessionId"`
	OwnerUserID    *string         `json:"ownerUserId"`
	Response       *SearchResponse `json:"response,omitempty"`
	Failure        *JobFailure     `json:"failure,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	ExpiresAt      time.Time       `json:"expiresAt"`
}

// IsTerminal reports whether the job has reached DONE or FAILED.
func (j *Job) IsTerminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// IntentRoute is the closed set of routes the Intent stage may select.
type IntentRoute string

const (
	RouteTextSearch  IntentRoute = "TEXTSEARCH"
	RouteNearby      IntentRoute = "NEARBY"
	RouteLandmarkPlan IntentRoute = "LANDMARK_PLAN"
	RouteStop        IntentRoute = "STOP"
	RouteClarify     IntentRoute = "CLARIFY"
)

// UILanguage is the closed set of languages the UI/assistant may respond in.
type UILanguage string

const (
	LangHebrew  UILanguage = "he"
	LangEnglish UILanguage = "en"
	LangOther   UILanguage = "other"
)

// Intent is the structured output of the Intent stage. regionCandidate is
// advisory only — the final regionCode is resolved later by SharedFilters.
type Intent struct {
	Route                  IntentRoute `json:"route"`
	RegionCandidate        string      `json:"regionCandidate,omitempty"`
	Language               UILanguage  `json:"language"`
	FoodAnchor             string      `json:"foodAnchor,omitempty"`
	LocationAnchor         string      `json:"locationAnchor,omitempty"`
	NearMe                 bool        `json:"nearMe"`
	ExplicitDistanceMeters *float64    `json:"explicitDistanceMeters,omitempty"`
	Reason                 string      `json:"reason"`
}

// SharedFilters.final — downstream stages read only Final.
type SharedFilters struct {
	Final FinalFilters `json:"final"`
}

// FinalFilters is constructed after Gate2 from user location, intent
// regionCandidate, session default, and configured fallback, in that
// priority order. RegionCode is present for every successful search.
type FinalFilters struct {
	RegionCode       string   `json:"regionCode"`
	UILanguage       UILanguage `json:"uiLanguage"`
	ProviderLanguage string   `json:"providerLanguage"`
	OpenState        *bool    `json:"openState,omitempty"`
	PriceLevel       *int     `json:"priceLevel,omitempty"`
	IsKosher         *bool    `json:"isKosher,omitempty"`
	IsGlutenFree     *bool    `json:"isGlutenFree,omitempty"`
	Requirements     []string `json:"requirements,omitempty"`
}

// PostConstraints are soft hints extracted in parallel with base filters.
// Absence (nil) means the user did not ask; false is never set.
type PostConstraints struct {
	IsGlutenFree *bool    `json:"isGlutenFree,omitempty"`
	IsKosher     *bool    `json:"isKosher,omitempty"`
	PriceLevel   *int     `json:"priceLevel,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// GroupKind buckets a RestaurantResult as an exact match or a nearby one.
type GroupKind string

const (
	GroupExact  GroupKind = "EXACT"
	GroupNearby GroupKind = "NEARBY"
)

// RestaurantResult never carries a provider API key; photos are referenced
// by opaque token only.
type RestaurantResult struct {
	PlaceID        string    `json:"placeId"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Location       Location  `json:"location"`
	Rating         *float64  `json:"rating,omitempty"`
	OpenNow        *bool     `json:"openNow,omitempty"`
	PhotoReference string    `json:"photoReference,omitempty"`
	DistanceMeters *float64  `json:"distanceMeters,omitempty"`
	Score          *float64  `json:"score,omitempty"`
	GroupKind      GroupKind `json:"groupKind"`
}

// SearchResponseMeta carries the diagnostic/telemetry fields echoed in the
// HTTP body — regionCode here must equal the region used by the provider
// call for this request.
type SearchResponseMeta struct {
	RegionCode      string   `json:"regionCode"`
	Source          string   `json:"source"`
	FailureReason   string   `json:"failureReason,omitempty"`
	AppliedFilters  []string `json:"appliedFilters,omitempty"`
}

// SearchResponse is the terminal payload of a completed job.
type SearchResponse struct {
	Results []RestaurantResult  `json:"results"`
	Meta    SearchResponseMeta  `json:"meta"`
}

// AssistantType is the closed set of narrator contexts.
type AssistantType string

const (
	AssistantGateFail     AssistantType = "GATE_FAIL"
	AssistantClarify      AssistantType = "CLARIFY"
	AssistantSummary      AssistantType = "SUMMARY"
	AssistantSearchFailed AssistantType = "SEARCH_FAILED"
)

// AssistantMessage is published on the assistant channel only. For
// type=CLARIFY, BlocksSearch is forced true regardless of LLM output.
type AssistantMessage struct {
	Type         AssistantType `json:"type"`
	Message      string        `json:"message"`
	Question     *string       `json:"question"`
	BlocksSearch bool          `json:"blocksSearch"`
}

// AssistantErrorCode is the closed set of narrator failure codes.
type AssistantErrorCode string

const (
	AssistantErrLLMTimeout    AssistantErrorCode = "LLM_TIMEOUT"
	AssistantErrLLMFailed     AssistantErrorCode = "LLM_FAILED"
	AssistantErrSchemaInvalid AssistantErrorCode = "SCHEMA_INVALID"
)

// Channel is the closed set of WS publish channels.
type Channel string

const (
	ChannelSearch    Channel = "search"
	ChannelAssistant Channel = "assistant"
)

// SubscriptionKey computes the canonical "channel:requestId" key. This is
// the single identifier both subscribe and publish paths must agree on.
func SubscriptionKey(channel Channel, requestID string) string {
	return string(channel) + ":" + requestID
}

// WSSubscription is a live, authorized subscription on one socket.
type WSSubscription struct {
	Key       string
	SessionID string
	RequestID string
	Channel   Channel
}

// BacklogEntry is an undelivered message queued for a subscription key
// that had no live subscriber at publish time.
type BacklogEntry struct {
	Key        string
	Channel    Channel
	RequestID  string
	Message    []byte
	EnqueuedAt time.Time
}

// PipelineErrorKind is the closed set of classified pipeline failures.
// Every error in the system is mapped to exactly one of these before it
// is logged or surfaced on the wire.
type PipelineErrorKind string

const (
	ErrGateLLMTimeout       PipelineErrorKind = "GATE_LLM_TIMEOUT"
	ErrIntentLLMError       PipelineErrorKind = "INTENT_LLM_ERROR"
	ErrGoogleTimeout        PipelineErrorKind = "GOOGLE_TIMEOUT"
	ErrGoogleQuotaExceeded  PipelineErrorKind = "GOOGLE_QUOTA_EXCEEDED"
	ErrDNSFail              PipelineErrorKind = "DNS_FAIL"
	ErrNearMeNoLocation     PipelineErrorKind = "NEARME_NO_LOCATION"
	ErrNearMeInvalidLoc     PipelineErrorKind = "NEARME_INVALID_LOCATION"
	ErrPipelineTimeout      PipelineErrorKind = "PIPELINE_TIMEOUT"
	ErrOpenAIAPIKeyMissing  PipelineErrorKind = "OPENAI_API_KEY_MISSING"
	ErrGoogleAPIKeyMissing  PipelineErrorKind = "GOOGLE_API_KEY_MISSING"
	ErrInternal             PipelineErrorKind = "INTERNAL_ERROR"
	ErrParse                PipelineErrorKind = "PARSE_ERROR"
	ErrValidation           PipelineErrorKind = "VALIDATION_ERROR"
	ErrProvider             PipelineErrorKind = "PROVIDER_ERROR"
	ErrNetwork              PipelineErrorKind = "NETWORK_ERROR"
	ErrLLMTimeout           PipelineErrorKind = "LLM_TIMEOUT"
	ErrLLMFailed            PipelineErrorKind = "LLM_FAILED"
	ErrSchemaInvalid        PipelineErrorKind = "SCHEMA_INVALID"
)

// FailureReason is the closed set of user-facing reasons a search yielded
// no results without a hard failure.
type FailureReason string

const (
	FailureLowConfidence    FailureReason = "LOW_CONFIDENCE"
	FailureLocationRequired FailureReason = "LOCATION_REQUIRED"
)
