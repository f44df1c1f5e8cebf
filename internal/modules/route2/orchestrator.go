package route2

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/modules/gateway"
)

const pipelineDeadline = 45 * time.Second

// Orchestrator sequences the staged pipeline end to end. It owns no
// HTTP/WS concerns of its own; every emission flows through ctx.Publisher.
type Orchestrator struct {
	logger *zap.Logger
}

// NewOrchestrator builds a Route2Orchestrator.
func NewOrchestrator(logger *zap.Logger) *Orchestrator {
	return &Orchestrator{logger: logger.Named("Route2Orchestrator")}
}

// Search executes the full pipeline and returns the terminal response.
// Guarded early exits (gate STOP/CLARIFY, near-me without location,
// NEARBY without location) return empty results with a FailureReason
// instead of erroring — only genuine stage failures flow through
// handlePipelineError.
func (o *Orchestrator) Search(parent context.Context, request domain.SearchRequest, rctx Context) (domain.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(parent, pipelineDeadline)
	defer cancel()

	log := o.logger.With(zap.String("requestId", rctx.RequestID), zap.String("sessionId", rctx.SessionID))

	uiLanguage := domain.LangEnglish
	regionHint := resolveUserRegion(rctx.UserLocation)

	// Stage 2: Gate2.
	gate := runGate2(ctx, rctx.LLMClient, rctx.Config, request.Query)
	switch gate.Decision {
	case gateStop:
		log.Info("route2_gate_stop", zap.String("reason", gate.Reason))
		o.publishAssistant(ctx, rctx, domain.AssistantGateFail, uiLanguage, request.Query, gate.Reason, "")
		return emptyResponse(domain.FailureLowConfidence, "route2_gate_stop"), nil
	case gateClarify:
		log.Info("route2_gate_clarify", zap.String("reason", gate.Reason))
		o.publishAssistant(ctx, rctx, domain.AssistantClarify, uiLanguage, request.Query, gate.Reason, "")
		return emptyResponse(domain.FailureLowConfidence, "route2_gate_clarify"), nil
	}

	// Stage 3: fire parallel tasks, not yet awaited.
	var baseFilters *domain.RequestFilters
	var postConstraints domain.PostConstraints
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		baseFilters = runBaseFilters(ctx, rctx.LLMClient, rctx.Config, request.Query)
	}()
	go func() {
		defer wg.Done()
		postConstraints = runPostConstraints(ctx, rctx.LLMClient, rctx.Config, request.Query)
	}()
	defer wg.Wait() // terminal drain: never leave these in flight

	o.publishProgress(rctx, "intent", "in_progress", "")

	// Stage 4: Intent.
	intent := runIntent(ctx, rctx.LLMClient, rctx.Config, request.Query)
	uiLanguage = intent.Language
	if uiLanguage == "" {
		uiLanguage = domain.LangEnglish
	}

	// Stage 5: near-me handling.
	isRadiusSearch := intent.Route == domain.RouteNearby
	if detectNearMe(request.Query) {
		if rctx.UserLocation == nil {
			log.Info("near_me_without_location")
			o.publishAssistant(ctx, rctx, domain.AssistantClarify, uiLanguage, request.Query, "location_required", "")
			o.publishReady(rctx, 0)
			return emptyResponse(domain.FailureLocationRequired, "route2_location_required"), nil
		}
		intent.Route = domain.RouteNearby
		isRadiusSearch = true
	}

	// Stage 6 guard: a NEARBY route without a location never reaches the
	// provider.
	if intent.Route == domain.RouteNearby && rctx.UserLocation == nil {
		log.Info("nearby_without_location")
		o.publishAssistant(ctx, rctx, domain.AssistantClarify, uiLanguage, request.Query, "location_required", "")
		o.publishReady(rctx, 0)
		return emptyResponse(domain.FailureLocationRequired, "route2_location_required"), nil
	}

	o.publishProgress(rctx, "searching", "in_progress", "")

	// Stage 7: filters resolve (wait for base-filters promise). Explicit
	// client-supplied filters take precedence over the LLM's extraction.
	wg.Wait()
	effectiveFilters := baseFilters
	if request.Filters != nil {
		effectiveFilters = request.Filters
	}
	sharedFilters := buildFinalFilters(regionHint, &intent, effectiveFilters, uiLanguage)

	// Stage 6 + 8: route mapper / google-maps.
	results, err := runRouteMapper(ctx, rctx.Google, intent, rctx.UserLocation, sharedFilters.Final.RegionCode, sharedFilters.Final.ProviderLanguage)
	if err != nil {
		classified := classifyPipelineError(stageGoogle, err)
		return o.handlePipelineError(ctx, rctx, classified, uiLanguage)
	}

	// Stage 9: post-filter (post-constraints already drained above).
	softTags := applyPostFilter(postConstraints)
	hardTags := hardFilterTags(effectiveFilters)

	// Stage 10: response build.
	response := buildResponse(results, isRadiusSearch, sharedFilters.Final.RegionCode, hardTags, softTags)

	resultCount := len(response.Results)
	o.publishReady(rctx, resultCount)

	// Fire-and-forget SUMMARY — never blocks the terminal return.
	if rctx.Assistant != nil {
		summaryCtx := AssistantContext{
			Type:        domain.AssistantSummary,
			Language:    uiLanguage,
			Query:       request.Query,
			ResultCount: resultCount,
			RegionCode:  sharedFilters.Final.RegionCode,
		}
		go rctx.Assistant.GenerateAndPublish(context.Background(), rctx.RequestID, rctx.SessionID, summaryCtx, "", rctx.Publisher)
	}

	return response, nil
}

// handlePipelineError classifies, logs, publishes search.error, and
// fires SEARCH_FAILED — the single funnel every stage error passes
// through, per §7.
func (o *Orchestrator) handlePipelineError(ctx context.Context, rctx Context, se *stageError, uiLanguage domain.UILanguage) (domain.SearchResponse, error) {
	o.logger.Error("pipeline_stage_failed",
		zap.String("requestId", rctx.RequestID),
		zap.String("errorKind", string(se.Kind)),
		zap.String("errorStage", se.Stage),
		zap.Error(se),
	)
	rctx.Publisher.Publish(domain.ChannelSearch, rctx.RequestID, gateway.NewError(rctx.RequestID, se.Stage, se.Kind, se.Message))
	o.publishAssistant(ctx, rctx, domain.AssistantSearchFailed, uiLanguage, "", "", se.Kind)
	return domain.SearchResponse{}, se
}

func (o *Orchestrator) publishProgress(rctx Context, stage, status, message string) {
	rctx.Publisher.Publish(domain.ChannelSearch, rctx.RequestID, gateway.NewProgress(rctx.RequestID, stage, status, message, nil))
}

func (o *Orchestrator) publishReady(rctx Context, resultCount int) {
	resultURL := "/api/v1/search/" + rctx.RequestID + "/result"
	rctx.Publisher.Publish(domain.ChannelSearch, rctx.RequestID, gateway.NewReady(rctx.RequestID, resultURL, resultCount))
}

func (o *Orchestrator) publishAssistant(ctx context.Context, rctx Context, msgType domain.AssistantType, lang domain.UILanguage, query, reason string, failureKind domain.PipelineErrorKind) {
	if rctx.Assistant == nil {
		return
	}
	narratorCtx := AssistantContext{
		Type:        msgType,
		Language:    lang,
		Query:       query,
		Reason:      reason,
		FailureKind: failureKind,
	}
	rctx.Assistant.GenerateAndPublish(ctx, rctx.RequestID, rctx.SessionID, narratorCtx, "", rctx.Publisher)
}

func emptyResponse(reason domain.FailureReason, source string) domain.SearchResponse {
	return domain.SearchResponse{
		Results: []domain.RestaurantResult{},
		Meta: domain.SearchResponseMeta{
			FailureReason: string(reason),
			Source:        source,
		},
	}
}
