package app

import (
	"context"

	"github.com/restaurant-bff/core/internal/modules/assistant"
	"github.com/restaurant-bff/core/internal/modules/route2"
)

// assistantAdapter implements route2.AssistantPublisher by converting
// route2's local AssistantContext mirror into the real assistant.Context
// and delegating to a concrete *assistant.Service. This is the one place
// the orchestrator -> assistant dependency direction is closed, keeping
// route2 itself free of a direct import on the assistant package.
type assistantAdapter struct {
	service *assistant.Service
}

func newAssistantAdapter(service *assistant.Service) *assistantAdapter {
	return &assistantAdapter{service: service}
}

func (a *assistantAdapter) GenerateAndPublish(ctx context.Context, requestID, sessionID string, narratorCtx route2.AssistantContext, httpFallbackMessage string, publisher route2.Publisher) string {
	return a.service.GenerateAndPublish(ctx, requestID, sessionID, assistant.Context{
		Type:        narratorCtx.Type,
		Language:    narratorCtx.Language,
		Query:       narratorCtx.Query,
		Reason:      narratorCtx.Reason,
		ResultCount: narratorCtx.ResultCount,
		RegionCode:  narratorCtx.RegionCode,
		FailureKind: narratorCtx.FailureKind,
	}, httpFallbackMessage, publisher)
}
