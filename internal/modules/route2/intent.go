package route2

import (
	"context"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/llm"
)

var intentSchema *llm.Schema

func init() {
	var err error
	intentSchema, err = llm.NewSchema([]byte(`{
		"type": "object",
		"required": ["route", "language", "reason"],
		"properties": {
			"route": {"type": "string", "enum": ["TEXTSEARCH", "NEARBY", "LANDMARK_PLAN", "STOP", "CLARIFY"]},
			"regionCandidate": {"type": "string"},
			"language": {"type": "string", "enum": ["he", "en", "other"]},
			"foodAnchor": {"type": "string"},
			"locationAnchor": {"type": "string"},
			"nearMe": {"type": "boolean"},
			"explicitDistanceMeters": {"type": "number"},
			"reason": {"type": "string"}
		}
	}`))
	if err != nil {
		panic(err)
	}
}

const intentSystemPrompt = `You extract search intent from a restaurant-search query. Identify the route (TEXTSEARCH for a named dish/cuisine/place search, NEARBY for proximity-driven queries, LANDMARK_PLAN when the query names a landmark to search around), a two-letter ISO region candidate if inferable from place names, the detected UI language (he/en/other), the food anchor (dish/cuisine), the location anchor (place name if any), whether the query is a near-me style query, and an explicit distance in meters if one is stated. Respond with JSON only matching: {"route","regionCandidate","language","foodAnchor","locationAnchor","nearMe","explicitDistanceMeters","reason"}.`

// runIntent produces route + regionCandidate. Any LLM failure is mapped
// deterministically to a TEXTSEARCH fallback so the pipeline never
// crashes at this stage, per §4.1 step 4.
func runIntent(pctx context.Context, llmClient llmTextGenerator, cfg *config.AppConfig, query string) domain.Intent {
	callCtx, cancel := context.WithTimeout(pctx, cfg.LLMTimeout(config.PurposeIntent))
	defer cancel()

	raw, err := llmClient.GenerateText(callCtx, cfg.LLMModel(config.PurposeIntent), intentSystemPrompt, query, 300)
	if err != nil {
		reason := "fallback_error"
		if callCtx.Err() != nil {
			reason = "fallback_timeout"
		}
		return domain.Intent{Route: domain.RouteTextSearch, Language: domain.LangEnglish, Reason: reason}
	}

	var intent domain.Intent
	if err := intentSchema.ValidateInto(llm.ExtractJSON(raw), &intent); err != nil {
		return domain.Intent{Route: domain.RouteTextSearch, Language: domain.LangEnglish, Reason: "fallback_schema_invalid"}
	}

	return intent
}
