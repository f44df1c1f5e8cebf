package route2

import (
	"context"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/llm"
)

var baseFiltersSchema *llm.Schema

func init() {
	var err error
	baseFiltersSchema, err = llm.NewSchema([]byte(`{
		"type": "object",
		"properties": {
			"openNow": {"type": "boolean"},
			"priceLevel": {"type": "integer", "minimum": 0, "maximum": 4},
			"dietary": {"type": "array", "items": {"type": "string"}},
			"mustHave": {"type": "array", "items": {"type": "string"}}
		}
	}`))
	if err != nil {
		panic(err)
	}
}

const baseFiltersSystemPrompt = `Extract hard search filters explicitly stated in the query: openNow (boolean, only if the user explicitly asks for currently-open places), priceLevel (0-4, only if stated), dietary (array, e.g. "kosher", "gluten_free", only if explicitly requested), mustHave (array of required amenities/features explicitly named, e.g. "outdoor seating"). Omit any field not explicitly requested. Respond with JSON only.`

// runBaseFilters extracts hard filters fired in parallel with
// post-constraints and intent/route-mapper/google-maps, per §4.1 step 3.
// Any failure degrades to an empty RequestFilters — base filters never
// fail the pipeline. The extracted filters are reported in
// meta.appliedFilters; they are not passed to the provider call.
func runBaseFilters(pctx context.Context, llmClient llmTextGenerator, cfg *config.AppConfig, query string) *domain.RequestFilters {
	callCtx, cancel := context.WithTimeout(pctx, cfg.LLMTimeout(config.PurposeBaseFilters))
	defer cancel()

	raw, err := llmClient.GenerateText(callCtx, cfg.LLMModel(config.PurposeBaseFilters), baseFiltersSystemPrompt, query, 200)
	if err != nil {
		return &domain.RequestFilters{}
	}

	var filters domain.RequestFilters
	if err := baseFiltersSchema.ValidateInto(llm.ExtractJSON(raw), &filters); err != nil {
		return &domain.RequestFilters{}
	}

	return &filters
}
