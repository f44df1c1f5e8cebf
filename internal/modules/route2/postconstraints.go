package route2

import (
	"context"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/pkg/llm"
)

var postConstraintsSchema *llm.Schema

func init() {
	var err error
	postConstraintsSchema, err = llm.NewSchema([]byte(`{
		"type": "object",
		"properties": {
			"isGlutenFree": {"type": "boolean"},
			"isKosher": {"type": "boolean"},
			"priceLevel": {"type": "integer", "minimum": 0, "maximum": 4},
			"requirements": {"type": "array", "items": {"type": "string"}}
		}
	}`))
	if err != nil {
		panic(err)
	}
}

const postConstraintsSystemPrompt = `Extract soft preference hints implied (not explicitly demanded) by the query: isGlutenFree, isKosher (booleans, only set true if implied), priceLevel (0-4 if implied by words like "cheap" or "upscale"), requirements (array of implied nice-to-haves). These are hints only — omit a field when absent. Respond with JSON only.`

// runPostConstraints fires in parallel with base-filters, per §4.1 step 3.
// Its output is applied later, after post-filter awaits it, as soft tags
// in meta.appliedFilters — it never removes a result.
func runPostConstraints(pctx context.Context, llmClient llmTextGenerator, cfg *config.AppConfig, query string) domain.PostConstraints {
	callCtx, cancel := context.WithTimeout(pctx, cfg.LLMTimeout(config.PurposeBaseFilters))
	defer cancel()

	raw, err := llmClient.GenerateText(callCtx, cfg.LLMModel(config.PurposeBaseFilters), postConstraintsSystemPrompt, query, 200)
	if err != nil {
		return domain.PostConstraints{}
	}

	var constraints domain.PostConstraints
	if err := postConstraintsSchema.ValidateInto(llm.ExtractJSON(raw), &constraints); err != nil {
		return domain.PostConstraints{}
	}

	return constraints
}
