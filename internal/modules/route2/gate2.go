package route2

import (
	"context"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/pkg/llm"
)

// gateDecision is the closed set Gate2 classifies a query into.
type gateDecision string

const (
	gateContinue gateDecision = "CONTINUE"
	gateStop     gateDecision = "STOP"
	gateClarify  gateDecision = "CLARIFY"
)

type gateResult struct {
	Decision gateDecision `json:"decision"`
	Reason   string       `json:"reason"`
}

var gateSchema *llm.Schema

func init() {
	var err error
	gateSchema, err = llm.NewSchema([]byte(`{
		"type": "object",
		"required": ["decision", "reason"],
		"properties": {
			"decision": {"type": "string", "enum": ["CONTINUE", "STOP", "CLARIFY"]},
			"reason": {"type": "string"}
		}
	}`))
	if err != nil {
		panic(err)
	}
}

const gateSystemPrompt = `You gate restaurant-search queries. Decide CONTINUE if the query is plausibly about finding a place to eat or drink. Decide STOP if it is clearly unrelated (weather, sports, general chit-chat). Decide CLARIFY if it is food-adjacent but too vague to search (e.g. just "food" or "something good"). Respond with JSON only: {"decision": "CONTINUE"|"STOP"|"CLARIFY", "reason": "short_snake_case_reason"}.`

// runGate2 classifies the query and returns a deterministic CONTINUE
// fallback on any LLM failure — Gate2 never aborts the pipeline by
// erroring, per §4.1 step 2's framing that STOP/CLARIFY are the only
// early exits and both are explicit classifications, not failures.
func runGate2(pctx context.Context, llmClient llmTextGenerator, cfg *config.AppConfig, query string) gateResult {
	callCtx, cancel := context.WithTimeout(pctx, cfg.LLMTimeout(config.PurposeGate))
	defer cancel()

	raw, err := llmClient.GenerateText(callCtx, cfg.LLMModel(config.PurposeGate), gateSystemPrompt, query, 200)
	if err != nil {
		return gateResult{Decision: gateContinue, Reason: "fallback_error"}
	}

	var result gateResult
	if err := gateSchema.ValidateInto(llm.ExtractJSON(raw), &result); err != nil {
		return gateResult{Decision: gateContinue, Reason: "fallback_schema_invalid"}
	}

	return result
}

// llmTextGenerator is the narrow interface every route2 stage calls
// through, mirroring assistant.TextGenerator so stages are testable
// with a fake without depending on *llm.Client directly.
type llmTextGenerator interface {
	GenerateText(ctx context.Context, modelID, systemPrompt, userPrompt string, maxOutputTokens int) (string, error)
}
