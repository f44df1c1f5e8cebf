package llm

import (
	"fmt"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// isAnthropicModel mirrors the donor's isAnthropicProviderType: Anthropic
// model ids are always prefixed "claude-".
func isAnthropicModel(modelID string) bool {
	return strings.HasPrefix(modelID, "claude-")
}

// isOpenAIModel mirrors the donor's isOpenAICompatibleProviderType for the
// subset of model families this service routes to OpenAI directly.
func isOpenAIModel(modelID string) bool {
	return strings.HasPrefix(modelID, "gpt-") || strings.HasPrefix(modelID, "o1") || strings.HasPrefix(modelID, "o3")
}

// buildLanguageModel constructs the jetai LanguageModel for a model id,
// dispatching to the Anthropic or OpenAI SDK client the way the donor's
// buildLanguageModel does.
func buildLanguageModel(modelID, anthropicKey, openaiKey string) (jetapi.LanguageModel, error) {
	switch {
	case isAnthropicModel(modelID):
		if anthropicKey == "" {
			return nil, fmt.Errorf("anthropic api key not configured for model %q", modelID)
		}
		client := anthropicclient.NewClient(anthropicoption.WithAPIKey(anthropicKey))
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil
	case isOpenAIModel(modelID):
		if openaiKey == "" {
			return nil, fmt.Errorf("openai api key not configured for model %q", modelID)
		}
		client := openaiclient.NewClient(openaioption.WithAPIKey(openaiKey))
		return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
	default:
		return nil, fmt.Errorf("unrecognized model id %q", modelID)
	}
}
