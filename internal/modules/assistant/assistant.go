// Package assistant is the pure-LLM narrator: given one of four context
// types, it makes a strict-schema LLM call and publishes either a
// validated message or an assistant_error event. It never generates
// deterministic user-facing text.
//
// Grounded on the donor's processing/ai provider.go callAIWithSystemPrompt
// shape (build messages, call the model, extract text, parse JSON),
// reused once per narrator context instead of once for a blog summary.
package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/domain"
	"github.com/restaurant-bff/core/internal/modules/gateway"
	"github.com/restaurant-bff/core/internal/pkg/llm"
)

// Publisher is the narrow interface the orchestrator injects instead of
// holding a reference to the WS hub's socket sets directly.
type Publisher interface {
	Publish(channel domain.Channel, requestID string, message []byte)
}

// Context carries the four narrator context types with a common
// {language, query} envelope, dispatched on Type.
type Context struct {
	Type     domain.AssistantType
	Language domain.UILanguage
	Query    string

	// GateFail / Clarify reason text from the upstream stage, if any.
	Reason string
	// Summary-specific: the already-computed result count/region, so the
	// LLM narrates real numbers instead of guessing.
	ResultCount int
	RegionCode  string
	// SearchFailed-specific.
	FailureKind domain.PipelineErrorKind
}

var assistantSchema *llm.Schema

func init() {
	schema, err := llm.NewSchema([]byte(assistantMessageSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("assistant: invalid embedded schema: %v", err))
	}
	assistantSchema = schema
}

const assistantMessageSchemaJSON = `{
	"type": "object",
	"required": ["type", "message", "blocksSearch"],
	"properties": {
		"type": {"enum": ["GATE_FAIL", "CLARIFY", "SUMMARY", "SEARCH_FAILED"]},
		"message": {"type": "string"},
		"question": {"type": ["string", "null"]},
		"blocksSearch": {"type": "boolean"}
	}
}`

// TextGenerator is the single llm.Client call-site this service needs;
// an interface so tests can inject a fake model without a live provider.
type TextGenerator interface {
	GenerateText(ctx context.Context, modelID, systemPrompt, userPrompt string, maxOutputTokens int) (string, error)
}

// Service is stateless except for the shared LLM client and logger.
type Service struct {
	llmClient TextGenerator
	cfg       *config.AppConfig
	logger    *zap.Logger
}

// New builds an assistant.Service.
func New(llmClient TextGenerator, cfg *config.AppConfig, logger *zap.Logger) *Service {
	return &Service{llmClient: llmClient, cfg: cfg, logger: logger.Named("assistant")}
}

// GenerateAndPublish makes the strict-schema LLM call for narratorCtx and
// publishes the result on the assistant channel. On any failure it
// publishes assistant_error and returns httpFallbackMessage unchanged —
// the wire never carries deterministic assistant text.
func (s *Service) GenerateAndPublish(ctx context.Context, requestID, sessionID string, narratorCtx Context, httpFallbackMessage string, publisher Publisher) string {
	timeout := s.cfg.LLMTimeout(config.PurposeAssistant)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := s.llmClient.GenerateText(callCtx, s.cfg.LLMModel(config.PurposeAssistant), systemPromptFor(narratorCtx), userPromptFor(narratorCtx), 300)
	if err != nil {
		code := domain.AssistantErrLLMFailed
		if callCtx.Err() != nil {
			code = domain.AssistantErrLLMTimeout
		}
		s.logger.Warn("assistant llm call failed", zap.String("requestId", requestID), zap.String("errorCode", string(code)), zap.Error(err))
		publisher.Publish(domain.ChannelAssistant, requestID, gateway.NewAssistantError(requestID, code))
		return httpFallbackMessage
	}

	var message domain.AssistantMessage
	if err := assistantSchema.ValidateInto(llm.ExtractJSON(raw), &message); err != nil {
		s.logger.Warn("assistant schema validation failed", zap.String("requestId", requestID), zap.Error(err))
		publisher.Publish(domain.ChannelAssistant, requestID, gateway.NewAssistantError(requestID, domain.AssistantErrSchemaInvalid))
		return httpFallbackMessage
	}

	message.Type = narratorCtx.Type
	if message.Type == domain.AssistantClarify {
		// Invariant: CLARIFY always blocks search regardless of LLM output.
		message.BlocksSearch = true
	}

	publisher.Publish(domain.ChannelAssistant, requestID, gateway.NewAssistant(requestID, message))
	return message.Message
}

func systemPromptFor(c Context) string {
	lang := "English"
	switch c.Language {
	case domain.LangHebrew:
		lang = "Hebrew"
	case domain.LangOther:
		lang = "English"
	}
	return fmt.Sprintf(
		"You are a restaurant search assistant. Respond in %s. Reply with strict JSON matching "+
			`{"type":%q,"message":string,"question":string|null,"blocksSearch":boolean}. `+
			"Never include any text outside the JSON object.", lang, c.Type)
}

func userPromptFor(c Context) string {
	switch c.Type {
	case domain.AssistantGateFail:
		return fmt.Sprintf("The user's query %q was not recognized as a restaurant search. Explain briefly why and do not block further search attempts.", c.Query)
	case domain.AssistantClarify:
		return fmt.Sprintf("The user's query %q needs clarification: %s. Ask a short clarifying question.", c.Query, c.Reason)
	case domain.AssistantSummary:
		return fmt.Sprintf("Summarize %d restaurant results found in region %s for the query %q in one short sentence.", c.ResultCount, c.RegionCode, c.Query)
	case domain.AssistantSearchFailed:
		return fmt.Sprintf("The search for %q failed internally (%s). Apologize briefly without technical detail.", c.Query, c.FailureKind)
	default:
		return c.Query
	}
}
