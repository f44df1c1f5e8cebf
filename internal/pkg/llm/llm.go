// Package llm is the single call-site every route2 pipeline stage and the
// assistant service route through: build messages, call jetai.GenerateText
// against a resolved LanguageModel, and hand back the raw text for
// schema-validated JSON extraction.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
)

// Client resolves and caches LanguageModel instances per model id and
// exposes the single GenerateText call-site used throughout the pipeline.
type Client struct {
	anthropicKey string
	openaiKey    string

	mu     sync.Mutex
	models map[string]jetapi.LanguageModel
}

// NewClient builds an llm.Client from the configured provider API keys.
func NewClient(anthropicKey, openaiKey string) *Client {
	return &Client{
		anthropicKey: anthropicKey,
		openaiKey:    openaiKey,
		models:       map[string]jetapi.LanguageModel{},
	}
}

func (c *Client) modelFor(modelID string) (jetapi.LanguageModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[modelID]; ok {
		return m, nil
	}
	m, err := buildLanguageModel(modelID, c.anthropicKey, c.openaiKey)
	if err != nil {
		return nil, err
	}
	c.models[modelID] = m
	return m, nil
}

// GenerateText sends a single system+user prompt pair to the named model
// and returns the concatenated text of the response, the way the donor's
// callAIWithSystemPrompt does for every one of its AI call sites.
func (c *Client) GenerateText(ctx context.Context, modelID, systemPrompt, userPrompt string, maxOutputTokens int) (string, error) {
	model, err := c.modelFor(modelID)
	if err != nil {
		return "", err
	}

	messages := []jetapi.Message{
		&jetapi.SystemMessage{Content: systemPrompt},
		&jetapi.UserMessage{Content: jetapi.ContentFromText(userPrompt)},
	}

	resp, err := jetai.GenerateText(ctx, messages,
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(maxOutputTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}

	return extractText(resp), nil
}

func extractText(resp *jetapi.Response) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.(*jetapi.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

// ExtractJSON strips a ```json fence if present, otherwise extracts the
// first balanced {...} substring — the donor's unmarshalAIJSON tolerance
// for models that wrap structured output in prose or code fences.
func ExtractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return trimmed
	}
	return trimmed[start : end+1]
}
