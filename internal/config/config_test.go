package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaultsWithoutSecrets(t *testing.T) {
	cfg, err := Load(map[string]string{"NODE_ENV": "development"})
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProdLike())
}

func TestLoad_ProductionRejectsWeakSecret(t *testing.T) {
	_, err := Load(map[string]string{
		"NODE_ENV":         "production",
		"JWT_SECRET":       "too-short",
		"FRONTEND_ORIGINS": "https://app.example.com",
		"REDIS_URL":        "redis://localhost:6379",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be at least 32 characters")
}

func TestLoad_ProductionRejectsWildcardOrigin(t *testing.T) {
	_, err := Load(map[string]string{
		"NODE_ENV":         "staging",
		"JWT_SECRET":       "01234567890123456789012345678901",
		"FRONTEND_ORIGINS": "*",
		"REDIS_URL":        "redis://localhost:6379",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildcard")
}

func TestLoad_ProductionAggregatesAllProblems(t *testing.T) {
	_, err := Load(map[string]string{
		"NODE_ENV":             "production",
		"JWT_SECRET":           "short",
		"ENABLE_GOOGLE_SEARCH": "true",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "FRONTEND_ORIGINS")
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestLoad_ValidProductionConfig(t *testing.T) {
	cfg, err := Load(map[string]string{
		"NODE_ENV":             "production",
		"JWT_SECRET":           "0123456789012345678901234567890123456789",
		"FRONTEND_ORIGINS":     "https://app.example.com,https://m.example.com",
		"REDIS_URL":            "redis://localhost:6379",
		"ENABLE_GOOGLE_SEARCH": "true",
		"GOOGLE_API_KEY":       "abc123",
		"ENABLE_AI_FEATURES":   "false",
		"GATE_MODEL":           "claude-3-5-haiku-latest",
		"GATE_TIMEOUT_MS":      "2000",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com", "https://m.example.com"}, cfg.FrontendOrigins)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLMModel(PurposeGate))
	assert.EqualValues(t, 2000, cfg.LLMTimeout(PurposeGate).Milliseconds())
	assert.EqualValues(t, 3000, cfg.LLMTimeout(PurposeIntent).Milliseconds())
}
