// Package config loads and validates process configuration from the
// environment, following the donor's Load -> normalize -> validate
// pipeline shape with env vars in place of a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLMPurpose names one of the five purposes whose model and timeout can be
// overridden per purpose.
type LLMPurpose string

const (
	PurposeGate        LLMPurpose = "GATE"
	PurposeIntent      LLMPurpose = "INTENT"
	PurposeBaseFilters LLMPurpose = "BASE_FILTERS"
	PurposeRouteMapper LLMPurpose = "ROUTE_MAPPER"
	PurposeAssistant   LLMPurpose = "ASSISTANT"
)

// LLMOverride is the resolved model+timeout for one purpose.
type LLMOverride struct {
	Model     string
	TimeoutMS int
}

// AppConfig is loaded once at boot and immutable afterward.
type AppConfig struct {
	Env                string
	Port               string
	JWTSecret          string
	RedisURL           string
	FrontendOrigins    []string
	EnableAIFeatures   bool
	EnableGoogleSearch bool
	WSRequireAuth      bool

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	LLMDefaultModel     string
	LLMDefaultTimeoutMS int
	LLM                 map[LLMPurpose]LLMOverride
}

// IsProdLike treats staging identically to production for security gates.
func (c *AppConfig) IsProdLike() bool {
	return c.Env == "production" || c.Env == "staging"
}

// LLMTimeout returns the resolved timeout for a purpose as a duration.
func (c *AppConfig) LLMTimeout(p LLMPurpose) time.Duration {
	if o, ok := c.LLM[p]; ok && o.TimeoutMS > 0 {
		return time.Duration(o.TimeoutMS) * time.Millisecond
	}
	return time.Duration(c.LLMDefaultTimeoutMS) * time.Millisecond
}

// LLMModel returns the resolved model name for a purpose.
func (c *AppConfig) LLMModel(p LLMPurpose) string {
	if o, ok := c.LLM[p]; ok && o.Model != "" {
		return o.Model
	}
	return c.LLMDefaultModel
}

var purposes = []LLMPurpose{PurposeGate, PurposeIntent, PurposeBaseFilters, PurposeRouteMapper, PurposeAssistant}

// Load reads configuration from the given environment map (os.Environ
// shaped), applying defaults, per-purpose LLM overrides, and then
// validating. In production/staging, validation failures are aggregated
// and returned as one error so an operator sees every problem at once.
func Load(env map[string]string) (*AppConfig, error) {
	get := func(key, def string) string {
		if v, ok := env[key]; ok && v != "" {
			return v
		}
		return def
	}

	cfg := &AppConfig{
		Env:                 get("NODE_ENV", "development"),
		Port:                get("PORT", "8080"),
		JWTSecret:           get("JWT_SECRET", ""),
		RedisURL:            get("REDIS_URL", ""),
		EnableAIFeatures:    parseBool(get("ENABLE_AI_FEATURES", "true")),
		EnableGoogleSearch:  parseBool(get("ENABLE_GOOGLE_SEARCH", "true")),
		WSRequireAuth:       parseBool(get("WS_REQUIRE_AUTH", "true")),
		AnthropicAPIKey:     get("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:        get("OPENAI_API_KEY", ""),
		GoogleAPIKey:        get("GOOGLE_API_KEY", ""),
		LLMDefaultModel:     get("LLM_DEFAULT_MODEL", "claude-3-5-haiku-latest"),
		LLMDefaultTimeoutMS: parseInt(get("LLM_DEFAULT_TIMEOUT_MS", "3000"), 3000),
		LLM:                 map[LLMPurpose]LLMOverride{},
	}

	origins := get("FRONTEND_ORIGINS", "")
	if origins != "" {
		for _, o := range strings.Split(origins, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.FrontendOrigins = append(cfg.FrontendOrigins, o)
			}
		}
	}

	for _, p := range purposes {
		model := get(string(p)+"_MODEL", "")
		timeoutMS := parseInt(get(string(p)+"_TIMEOUT_MS", "0"), 0)
		if model != "" || timeoutMS != 0 {
			cfg.LLM[p] = LLMOverride{Model: model, TimeoutMS: timeoutMS}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromOS is a convenience wrapper around Load(os.Environ()).
func LoadFromOS() (*AppConfig, error) {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return Load(env)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

var devDefaultSecrets = map[string]struct{}{
	"":                           {},
	"changeme":                   {},
	"secret":                     {},
	"mx-space-secret-change-me":  {},
	"development":                {},
}

// validate aggregates every violation found for the current environment.
// Outside production/staging no check runs: values are kept as given
// (an empty JWT_SECRET stays empty) and nothing is logged.
func validate(cfg *AppConfig) error {
	if !cfg.IsProdLike() {
		return nil
	}

	var problems []string

	if len(cfg.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 characters in production/staging")
	}
	if _, isDev := devDefaultSecrets[strings.ToLower(cfg.JWTSecret)]; isDev {
		problems = append(problems, "JWT_SECRET must not be a development default")
	}
	if cfg.WSRequireAuth && cfg.RedisURL == "" {
		problems = append(problems, "REDIS_URL is required when WS_REQUIRE_AUTH=true")
	}
	if len(cfg.FrontendOrigins) == 0 {
		problems = append(problems, "FRONTEND_ORIGINS must be set in production/staging")
	}
	for _, o := range cfg.FrontendOrigins {
		if o == "*" {
			problems = append(problems, "FRONTEND_ORIGINS must not contain a wildcard in production/staging")
			break
		}
	}
	if cfg.EnableAIFeatures && cfg.AnthropicAPIKey == "" && cfg.OpenAIAPIKey == "" {
		problems = append(problems, "ENABLE_AI_FEATURES requires ANTHROPIC_API_KEY or OPENAI_API_KEY")
	}
	if cfg.EnableGoogleSearch && cfg.GoogleAPIKey == "" {
		problems = append(problems, "ENABLE_GOOGLE_SEARCH requires GOOGLE_API_KEY")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
