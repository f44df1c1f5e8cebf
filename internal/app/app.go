// Package app wires every module together into one gin.Engine: config,
// logging, Redis, JWT, the LLM client, the job store, the WS gateway, the
// assistant narrator, the route2 pipeline, and the HTTP surface. Grounded
// on the donor's internal/app bootstrap (NewApp building one dependency
// graph by hand, no DI container).
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/restaurant-bff/core/internal/config"
	"github.com/restaurant-bff/core/internal/middleware"
	"github.com/restaurant-bff/core/internal/modules/assistant"
	"github.com/restaurant-bff/core/internal/modules/asyncrunner"
	"github.com/restaurant-bff/core/internal/modules/authticket"
	"github.com/restaurant-bff/core/internal/modules/gateway"
	"github.com/restaurant-bff/core/internal/modules/jobstore"
	"github.com/restaurant-bff/core/internal/modules/photos"
	"github.com/restaurant-bff/core/internal/modules/route2"
	jwtpkg "github.com/restaurant-bff/core/internal/pkg/jwt"
	"github.com/restaurant-bff/core/internal/pkg/llm"
	"github.com/restaurant-bff/core/internal/pkg/ratelimit"
	"github.com/restaurant-bff/core/internal/pkg/redis"
)

// App owns every long-lived component and the gin.Engine serving them.
type App struct {
	Config *config.AppConfig
	Logger *zap.Logger
	Engine *gin.Engine

	redisClient *redis.Client
	hub         *gateway.Hub
}

// New builds the full dependency graph per SPEC_FULL's ambient + domain
// stack. photoProvider may be nil in configurations that never mount the
// photo route (e.g. ENABLE_GOOGLE_SEARCH=false deployments).
func New(cfg *config.AppConfig, logger *zap.Logger, googleMaps route2.GoogleMapsClient, photoProvider photos.Provider) (*App, error) {
	var rdb redis.KV
	var rawClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rdb = client
		rawClient = client
	} else {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	verifier := jwtpkg.New(cfg.JWTSecret)
	llmClient := llm.NewClient(cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
	jobs := jobstore.New(rdb)
	tickets := authticket.New(verifier, rdb)

	hub := gateway.NewHub(logger, rawClient, jobs)
	wsHandler := gateway.NewHandler(hub, tickets, cfg.FrontendOrigins, !cfg.IsProdLike())

	assistantService := assistant.New(llmClient, cfg, logger)
	assistantPublisher := newAssistantAdapter(assistantService)

	orchestrator := route2.NewOrchestrator(logger)
	runner := asyncrunner.New(jobs, orchestrator, hub, logger)
	searchHandler := asyncrunner.NewHandler(jobs, runner, cfg, llmClient, googleMaps, hub, assistantPublisher)

	httpLimiter := ratelimit.NewHTTPLimiter(rdb, "bff:ratelimit:search:", 100, time.Minute)
	photoLimiter := ratelimit.NewHTTPLimiter(rdb, "bff:ratelimit:photos:", 30, time.Minute)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Logger(logger))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(cfg),
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	v1 := engine.Group("/api/v1")
	tickets.RegisterRoutes(v1)

	authed := v1.Group("", middleware.Auth(verifier))
	authed.Use(rateLimitMiddleware(httpLimiter))
	searchHandler.RegisterRoutes(authed, rdb)

	if photoProvider != nil {
		photoHandler := photos.NewHandler(photoProvider, photoLimiter)
		photoHandler.RegisterRoutes(v1)
	}

	engine.GET("/ws", wsHandler.ServeHTTP)

	a := &App{Config: cfg, Logger: logger, Engine: engine, redisClient: rawClient, hub: hub}
	registerInternalRoutes(engine, a)
	return a, nil
}

// RunHub starts the gateway Hub's single owning goroutine; callers must
// call this once before serving traffic and cancel ctx on shutdown.
func (a *App) RunHub(ctx context.Context) {
	a.hub.Run(ctx)
}

func corsOrigins(cfg *config.AppConfig) []string {
	if len(cfg.FrontendOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.FrontendOrigins
}

func rateLimitMiddleware(limiter *ratelimit.HTTPLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": "rate limit check failed"})
			return
		}
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "RATE_LIMIT_EXCEEDED", "message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
