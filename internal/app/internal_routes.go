package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerInternalRoutes mounts the unauthenticated operator endpoints:
// a liveness probe and a snapshot of the gateway Hub's connection counts.
func registerInternalRoutes(engine *gin.Engine, a *App) {
	internalGroup := engine.Group("/internal")
	internalGroup.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	internalGroup.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.hub.StatsSnapshot())
	})
}
