package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/infrastructure/cache"
	"github.com/ewellner/daybridge/internal/infrastructure/persistence/postgres/connection"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Timestamp time.Time         `json:"timestamp" example:"2025-04-17T02:00:00Z"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// SetupHealthRoutes registers health check endpoints. Liveness always
// answers; readiness probes Postgres and Redis.
func SetupHealthRoutes(router *gin.Engine, db *connection.Database, redisClient *cache.RedisClient) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
		})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		checks := make(map[string]string)
		status := http.StatusOK

		if db != nil {
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["postgres"] = "ok"
			}
		}
		if redisClient != nil {
			if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
				checks["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["redis"] = "ok"
			}
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not ready"
		}
		c.JSON(status, HealthResponse{
			Status:    state,
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	})

	router.GET("/health/cache", func(c *gin.Context) {
		if redisClient == nil || !redisClient.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"metrics": redisClient.ExportMetrics(),
		})
	})
}
