package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type GoalsRoutes struct {
	handler    *handlers.GoalsHandler
	jwtService *auth.JWTService
}

func NewGoalsRoutes(handler *handlers.GoalsHandler, jwtService *auth.JWTService) *GoalsRoutes {
	return &GoalsRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers all goal-related routes
func (r *GoalsRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	goals := router.Group("/api/goals")
	goals.Use(middleware.NewAuthMiddleware(r.jwtService))

	goals.GET("", gzip.Gzip(gzip.DefaultCompression), cache.CacheResponse(), r.handler.ListGoals)
	goals.POST("", cache.CacheInvalidate("goals"), r.handler.CreateGoal)
	goals.PUT("/:id", cache.CacheInvalidate("goals"), r.handler.UpdateGoal)
	goals.DELETE("/:id", cache.CacheInvalidate("goals"), r.handler.DeleteGoal)

	goals.POST("/:id/increment", cache.CacheInvalidate("goals"), r.handler.IncrementGoal)
	goals.POST("/:id/decrement", cache.CacheInvalidate("goals"), r.handler.DecrementGoal)
	goals.POST("/:id/subgoals/:subgoalId/toggle", cache.CacheInvalidate("goals"), r.handler.ToggleSubgoal)
}
