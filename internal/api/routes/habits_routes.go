package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type HabitsRoutes struct {
	handler    *handlers.HabitsHandler
	jwtService *auth.JWTService
}

func NewHabitsRoutes(handler *handlers.HabitsHandler, jwtService *auth.JWTService) *HabitsRoutes {
	return &HabitsRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers all habit-related routes. Toggling invalidates
// the goals cache too since linked goals move with the toggle.
func (r *HabitsRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	habits := router.Group("/api/habits")
	habits.Use(middleware.NewAuthMiddleware(r.jwtService))

	habits.GET("", gzip.Gzip(gzip.DefaultCompression), cache.CacheResponse(), r.handler.ListHabits)
	habits.POST("", cache.CacheInvalidate("habits"), r.handler.CreateHabit)
	habits.PUT("/:id", cache.CacheInvalidate("habits"), r.handler.UpdateHabit)
	habits.DELETE("/:id", cache.CacheInvalidate("habits"), r.handler.DeleteHabit)

	habits.POST("/:id/toggle", cache.CacheInvalidate("habits", "goals"), r.handler.ToggleHabit)
}
