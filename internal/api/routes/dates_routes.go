package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type DatesRoutes struct {
	handler    *handlers.DatesHandler
	jwtService *auth.JWTService
}

func NewDatesRoutes(handler *handlers.DatesHandler, jwtService *auth.JWTService) *DatesRoutes {
	return &DatesRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers important-date routes
func (r *DatesRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	dates := router.Group("/api/dates")
	dates.Use(middleware.NewAuthMiddleware(r.jwtService))

	dates.GET("", cache.CacheResponse(), r.handler.ListDates)
	dates.POST("", cache.CacheInvalidate("dates"), r.handler.CreateDate)
	dates.PUT("/:id", cache.CacheInvalidate("dates"), r.handler.UpdateDate)
	dates.DELETE("/:id", cache.CacheInvalidate("dates"), r.handler.DeleteDate)
}
