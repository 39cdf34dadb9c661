package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type CalendarRoutes struct {
	handler    *handlers.CalendarHandler
	jwtService *auth.JWTService
}

func NewCalendarRoutes(handler *handlers.CalendarHandler, jwtService *auth.JWTService) *CalendarRoutes {
	return &CalendarRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers calendar event routes
func (r *CalendarRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	calendar := router.Group("/api/calendar")
	calendar.Use(middleware.NewAuthMiddleware(r.jwtService))

	calendar.GET("/events", gzip.Gzip(gzip.DefaultCompression), cache.CacheResponse(), r.handler.ListEvents)
	calendar.POST("/events", cache.CacheInvalidate("calendar"), r.handler.CreateEvent)
	calendar.POST("/events/batch", cache.CacheInvalidate("calendar"), r.handler.BatchCreateEvents)
	calendar.PUT("/events/:id", cache.CacheInvalidate("calendar"), r.handler.UpdateEvent)
	calendar.DELETE("/events/:id", cache.CacheInvalidate("calendar"), r.handler.DeleteEvent)

	calendar.POST("/refresh", cache.CacheInvalidate("calendar"), r.handler.RefreshCalendar)
}
