package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type AssistantRoutes struct {
	handler    *handlers.AssistantHandler
	jwtService *auth.JWTService
	limiter    auth.RateLimiter
}

func NewAssistantRoutes(handler *handlers.AssistantHandler, jwtService *auth.JWTService, limiter auth.RateLimiter) *AssistantRoutes {
	return &AssistantRoutes{handler: handler, jwtService: jwtService, limiter: limiter}
}

// RegisterRoutes registers assistant routes. Every call here spends tokens
// on the generative backend, so the group is rate limited and the
// deterministic GETs are served from the response cache when possible.
func (r *AssistantRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	assistant := router.Group("/api/assistant")
	assistant.Use(middleware.NewAuthMiddleware(r.jwtService))
	if r.limiter != nil {
		assistant.Use(middleware.RateLimitMiddleware(r.limiter.WithLimit(30, time.Minute)))
	}

	assistant.POST("/chat", r.handler.Chat)
	assistant.GET("/briefing", cache.CacheResponse(), r.handler.Briefing)
	assistant.GET("/suggestions", cache.CacheResponse(), r.handler.Suggestions)
	assistant.POST("/plan", r.handler.Plan)
}
