package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type WeatherRoutes struct {
	handler    *handlers.WeatherHandler
	jwtService *auth.JWTService
}

func NewWeatherRoutes(handler *handlers.WeatherHandler, jwtService *auth.JWTService) *WeatherRoutes {
	return &WeatherRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers the weather route. Responses cache for ten
// minutes; conditions do not move faster than that.
func (r *WeatherRoutes) RegisterRoutes(router *gin.Engine, cache *middleware.CacheMiddleware) {
	weather := router.Group("/api/weather")
	weather.Use(middleware.NewAuthMiddleware(r.jwtService))

	weather.GET("", cache.CacheResponse(), r.handler.GetWeather)
}
