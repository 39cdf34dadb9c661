package routes

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type DashboardRoutes struct {
	handler    *handlers.DashboardHandler
	jwtService *auth.JWTService
}

func NewDashboardRoutes(handler *handlers.DashboardHandler, jwtService *auth.JWTService) *DashboardRoutes {
	return &DashboardRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers dashboard routes. The websocket stream carries
// its token in the query string and authenticates itself.
func (r *DashboardRoutes) RegisterRoutes(router *gin.Engine) {
	dashboard := router.Group("/api/dashboard")

	dashboard.GET("/ws", r.handler.StreamDashboard)

	authed := dashboard.Group("")
	authed.Use(middleware.NewAuthMiddleware(r.jwtService))
	authed.GET("", gzip.Gzip(gzip.DefaultCompression), r.handler.GetDashboard)
	authed.PUT("/config", r.handler.UpdateConfig)
}
