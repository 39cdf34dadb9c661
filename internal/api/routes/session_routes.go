package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

type SessionRoutes struct {
	handler    *handlers.SessionHandler
	jwtService *auth.JWTService
}

func NewSessionRoutes(handler *handlers.SessionHandler, jwtService *auth.JWTService) *SessionRoutes {
	return &SessionRoutes{handler: handler, jwtService: jwtService}
}

// RegisterRoutes registers session and sign-in routes. Guest minting and
// the OAuth flow are the only unauthenticated API endpoints.
func (r *SessionRoutes) RegisterRoutes(router *gin.Engine) {
	session := router.Group("/api/session")

	session.POST("/guest", r.handler.CreateGuestSession)
	session.GET("/oauth/:provider", r.handler.GetAuthURL)
	session.GET("/oauth/:provider/callback", r.handler.OAuthCallback)

	authed := session.Group("")
	authed.Use(middleware.NewAuthMiddleware(r.jwtService))
	authed.POST("/logout", r.handler.Logout)
	authed.GET("/profile", r.handler.GetProfile)
	authed.PUT("/profile", r.handler.UpdateProfile)
}
