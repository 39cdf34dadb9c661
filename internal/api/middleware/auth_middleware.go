package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/pkg/logger"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

var log = logger.NewLogger()

const bearerSchema = "Bearer "

// NewAuthMiddleware validates the bearer token and stores the session
// identity in the request context. Guest tokens pass like any other; the
// guest flag decides which backend serves the request downstream.
func NewAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}
		tokenString := authHeader[len(bearerSchema):]

		if auth.GetTokenBlacklist().IsBlacklisted(tokenString) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token has been invalidated"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("uid", claims.UID)
		c.Set("guest", claims.Guest)
		c.Set("email", claims.Email)
		c.Set("token", tokenString)
		c.Next()
	}
}

// GetUID retrieves the authenticated session's uid from the context.
func GetUID(c *gin.Context) (string, bool) {
	uid, exists := c.Get("uid")
	if !exists {
		return "", false
	}
	s, ok := uid.(string)
	return s, ok && s != ""
}

// IsGuest reports whether the request carries a guest session.
func IsGuest(c *gin.Context) bool {
	guest, exists := c.Get("guest")
	if !exists {
		return false
	}
	b, ok := guest.(bool)
	return ok && b
}

// RateLimitMiddleware bounds per-client request rates using Redis.
func RateLimitMiddleware(limiter auth.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", c.ClientIP(), c.Request.URL.Path)

		allowed, remaining, resetTime, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error("Rate limiter error", zap.Error(err))
			// Limiter outage must not take the API down with it.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", resetTime.String())

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":    "rate limit exceeded",
				"reset_in": time.Until(resetTime).String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
