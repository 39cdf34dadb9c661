// Package handlers contains the HTTP handlers for the dashboard API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/pkg/logger"
)

var log = logger.NewLogger()

// sessionFrom builds the storage session for the authenticated request. The
// profile is loaded from the session's backend to pick up the calendar
// token; a missing profile yields a session without one.
func sessionFrom(c *gin.Context, stores *storage.Selector) (storage.Session, *profile.Profile, bool) {
	uid, ok := middleware.GetUID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return storage.Session{}, nil, false
	}

	sess := storage.Session{UID: uid, Guest: middleware.IsGuest(c)}

	p, err := stores.For(sess).Profile(c.Request.Context(), uid)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("Profile load failed", zap.String("uid", uid), zap.Error(err))
		}
		return sess, nil, true
	}
	sess.CalendarToken = p.CalendarToken
	return sess, p, true
}
