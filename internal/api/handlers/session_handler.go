package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

// SessionHandler mints guest sessions, runs the OAuth sign-in flow and
// serves the profile.
type SessionHandler struct {
	stores     *storage.Selector
	controller *syncer.Controller
	jwtService *auth.JWTService
	oauth      *auth.OAuthService
}

func NewSessionHandler(stores *storage.Selector, controller *syncer.Controller, jwtService *auth.JWTService, oauth *auth.OAuthService) *SessionHandler {
	return &SessionHandler{
		stores:     stores,
		controller: controller,
		jwtService: jwtService,
		oauth:      oauth,
	}
}

// CreateGuestSession godoc
// @Summary Start a guest session
// @Description Mint a guest identity backed by the local store; no account
// @Description required
// @Tags session
// @Produce json
// @Success 201 {object} dto.GuestSessionResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/session/guest [post]
func (h *SessionHandler) CreateGuestSession(c *gin.Context) {
	uid := "guest-" + uuid.NewString()

	p := profile.Profile{
		UID:         uid,
		DisplayName: "Guest",
		Guest:       true,
		Dashboard:   profile.DefaultDashboard(),
		Theme:       profile.ThemeAuto,
	}
	if err := h.stores.Local().PutProfile(c.Request.Context(), uid, p); err != nil {
		log.Error("Failed to persist guest profile", zap.String("uid", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create guest session"})
		return
	}

	token, err := h.jwtService.GenerateToken(uid, "", p.DisplayName, true)
	if err != nil {
		log.Error("Failed to sign guest token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create guest session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto.GuestSessionResponse{Token: token, Profile: p}})
}

// GetAuthURL godoc
// @Summary Get the OAuth authorization URL
// @Tags session
// @Produce json
// @Param provider path string true "OAuth provider name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Unknown provider"
// @Router /api/session/oauth/{provider} [get]
func (h *SessionHandler) GetAuthURL(c *gin.Context) {
	provider := c.Param("provider")
	url, state, err := h.oauth.GetAuthURL(provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"url": url, "state": state}})
}

// OAuthCallback godoc
// @Summary Complete the OAuth sign-in
// @Description Exchange the code, upsert the profile with the calendar
// @Description token and issue a session token
// @Tags session
// @Produce json
// @Param provider path string true "OAuth provider name"
// @Param code query string true "Authorization code"
// @Param state query string true "State token"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} map[string]string "Invalid callback"
// @Router /api/session/oauth/{provider}/callback [get]
func (h *SessionHandler) OAuthCallback(c *gin.Context) {
	provider := c.Param("provider")

	var req dto.OAuthCallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !auth.GetStateStore().ValidateState(req.State, provider) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired state"})
		return
	}

	oauthToken, err := h.oauth.Exchange(c.Request.Context(), provider, req.Code)
	if err != nil {
		log.Error("OAuth code exchange failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "code exchange failed"})
		return
	}

	info, err := h.oauth.GetUserInfo(c.Request.Context(), provider, oauthToken)
	if err != nil {
		log.Error("OAuth userinfo fetch failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not fetch user info"})
		return
	}

	uid := provider + "-" + info.ID
	ctx := c.Request.Context()

	p, err := h.stores.Remote().Profile(ctx, uid)
	if err != nil {
		fresh := profile.Profile{
			UID:         uid,
			DisplayName: info.Name,
			PhotoURL:    info.Picture,
			Email:       info.Email,
			Dashboard:   profile.DefaultDashboard(),
			Theme:       profile.ThemeAuto,
		}
		p = &fresh
	}
	// The access token doubles as the calendar token when the granted
	// scopes include calendar access.
	p.CalendarToken = oauthToken.AccessToken
	p.Guest = false
	if err := h.stores.Remote().PutProfile(ctx, uid, *p); err != nil {
		log.Error("Failed to persist profile", zap.String("uid", uid), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist profile"})
		return
	}

	// A stale working copy from a prior session kind must not linger.
	h.controller.Evict(uid)

	token, err := h.jwtService.GenerateToken(uid, p.Email, p.DisplayName, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue session token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.AuthResponse{Token: token, Profile: *p}})
}

// Logout godoc
// @Summary Sign out
// @Description Invalidate the current session token
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /api/session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	if token, exists := c.Get("token"); exists {
		if s, ok := token.(string); ok {
			auth.GetTokenBlacklist().AddToBlacklist(s, time.Now().Add(72*time.Hour))
		}
	}

	// A discarded guest session takes its on-disk data with it.
	if uid, ok := middleware.GetUID(c); ok && middleware.IsGuest(c) {
		if eraser, isEraser := h.stores.Local().(storage.Eraser); isEraser {
			if err := eraser.Erase(c.Request.Context(), uid); err != nil {
				log.Warn("Failed to erase guest data", zap.String("uid", uid), zap.Error(err))
			}
		}
		h.controller.Evict(uid)
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GetProfile godoc
// @Summary Get the current profile
// @Tags session
// @Produce json
// @Security BearerAuth
// @Success 200 {object} profile.Profile
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /api/session/profile [get]
func (h *SessionHandler) GetProfile(c *gin.Context) {
	_, p, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": profile.ErrProfileNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// UpdateProfile godoc
// @Summary Update profile preferences
// @Tags session
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body dto.UpdateProfileRequest true "Profile update request"
// @Success 200 {object} profile.Profile
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /api/session/profile [put]
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, p, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": profile.ErrProfileNotFound.Error()})
		return
	}

	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Theme != nil {
		p.Theme = *req.Theme
	}
	if req.BriefingStyle != nil {
		p.Dashboard.BriefingStyle = *req.BriefingStyle
	}
	if req.Avatar != nil {
		p.Avatar = req.Avatar
	}

	if err := h.stores.For(sess).PutProfile(c.Request.Context(), sess.UID, *p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}
