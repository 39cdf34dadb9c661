package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/api/dto"
	"github.com/ewellner/daybridge/internal/domain/events"
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/infrastructure/cache"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/internal/weather"
	"github.com/ewellner/daybridge/pkg/security/auth"
)

// DashboardHandler serves the aggregated dashboard payload and the
// websocket change stream.
type DashboardHandler struct {
	controller *syncer.Controller
	stores     *storage.Selector
	weather    *weather.Client
	cache      *cache.RedisClient
	jwtService *auth.JWTService
	upgrader   websocket.Upgrader
}

func NewDashboardHandler(controller *syncer.Controller, stores *storage.Selector, weatherClient *weather.Client, redisClient *cache.RedisClient, jwtService *auth.JWTService) *DashboardHandler {
	return &DashboardHandler{
		controller: controller,
		stores:     stores,
		weather:    weatherClient,
		cache:      redisClient,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// GetDashboard godoc
// @Summary Get the full dashboard
// @Description State snapshot, profile and current weather in one payload;
// @Description weather is omitted when the fetch fails
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param lat query number false "Latitude for weather"
// @Param lon query number false "Longitude for weather"
// @Success 200 {object} dto.DashboardResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	sess, p, ok := sessionFrom(c, h.stores)
	if !ok {
		return
	}

	snap, err := h.controller.Load(c.Request.Context(), sess)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.DashboardResponse{State: snap}
	if p != nil {
		resp.Profile = *p
	} else {
		resp.Profile = profile.Profile{UID: sess.UID, Guest: sess.Guest, Dashboard: profile.DefaultDashboard()}
	}

	if latStr, lonStr := c.Query("lat"), c.Query("lon"); latStr != "" && lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr == nil && lonErr == nil {
			report, err := h.weather.Current(c.Request.Context(), lat, lon)
			if err != nil {
				log.Warn("Weather fetch failed", zap.Error(err))
			} else {
				resp.Weather = report
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdateConfig godoc
// @Summary Update the dashboard layout
// @Tags dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param config body dto.UpdateDashboardConfigRequest true "Layout update request"
// @Success 200 {object} profile.DashboardConfig
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/dashboard/config [put]
func (h *DashboardHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateDashboardConfigRequest
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

	p.Dashboard.Sections = req.Sections
	if req.BriefingStyle != "" {
		p.Dashboard.BriefingStyle = req.BriefingStyle
	}
	if err := h.stores.For(sess).PutProfile(c.Request.Context(), sess.UID, *p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.cache.PublishDashboardEvent(c.Request.Context(),
		events.NewDashboardEvent(sess.UID, events.EventProfileChanged, p.Dashboard)); err != nil {
		log.Warn("Failed to publish dashboard event", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"data": p.Dashboard})
}

// StreamDashboard upgrades to a websocket and pushes dashboard change
// events for the session's user. The token rides in the query string since
// browsers cannot set headers on websocket dials.
func (h *DashboardHandler) StreamDashboard(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	uid := claims.UID

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", zap.String("uid", uid), zap.Error(err))
		return
	}
	defer ws.Close()

	ws.SetReadLimit(10 * 1024)
	ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	eventCh := make(chan *events.DashboardEvent, 16)
	go func() {
		err := h.cache.SubscribeToDashboardEvents(ctx, func(ev *events.DashboardEvent) error {
			if ev.UserID != uid {
				return nil
			}
			select {
			case eventCh <- ev:
			default:
				// Slow consumer; drop rather than block the subscription.
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			log.Warn("Dashboard event subscription ended", zap.String("uid", uid), zap.Error(err))
		}
		cancel()
	}()

	// Drain the read side so close frames and pongs are processed.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case ev := <-eventCh:
			if err := ws.WriteJSON(ev); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
