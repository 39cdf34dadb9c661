package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ewellner/daybridge/internal/weather"
)

// WeatherHandler serves current conditions for the dashboard header.
type WeatherHandler struct {
	client *weather.Client
}

func NewWeatherHandler(client *weather.Client) *WeatherHandler {
	return &WeatherHandler{client: client}
}

// GetWeather godoc
// @Summary Get current weather
// @Tags weather
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} weather.Report
// @Failure 400 {object} map[string]string "Invalid coordinates"
// @Failure 502 {object} map[string]string "Provider unavailable"
// @Router /api/weather [get]
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})
		return
	}

	report, err := h.client.Current(c.Request.Context(), lat, lon)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "weather provider unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}
