// Package weather fetches current conditions from the forecast API and
// collapses the provider's weather codes into the dashboard's five
// conditions. A failed fetch means the dashboard simply shows no weather.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ewellner/daybridge/pkg/config"
)

// Condition is one of the dashboard's weather buckets.
type Condition string

const (
	ConditionClear  Condition = "Clear"
	ConditionCloudy Condition = "Cloudy"
	ConditionRain   Condition = "Rain"
	ConditionSnow   Condition = "Snow"
	ConditionStorm  Condition = "Storm"
)

// Report is the current conditions at a location.
type Report struct {
	Temperature float64   `json:"temperature"`
	Condition   Condition `json:"condition"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Current fetches conditions for a coordinate pair in a single request.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Report, error) {
	endpoint := fmt.Sprintf("%s/forecast?latitude=%.4f&longitude=%.4f&current_weather=true", c.baseURL, lat, lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: provider returned %s", resp.Status)
	}

	var out forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}

	return &Report{
		Temperature: out.CurrentWeather.Temperature,
		Condition:   MapCode(out.CurrentWeather.WeatherCode),
	}, nil
}

// MapCode buckets a WMO weather code into a dashboard condition.
func MapCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 48:
		return ConditionCloudy
	case code >= 51 && code <= 67:
		return ConditionRain
	case code >= 71 && code <= 77:
		return ConditionSnow
	case code >= 80 && code <= 82:
		return ConditionRain
	case code >= 85 && code <= 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionCloudy
	}
}
