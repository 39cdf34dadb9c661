package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/pkg/config"
)

func TestMapCode(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected Condition
	}{
		{name: "clear sky", code: 0, expected: ConditionClear},
		{name: "partly cloudy", code: 2, expected: ConditionCloudy},
		{name: "fog", code: 45, expected: ConditionCloudy},
		{name: "drizzle", code: 53, expected: ConditionRain},
		{name: "freezing rain", code: 67, expected: ConditionRain},
		{name: "snowfall", code: 73, expected: ConditionSnow},
		{name: "rain showers", code: 81, expected: ConditionRain},
		{name: "snow showers", code: 86, expected: ConditionSnow},
		{name: "thunderstorm", code: 95, expected: ConditionStorm},
		{name: "thunderstorm with hail", code: 99, expected: ConditionStorm},
		{name: "unknown gap code", code: 50, expected: ConditionCloudy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapCode(tt.code))
		})
	}
}

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "52.5200", r.URL.Query().Get("latitude"))
		assert.Equal(t, "13.4050", r.URL.Query().Get("longitude"))
		assert.Equal(t, "true", r.URL.Query().Get("current_weather"))
		w.Write([]byte(`{"current_weather":{"temperature":18.3,"weathercode":61}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WeatherConfig{BaseURL: srv.URL}, zap.NewNop())
	report, err := client.Current(context.Background(), 52.52, 13.405)
	require.NoError(t, err)
	assert.Equal(t, 18.3, report.Temperature)
	assert.Equal(t, ConditionRain, report.Condition)
}

func TestCurrentProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.WeatherConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := client.Current(context.Background(), 0, 0)
	assert.Error(t, err)
}
