package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	LocalStore LocalStoreConfig `mapstructure:"local_store"`
	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Weather    WeatherConfig    `mapstructure:"weather"`
}

type ServerConfig struct {
	Port    int           `mapstructure:"port" default:"8000"`
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret       string                    `mapstructure:"jwt_secret"`
	JWTExpiryHours  int                       `mapstructure:"jwt_expiry_hours"`
	JWTIssuer       string                    `mapstructure:"jwt_issuer"`
	OAuth2Providers map[string]ProviderConfig `mapstructure:"oauth2_providers"`
}

type ProviderConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RedirectURL  string   `mapstructure:"redirect_url"`
	Scopes       []string `mapstructure:"scopes"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	UserInfoURL  string   `mapstructure:"userinfo_url"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LocalStoreConfig configures the on-disk store backing guest sessions.
type LocalStoreConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// CalendarConfig configures the external calendar provider API.
type CalendarConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// CalendarID is the provider-side calendar the service reads and mirrors
	// into; "primary" unless overridden.
	CalendarID string        `mapstructure:"calendar_id"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// AssistantConfig configures the generative-language backend.
type AssistantConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WeatherConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// If CONFIG_FILE environment variable is set, use it
	if envConfigFile := os.Getenv("CONFIG_FILE"); envConfigFile != "" {
		configPath = envConfigFile
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		dir := filepath.Dir(configPath)
		file := filepath.Base(configPath)
		ext := filepath.Ext(file)
		name := strings.TrimSuffix(file, ext)

		v.AddConfigPath(dir)
		v.SetConfigName(name)
	} else {
		// Fallback to default locations
		_, filename, _, _ := runtime.Caller(0)
		pkgConfigDir := filepath.Dir(filename)
		projectRoot := filepath.Join(pkgConfigDir, "..", "..")

		v.AddConfigPath(pkgConfigDir)
		v.AddConfigPath(projectRoot)
		v.AddConfigPath(filepath.Join(projectRoot, "pkg", "config"))
		v.SetConfigName("config")
	}

	v.SetDefault("server.port", 8000)
	v.SetDefault("calendar.base_url", "https://www.googleapis.com/calendar/v3")
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("calendar.timeout", 15*time.Second)
	v.SetDefault("assistant.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("assistant.model", "gemini-2.0-flash")
	v.SetDefault("assistant.timeout", 30*time.Second)
	v.SetDefault("weather.base_url", "https://api.open-meteo.com/v1")
	v.SetDefault("weather.timeout", 10*time.Second)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error loading config file: %v", err)
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override with environment variables if they exist
	envVars := map[string]string{
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
		"database.name":     "DB_NAME",
		"database.sslmode":  "DB_SSLMODE",
		"server.mode":       "SERVER_MODE",
		"server.timeout":    "SERVER_TIMEOUT",
		"redis.host":        "REDIS_HOST",
		"redis.port":        "REDIS_PORT",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"auth.jwt_secret":   "JWT_SECRET",
		"auth.jwt_issuer":   "JWT_ISSUER",
		"auth.jwt_expiry_hours": "JWT_EXPIRY_HOURS",
		"auth.oauth2_providers.google.client_id":     "OAUTH2_GOOGLE_CLIENT_ID",
		"auth.oauth2_providers.google.client_secret": "OAUTH2_GOOGLE_CLIENT_SECRET",
		"auth.oauth2_providers.google.redirect_url":  "OAUTH2_GOOGLE_REDIRECT_URL",
		"local_store.base_path":                      "LOCAL_STORE_PATH",
		"calendar.base_url":                          "CALENDAR_BASE_URL",
		"assistant.base_url":                         "ASSISTANT_BASE_URL",
		"assistant.model":                            "ASSISTANT_MODEL",
		"assistant.api_key":                          "ASSISTANT_API_KEY",
		"weather.base_url":                           "WEATHER_BASE_URL",
		"logging.level":                              "LOG_LEVEL",
		"logging.format":                             "LOG_FORMAT",
	}

	for configKey, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			// Handle special cases for type conversion
			switch envVar {
			case "DB_PORT", "REDIS_PORT", "JWT_EXPIRY_HOURS":
				if intVal, err := strconv.Atoi(value); err == nil {
					v.Set(configKey, intVal)
				}
			case "SERVER_TIMEOUT":
				if d, err := time.ParseDuration(value); err == nil {
					v.Set(configKey, d)
				}
			default:
				v.Set(configKey, value)
			}
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}

	return &config, nil
}
