package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ewellner/daybridge/docs" // swagger docs
	"github.com/ewellner/daybridge/internal/api/handlers"
	"github.com/ewellner/daybridge/internal/api/middleware"
	"github.com/ewellner/daybridge/internal/api/routes"
	"github.com/ewellner/daybridge/internal/assistant"
	"github.com/ewellner/daybridge/internal/infrastructure/cache"
	"github.com/ewellner/daybridge/internal/infrastructure/persistence/postgres/connection"
	"github.com/ewellner/daybridge/internal/infrastructure/persistence/postgres/migrations"
	"github.com/ewellner/daybridge/internal/infrastructure/scheduler"
	"github.com/ewellner/daybridge/internal/provider/gcal"
	"github.com/ewellner/daybridge/internal/storage"
	"github.com/ewellner/daybridge/internal/storage/localstore"
	"github.com/ewellner/daybridge/internal/storage/remotestore"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/internal/weather"
	"github.com/ewellner/daybridge/pkg/config"
	"github.com/ewellner/daybridge/pkg/logger"
	"github.com/ewellner/daybridge/pkg/security/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Daybridge API
// @version         1.0
// @description     A personal productivity dashboard API with goals, habits, calendar sync and an AI assistant.

// @host      localhost:8000
// @BasePath

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// RequestLoggerMiddleware logs all incoming HTTP requests
func RequestLoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("Request completed",
			zap.String("path", path),
			zap.String("method", method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("") // Empty string will make it search in default locations
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	for provider := range cfg.Auth.OAuth2Providers {
		log.Info("OAuth2 provider configured", zap.String("provider", provider))
	}

	// Set up Gin
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: append(cfg.CORS.AllowedHeaders,
			"Accept-Encoding",
			"Content-Encoding",
			"Content-Type",
			"Authorization",
		),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Encoding",
			"Content-Type",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Vary",
		},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.NewMetricsMiddleware().CollectMetrics())

	// Add Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Connect to database
	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run database migrations
	if err := migrations.AutoMigrate(db, log.Logger); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis
	redisConfig := cache.NewConfigFromEnv(cfg)
	redisClient, err := cache.NewRedisClient(redisConfig)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Initialize rate limiter with Redis client
	rateLimiter := auth.NewRedisRateLimiter(redisClient.GetClient(), 1*time.Minute, 1000)

	// Create cache middleware instance
	cacheMiddleware := middleware.NewCacheMiddleware(redisClient, "daybridge", 5*time.Minute)

	// Initialize the storage backends. Guest sessions live on disk, signed-in
	// users in Postgres.
	localStore := localstore.New(cfg.LocalStore.BasePath)
	remoteStore := remotestore.New(db)
	stores := storage.NewSelector(localStore, remoteStore)

	// Initialize the calendar provider and the sync controller on top of it
	calendarProvider := gcal.NewClient(cfg.Calendar, log.Logger)
	controller := syncer.NewController(stores, calendarProvider, log.Logger)

	// Initialize logrus logger for the assistant service
	assistantLogger := logrus.New()
	assistantLogger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "production" {
		assistantLogger.SetLevel(logrus.InfoLevel)
	} else {
		assistantLogger.SetLevel(logrus.DebugLevel)
	}

	assistantClient := assistant.NewClient(cfg.Assistant, assistantLogger)
	assistantService := assistant.NewService(assistantClient, controller, assistantLogger)

	weatherClient := weather.NewClient(cfg.Weather, log.Logger)

	// Initialize auth services
	jwtService := auth.NewJWTService(cfg)
	oauthService := auth.NewOAuthService(cfg)

	// Initialize and start the background scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	scheduler.NewScheduler(controller, remoteStore, log).Start(schedCtx)
	log.Info("Background scheduler started successfully")

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(stores, controller, jwtService, oauthService)
	goalsHandler := handlers.NewGoalsHandler(controller, stores)
	habitsHandler := handlers.NewHabitsHandler(controller, stores)
	datesHandler := handlers.NewDatesHandler(controller, stores)
	calendarHandler := handlers.NewCalendarHandler(controller, stores)
	assistantHandler := handlers.NewAssistantHandler(assistantService, stores)
	dashboardHandler := handlers.NewDashboardHandler(controller, stores, weatherClient, redisClient, jwtService)
	weatherHandler := handlers.NewWeatherHandler(weatherClient)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Register routes
	routes.NewSessionRoutes(sessionHandler, jwtService).RegisterRoutes(router)
	routes.NewGoalsRoutes(goalsHandler, jwtService).RegisterRoutes(router, cacheMiddleware)
	routes.NewHabitsRoutes(habitsHandler, jwtService).RegisterRoutes(router, cacheMiddleware)
	routes.NewDatesRoutes(datesHandler, jwtService).RegisterRoutes(router, cacheMiddleware)
	routes.NewCalendarRoutes(calendarHandler, jwtService).RegisterRoutes(router, cacheMiddleware)
	routes.NewAssistantRoutes(assistantHandler, jwtService, rateLimiter).RegisterRoutes(router, cacheMiddleware)
	routes.NewDashboardRoutes(dashboardHandler, jwtService).RegisterRoutes(router)
	routes.NewWeatherRoutes(weatherHandler, jwtService).RegisterRoutes(router, cacheMiddleware)
	routes.SetupHealthRoutes(router, db, redisClient)

	log.Info("Routes registered successfully")

	// Start server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
		log.Info("Swagger documentation available at http://localhost:8000/swagger/index.html")

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited properly")
}
