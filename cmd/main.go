package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"textport/internal/caching"
	"textport/internal/carrier"
	"textport/internal/config"
	"textport/internal/handlers"
	"textport/internal/jobs"
	"textport/internal/middleware"
	"textport/internal/repositories"
	"textport/internal/services"
	"textport/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	jwksURL := os.Getenv("JWKS_URL")
	if jwtSecret == "" && jwksURL == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Carrier/allocator configuration
	carrierCfg := config.DefaultCarrierConfig()
	if cfgPath := os.Getenv("CARRIER_CONFIG"); cfgPath != "" {
		carrierCfg, err = config.LoadCarrierConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load carrier config: %v", err)
		}
	}

	// Carrier vendor client (optional; sync job is skipped without it)
	var vendorClient carrier.Client
	if carrierCfg.Vendor.APIEndpoint != "" && carrierCfg.Vendor.APIKey != "" {
		vendorClient = carrier.NewVendorClient(
			carrierCfg.Vendor.APIEndpoint,
			carrierCfg.Vendor.APIKey,
			carrierCfg.Vendor.APISecret,
			carrierCfg.VendorTimeout(),
		)
	} else {
		log.Printf("No carrier vendor configured, vendor sync disabled")
	}

	// Create repositories
	numberRepo := repositories.NewPhoneNumberRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	allocatorSvc := services.NewAllocatorService(numberRepo, cacheSvc, carrierCfg.Cooldown())
	onboardingSvc := services.NewOnboardingService(allocatorSvc, tenantRepo, cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo)
	cancellationSvc := services.NewCancellationService(pool, carrierCfg.Cooldown())

	// Create handlers
	numberHandlers := handlers.NewNumberHandlers(allocatorSvc)
	onboardingHandlers := handlers.NewOnboardingHandlers(onboardingSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc, cancellationSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, version)

	// Background jobs
	scheduler, err := jobs.NewScheduler(allocatorSvc, vendorClient, carrierCfg)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Coverage lookup is public so the signup form can pre-check zips
	v1.GET("/coverage/:zip", onboardingHandlers.CheckCoverage)
	v1.GET("/plans", subscriptionHandlers.ListPlans)

	// Protected routes (require JWT)
	jwtConfig, err := middleware.NewJWTConfig(jwtSecret, jwksURL)
	if err != nil {
		log.Fatalf("Failed to configure JWT middleware: %v", err)
	}
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))

	// Tenant-facing routes
	protected.POST("/onboarding/number", onboardingHandlers.ProvisionNumber)
	protected.POST("/subscriptions", subscriptionHandlers.CreateSubscription)
	protected.GET("/subscriptions", subscriptionHandlers.ListSubscriptions)
	protected.GET("/subscriptions/:id", subscriptionHandlers.GetSubscription)
	protected.POST("/subscriptions/:id/cancel", subscriptionHandlers.CancelSubscription)

	// Operations routes (admin role)
	admin := protected.Group("/numbers", middleware.RequireAdmin())
	admin.GET("/search", numberHandlers.SearchNumbers)
	admin.GET("/stats", numberHandlers.Stats)
	admin.POST("/ingest", numberHandlers.IngestNumber)
	admin.GET("/:number", numberHandlers.GetNumber)
	admin.PUT("/:number/carrier", numberHandlers.SetCarrierNumberID)
	admin.POST("/:number/release", numberHandlers.ReleaseNumber)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("textport server v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
