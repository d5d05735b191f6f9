package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rentalhub/pricing-api/internal/cache"
	"github.com/rentalhub/pricing-api/internal/config"
	"github.com/rentalhub/pricing-api/internal/database"
	"github.com/rentalhub/pricing-api/internal/handler"
	"github.com/rentalhub/pricing-api/internal/middleware"
	"github.com/rentalhub/pricing-api/internal/repository"
	"github.com/rentalhub/pricing-api/internal/service"
)

// main is the application entrypoint for the rental pricing API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting pricing api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis for the price grid cache. The cache is optional:
	// without Redis every grid request hits the database.
	var gridCache *cache.GridCache
	if cfg.Redis.Host != "" {
		gc, err := cache.NewGridCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis connection failed - price grid cache disabled")
		} else {
			defer gc.Close()
			gridCache = gc
			log.Info().Msg("redis connected, price grid cache enabled")
		}
	}

	// 4. Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	defRepo := repository.NewPriceDefinitionRepository(db)
	priceRepo := repository.NewPriceRepository(db)

	// 5. Initialize services
	pricingSvc := service.NewPricingService(catalogRepo, defRepo, priceRepo, gridCache)
	importSvc := service.NewImportService(catalogRepo, defRepo, priceRepo, gridCache, cfg.Import.StrictUnitMatch)
	if cfg.Import.StrictUnitMatch {
		log.Info().Msg("strict unit match enabled: imports use each price definition's configured time unit")
	}

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(db),
		Pricing: handler.NewPricingHandler(pricingSvc),
		Import:  handler.NewImportHandler(importSvc),
	}

	// 7. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 8. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 9. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 10. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Pricing *handler.PricingHandler
	Import  *handler.ImportHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	pricing := router.Group("/v1/pricing")
	{
		pricing.GET("/rental-locations", handlers.Pricing.GetRentalLocations)
		pricing.GET("/rental-locations/:rental_location_id/rate-types", handlers.Pricing.GetRateTypes)
		pricing.GET("/season-definitions", handlers.Pricing.GetSeasonDefinitions)
		pricing.GET("/season-definitions/:season_definition_id/seasons", handlers.Pricing.GetSeasons)
		pricing.GET("/prices", handlers.Pricing.GetPrices)
		pricing.POST("/prices/import", handlers.Import.ImportPrices)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
