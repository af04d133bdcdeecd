package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/analytics"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/api"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/config"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/database"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/fx"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/repository"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/scheduler"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	rateRepo := repository.NewRateRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	systemService := service.NewSystemService(db)

	settingsService, err := service.NewSettingsService(db, cfg.Security.SettingsEncryptionKey)
	if err != nil {
		log.Fatalf("Failed to initialize settings: %v", err)
	}

	providerKey, err := settingsService.GetFXProviderKey()
	if err != nil && !errors.Is(err, apperrors.ErrSettingNotFound) {
		log.Fatalf("Failed to read FX provider key: %v", err)
	}

	// FX resolution: stored rows first, live provider as fallback
	rateSource := fx.NewFrankfurterClient(cfg.FX.ProviderURL, providerKey)
	resolver := fx.NewResolver(rateRepo, rateSource, fx.Options{
		BaseCurrency: cfg.FX.BaseCurrency,
		CacheTTL:     cfg.FX.CacheTTL,
		FetchTimeout: cfg.FX.FetchTimeout,
	})

	// Analytics engines
	valuationEngine := analytics.NewValuationEngine(resolver)
	riskCalculator := analytics.NewRiskCalculator(analytics.RiskConfig{
		AnnualizationFactor: cfg.Analytics.AnnualizationFactor,
		VaRConfidence:       cfg.Analytics.VaRConfidence,
		MinVaRObservations:  cfg.Analytics.MinVaRObservations,
	})
	assessor := analytics.NewAssessor(analytics.AssessorConfig{
		FreshnessCriticalDays: cfg.Analytics.FreshnessCriticalDays,
		ExpectedAssetCount:    cfg.Analytics.ExpectedAssetCount,
		Weights:               cfg.Analytics.QualityWeights,
		RefreshThreshold:      cfg.Analytics.RefreshThreshold,
		TargetSectorCount:     cfg.Analytics.TargetSectorCount,
		TargetRegionCount:     cfg.Analytics.TargetRegionCount,
	})

	// Create services
	analyticsService := service.NewAnalyticsService(
		db,
		portfolioRepo,
		priceRepo,
		allocationRepo,
		snapshotRepo,
		valuationEngine,
		riskCalculator,
		assessor,
	)
	rateService := service.NewRateService(db, rateRepo, rateSource, cfg.FX.BaseCurrency)

	// Scheduled maintenance: hourly rate refresh, nightly recompute
	sched, err := scheduler.New(rateService, analyticsService)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	router := api.NewRouter(systemService, analyticsService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
