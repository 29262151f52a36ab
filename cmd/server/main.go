package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/moshtv/moshport/internal/api"
	"github.com/moshtv/moshport/internal/assets"
	"github.com/moshtv/moshport/internal/auth"
	"github.com/moshtv/moshport/internal/cache"
	"github.com/moshtv/moshport/internal/config"
	"github.com/moshtv/moshport/internal/database"
	"github.com/moshtv/moshport/internal/embed"
	"github.com/moshtv/moshport/internal/resolve"
	"github.com/moshtv/moshport/internal/scraper"
	"github.com/moshtv/moshport/internal/services"
	"github.com/moshtv/moshport/internal/shield"
	"github.com/moshtv/moshport/internal/sports"
	"github.com/moshtv/moshport/pkg/logger"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()
	log := logger.New(cfg.Debug)

	log.Info().Msg("Starting MoshPort server...")

	// Request cache: memory-first, mirrored to redis when configured
	store := cache.New(cfg.RedisURL, log)
	defer store.Close()

	// Database is optional; without it the resolution cache and user
	// accounts run memory-only / disabled.
	var resolutionStore *database.ResolutionStore
	var userStore *database.UserStore
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		log.Info().Msg("Database connection established")

		resolutionStore, err = database.NewResolutionStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize resolution store")
		}
		userStore, err = database.NewUserStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize user store")
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set, resolutions will not persist")
	}

	// Scraper proxy client; the token never reaches browsers
	scraperClient := scraper.NewClient(cfg.ApifyToken, log)
	if !scraperClient.HasToken() {
		log.Warn().Msg("APIFY_TOKEN not set, title resolution via search is disabled")
	}

	// Title resolver over the scraper, persisted through the database
	var resolutionCache resolve.Cache
	if resolutionStore != nil {
		resolutionCache = resolutionStore
	}
	resolver := resolve.New(scraperClient, resolutionCache, log)

	// External collaborators
	metaClient := services.NewMetadataClient(cfg.MetadataAPIBase, store, log)
	sportsClient := sports.NewClient(cfg.SportsAPIBase, store, log)
	refresher := sports.NewRefresher(sportsClient, cfg.SportsPollInterval, log)
	builder := embed.NewBuilder(cfg.EmbedBase)

	// Per-session navigation shields
	shieldMgr := shield.NewManager(cfg.PageOrigin, log)

	// Auth
	tokens := auth.NewTokenService(cfg.JWTSecret)

	handler := api.NewHandler(
		resolver,
		builder,
		metaClient,
		sportsClient,
		refresher,
		scraperClient,
		shieldMgr,
		tokens,
		userStore,
		resolutionStore,
		log,
	)

	// Static assets behind the offline-first cache worker
	var assetHandler http.Handler
	if _, err := os.Stat(cfg.StaticDir); err == nil {
		worker := assets.NewWorker(http.FileServer(http.Dir(cfg.StaticDir)), store, log)
		go worker.Precache(context.Background())
		assetHandler = worker
		log.Info().Str("dir", cfg.StaticDir).Msg("Serving static assets")
	}

	router := api.SetupRoutes(handler, assetHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// The fixture poll must not outlive the server
	refresher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
