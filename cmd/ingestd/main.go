package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pulsewire/ingest/internal/api"
	"github.com/pulsewire/ingest/internal/archive"
	"github.com/pulsewire/ingest/internal/cache"
	"github.com/pulsewire/ingest/internal/config"
	"github.com/pulsewire/ingest/internal/dedup"
	"github.com/pulsewire/ingest/internal/feed"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/middleware"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/moderation"
	"github.com/pulsewire/ingest/internal/retention"
	"github.com/pulsewire/ingest/internal/scheduler"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/pulsewire/ingest/internal/trending"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: cfg.Env == "development",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Msg("Starting ingestion service...")

	// Seen-item cache; fall back to memory when Redis is unreachable so
	// the pipeline still runs degraded
	var seen cache.SeenCache
	var redisCache *cache.RedisCache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, dedup cache degraded to memory")
		seen = cache.NewMemoryCache()
	} else {
		seen = redisCache
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing Redis client")
			}
		}()
	}

	// Content store: the external CMS when configured, memory otherwise
	var contentStore store.ContentStore
	var admin store.AdminReader
	var patcher store.StatsPatcher
	if cfg.CMSBaseURL != "" {
		rest := store.NewRESTStore(cfg.CMSBaseURL, cfg.CMSAPIKey, cfg.RequestTimeout)
		contentStore, admin, patcher = rest, rest, rest
	} else {
		log.Warn().Msg("No CMS configured, running against in-memory store")
		mem := store.NewMemoryStore()
		contentStore, admin, patcher = mem, mem, mem
	}

	archiver, err := archive.New(context.Background(), cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Archive disabled")
	}

	gate := dedup.NewGate(seen, contentStore, cfg.SeenTTL)
	retentionMgr := retention.NewManager(contentStore, patcher)
	normalizer := feed.NewNormalizer()

	var trendSignal trending.Signal
	if cfg.TrendingURL != "" {
		trendSignal = trending.NewClient(cfg.TrendingURL, cfg.RequestTimeout, redisCache)
	}

	newsEngine := scheduler.NewEngine(scheduler.Deps{
		ContentType:    models.ContentTypeNews,
		Sources:        scheduler.NewSourceChain(models.ContentTypeNews, admin),
		Settings:       scheduler.NewSettingsResolver(models.ContentTypeNews, admin),
		Fetcher:        feed.NewFetcher(feed.NewRSSPuller(cfg.RequestTimeout), nil),
		Normalizer:     normalizer,
		Classifier:     moderation.NewClassifier(scheduler.NewRuleFetcher(models.ContentTypeNews, admin)),
		Trust:          scheduler.NewTrustDirectory(models.ContentTypeNews, admin),
		Gate:           gate,
		Store:          contentStore,
		Retention:      retentionMgr,
		Archiver:       archiver,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	videoSearcher := feed.NewVideoSearcher(cfg.VideoSearchURL, cfg.VideoSearchKey, cfg.RequestTimeout)
	videoEngine := scheduler.NewEngine(scheduler.Deps{
		ContentType:    models.ContentTypeVideo,
		Sources:        scheduler.NewSourceChain(models.ContentTypeVideo, admin),
		Settings:       scheduler.NewSettingsResolver(models.ContentTypeVideo, admin),
		Fetcher:        feed.NewFetcher(nil, videoSearcher),
		Normalizer:     normalizer,
		Classifier:     moderation.NewClassifier(scheduler.NewRuleFetcher(models.ContentTypeVideo, admin)),
		Trust:          scheduler.NewTrustDirectory(models.ContentTypeVideo, admin),
		Gate:           gate,
		Store:          contentStore,
		Retention:      retentionMgr,
		Archiver:       archiver,
		MaxConcurrency: cfg.MaxConcurrency,
	})

	newsScheduler := scheduler.NewNewsScheduler(newsEngine)
	videoScheduler := scheduler.NewVideoScheduler(videoEngine, trendSignal, scheduler.DaytimeWindow{
		StartHour: cfg.DaytimeStartHour,
		EndHour:   cfg.DaytimeEndHour,
	})

	runCtx, stopSchedulers := context.WithCancel(context.Background())
	go newsScheduler.Run(runCtx)
	go videoScheduler.Run(runCtx)

	// Create Fiber app with custom config
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	api.SetupRoutes(app, cfg, contentStore, newsEngine, videoEngine)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Running cycles finish; no new cycles start
	stopSchedulers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Service exited properly")
}
