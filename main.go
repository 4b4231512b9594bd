package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"sjsage522/legodealworker/config"
	"sjsage522/legodealworker/internal"
	"sjsage522/legodealworker/internal/api"
	"sjsage522/legodealworker/internal/catalog"
	"sjsage522/legodealworker/internal/crawler"
	"sjsage522/legodealworker/internal/favorites"
	"sjsage522/legodealworker/internal/sales"
	"sjsage522/legodealworker/internal/store"
	"sjsage522/legodealworker/logger"
	"sjsage522/legodealworker/services/cache"
	"sjsage522/legodealworker/services/publisher"
	"sjsage522/legodealworker/services/worker"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("max_pages", cfg.CrawlMaxPages).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create crawlers
	crawlers := crawler.CreateCrawlers(cfg, services.Cache)
	if len(crawlers) == 0 {
		log.Fatal().Msg("No crawlers were created")
	}

	log.Info().
		Int("crawler_count", len(crawlers)).
		Msg("Created crawlers")

	// Create worker
	w := worker.NewWorker(crawlers, internal.Dependencies{
		Cache:     services.Cache,
		Publisher: services.Publisher,
		Store:     services.Store,
		Sales:     sales.NewVintedClient(cfg.VintedURL, cfg.VintedCookie),
	}, worker.Options{
		MaxPages:      cfg.CrawlMaxPages,
		CrawlInterval: cfg.CrawlInterval,
		SyncSales:     cfg.SalesSyncEnabled,
		DumpPath:      cfg.DumpPath,
		Production:    cfg.IsProduction(),
	})

	// Create API server
	registry := favorites.NewRegistry(favorites.NewRedisStore(services.Redis, cfg.FavoritesKey))
	handler := api.NewHandler(
		catalog.NewLoader(services.Store, registry),
		services.Store,
		registry,
		cfg.DefaultPageSize,
	)
	server := api.NewServer(cfg.HTTPPort, handler)

	// Start worker and API in goroutines
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting LEGO deal worker")
		workerDone <- w.Start(ctx)
	}()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Run()
	}()

	// Wait for shutdown signal or an exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("API server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Redis     *redis.Client
	Publisher publisher.Publisher
	Store     *store.MongoStore
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		// closes the shared Redis client as well
		if err := s.Publisher.Close(); err != nil {
			logger.Warn("Failed to close Redis: %v", err)
		}
	}
	if s.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Store.Close(ctx); err != nil {
			logger.Warn("Failed to close MongoDB: %v", err)
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service. A missing memcache only disables the shared
	// rate-limit block.
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := cacheService.Ping(); err != nil {
		logger.Warn("Memcache at %s is not reachable: %v", cfg.MemcacheAddr, err)
	} else {
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}
	services.Cache = cacheService

	// Initialize Redis, shared by the publisher and the favorites
	services.Redis = redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := services.Redis.Ping(ctx).Err(); err != nil {
		services.Redis.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	services.Publisher = publisher.NewRedisPublisher(
		services.Redis,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize document store
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoStore, err := store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		services.Cleanup()
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	services.Store = mongoStore

	logger.Info("Connected to MongoDB (DB: %s)", cfg.MongoDBName)

	return services, nil
}
