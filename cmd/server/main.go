package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/triiJU/linkedin-insights/internal/api"
	"github.com/triiJU/linkedin-insights/internal/cache"
	"github.com/triiJU/linkedin-insights/internal/config"
	"github.com/triiJU/linkedin-insights/internal/extractor"
	"github.com/triiJU/linkedin-insights/internal/fetcher/linkedin"
	"github.com/triiJU/linkedin-insights/internal/insights"
	"github.com/triiJU/linkedin-insights/internal/publisher"
	"github.com/triiJU/linkedin-insights/internal/scheduler"
	"github.com/triiJU/linkedin-insights/internal/service"
	"github.com/triiJU/linkedin-insights/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache is optional: a nil *cache.Cache behaves as a permanent miss.
	var readCache *cache.Cache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		readCache = cache.New(redisClient, cfg.Redis.TTL, logger)
		logger.Info("connected to redis", "ttl", cfg.Redis.TTL)
	}

	var events service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	pageStore := postgres.NewPageStore(db)
	employeeStore := postgres.NewEmployeeStore(db)
	postStore := postgres.NewPostStore(db)
	txManager := postgres.NewTransactionManager(db)

	pageFetcher := linkedin.New(cfg.Scraper, logger)
	pageExtractor := extractor.New(cfg.Scraper.MaxPosts, cfg.Scraper.MaxEmployees, logger)

	var invalidator service.Invalidator
	if readCache != nil {
		invalidator = readCache
	}

	syncService := service.NewSyncService(
		pageFetcher,
		pageExtractor,
		pageStore,
		employeeStore,
		postStore,
		txManager,
		invalidator,
		events,
		logger,
		cfg.Sync,
	)

	if cfg.Sync.RefreshEnabled {
		refresher := scheduler.NewRefresher(
			syncService,
			pageStore,
			cfg.Sync.RefreshInterval,
			cfg.Sync.FreshnessWindow,
			cfg.Sync.RefreshBatch,
			logger,
		)
		go func() {
			if err := refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("refresher error", "error", err)
			}
		}()
	}

	summarizer := insights.New(cfg.Insights, logger)

	handler := api.NewPageHandler(
		syncService,
		pageStore,
		employeeStore,
		postStore,
		summarizer,
		readCache,
		cfg.Pagination,
		logger,
	)
	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server",
		"address", cfg.Server.Address,
		"cache_enabled", cfg.Redis.Enabled,
		"freshness_window", cfg.Sync.FreshnessWindow,
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
