package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/adapter/browser"
	"github.com/user/article-mirror/internal/adapter/contentsource"
	"github.com/user/article-mirror/internal/adapter/fs"
	"github.com/user/article-mirror/internal/adapter/httpfetch"
	"github.com/user/article-mirror/internal/adapter/postgres"
	redis_adapter "github.com/user/article-mirror/internal/adapter/redis"
	"github.com/user/article-mirror/internal/adapter/wechat"
	"github.com/user/article-mirror/internal/delivery/http/handler"
	"github.com/user/article-mirror/internal/delivery/http/router"
	"github.com/user/article-mirror/internal/repository"
	"github.com/user/article-mirror/internal/usecase"
	"github.com/user/article-mirror/pkg/config"
	"github.com/user/article-mirror/pkg/logger"
	"github.com/user/article-mirror/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	// --- Metrics ---
	metrics.Init()

	ctx := context.Background()
	checks := make(map[string]handler.Pinger)

	// --- Ledger (optional) ---
	var (
		conversionRepo repository.ConversionRepository
		failedRepo     repository.FailedAssetRepository
	)
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("unable to connect to database", zap.Error(err))
		}
		defer dbpool.Close()
		if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
			log.Fatal("unable to prepare database schema", zap.Error(err))
		}
		conversionRepo = postgres.NewConversionRepo(dbpool)
		failedRepo = postgres.NewFailedAssetRepo(dbpool)
		checks["postgres"] = dbpool
		log.Info("PostgreSQL ledger enabled")
	}

	// --- Conversion cache (optional) ---
	var cache repository.ConversionCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("unable to connect to Redis", zap.Error(err))
		}
		redisCache := redis_adapter.NewConversionCache(rdb)
		cache = redisCache
		checks["redis"] = redisCache
		log.Info("Redis conversion cache enabled", zap.Duration("ttl", cfg.CacheTTL()))
	}

	// --- Outbound adapters ---
	agents := httpfetch.NewAgentManager(cfg.ProxyList())
	fetcher := httpfetch.NewClient(httpfetch.ClientConfig{
		Timeout:  cfg.FetchTimeoutDuration(),
		MaxBytes: cfg.FetchMaxBytes,
	}, agents)
	storage := fs.NewStorage(cfg.ImageDir, log)

	var source repository.ContentSource
	switch cfg.ContentSource {
	case "browser":
		source = browser.NewSource(cfg.PageLoadTimeoutDuration(), agents.UserAgent(), log)
	default:
		source = contentsource.NewAPISource(fetcher, cfg.ConvertAPIURL)
	}

	// --- Use Cases ---
	localizer := usecase.NewLocalizer(fetcher, storage, cfg.Domain, failedRepo, log)
	rewriter := usecase.NewRewriter(localizer, log)
	converter := usecase.NewConverter(source, rewriter, cache, conversionRepo, failedRepo, usecase.ConverterConfig{
		Timeout:  cfg.ConvertTimeoutDuration(),
		CacheTTL: cfg.CacheTTL(),
	}, log)

	var articles usecase.ArticleService
	if cfg.PlatformEnabled() {
		platform := wechat.NewClient(fetcher, cfg.WechatAPIBase, cfg.AppID, cfg.AppSecret)
		tokens := usecase.NewTokenCache(platform, cfg.TokenSafetyMarginDuration(), log)
		articles = usecase.NewArticleService(tokens, platform, log)
	} else {
		log.Warn("APP_ID/APP_SECRET not set, platform routes are disabled")
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(converter, articles, checks, log)
	// Conversions may take the full conversion deadline plus response encoding.
	requestTimeout := cfg.ConvertTimeoutDuration() + 10*time.Second
	httpRouter := router.New(apiHandler, router.Options{
		ImageDir:       storage.Dir(),
		RequestTimeout: requestTimeout,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started",
		zap.String("port", cfg.ServerPort),
		zap.String("content_source", cfg.ContentSource),
		zap.String("domain", cfg.Domain),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}
