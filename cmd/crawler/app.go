package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/gh-search-crawler/internal/api"
	"github.com/user/gh-search-crawler/internal/config"
	"github.com/user/gh-search-crawler/internal/crawler"
	"github.com/user/gh-search-crawler/internal/fetch"
	"github.com/user/gh-search-crawler/internal/monitoring"
	"github.com/user/gh-search-crawler/internal/proxy"
	"github.com/user/gh-search-crawler/internal/storage"
)

// app bundles the wired components shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
	crawler *crawler.Crawler
	cache   *storage.RedisStore
}

func newApp(cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}

	metrics := monitoring.NewMetrics()
	proxyManager := proxy.NewManager(cfg.ProxyList())

	opts := fetch.HTTPOptions{
		Timeout:    cfg.Timeout(),
		AllSchemes: cfg.ProxyAllSchemes,
		Agents:     proxyManager,
		Logger:     logger,
	}
	var fetcher fetch.Fetcher
	switch cfg.FetchMode {
	case config.FetchModeBrowser:
		fetcher = fetch.NewBrowserClient(opts)
	default:
		fetcher = fetch.NewHTTPClient(opts)
	}

	var cache *storage.RedisStore
	if cfg.RedisAddr != "" {
		cache = storage.NewRedisStore(cfg.RedisAddr)
		fetcher = fetch.NewCachedFetcher(fetcher, cache, cfg.CacheTTL(), metrics, logger)
		logger.Info("page cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL()))
	}

	logger.Debug("configuration loaded",
		zap.String("search_base_url", cfg.SearchBaseURL),
		zap.String("fetch_mode", cfg.FetchMode),
		zap.Int("enrich_workers", cfg.EnrichWorkers),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		crawler: crawler.NewCrawler(cfg, proxyManager, fetcher, metrics, logger),
		cache:   cache,
	}, nil
}

// pinger returns the cache as an api.Pinger, or nil when caching is off.
func (a *app) pinger() api.Pinger {
	if a.cache == nil {
		return nil
	}
	return a.cache
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = a.logger.Sync()
}

// newLogger builds a production (JSON, stderr) zap logger.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
