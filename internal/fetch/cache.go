package fetch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/storage"
)

// PageCache stores page bodies by URL. Get returns storage.ErrCacheMiss when
// nothing fresh is stored.
type PageCache interface {
	Get(ctx context.Context, url string) (string, error)
	Set(ctx context.Context, url, body string, ttl time.Duration) error
}

// CacheRecorder receives cache lookup outcomes ("hit", "miss", "error").
type CacheRecorder interface {
	IncCacheLookup(outcome string)
}

// CachedFetcher serves pages from a PageCache and falls through to the
// wrapped Fetcher on a miss. Cache failures are logged and never fatal.
type CachedFetcher struct {
	next     Fetcher
	cache    PageCache
	ttl      time.Duration
	recorder CacheRecorder
	logger   *zap.Logger
}

func NewCachedFetcher(next Fetcher, cache PageCache, ttl time.Duration, recorder CacheRecorder, logger *zap.Logger) *CachedFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, recorder: recorder, logger: logger}
}

func (f *CachedFetcher) Fetch(ctx context.Context, rawURL, proxy string) (string, error) {
	body, err := f.cache.Get(ctx, rawURL)
	switch {
	case err == nil:
		f.record("hit")
		f.logger.Debug("page cache hit", zap.String("url", rawURL))
		return body, nil
	case errors.Is(err, storage.ErrCacheMiss):
		f.record("miss")
	default:
		f.record("error")
		f.logger.Warn("page cache lookup failed", zap.String("url", rawURL), zap.Error(err))
	}

	body, err = f.next.Fetch(ctx, rawURL, proxy)
	if err != nil {
		return "", err
	}

	if err := f.cache.Set(ctx, rawURL, body, f.ttl); err != nil {
		f.logger.Warn("failed to store page in cache", zap.String("url", rawURL), zap.Error(err))
	}
	return body, nil
}

func (f *CachedFetcher) record(outcome string) {
	if f.recorder != nil {
		f.recorder.IncCacheLookup(outcome)
	}
}
