package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/gh-search-crawler/internal/config"
	"github.com/user/gh-search-crawler/internal/domain"
	"github.com/user/gh-search-crawler/internal/fetch"
	"github.com/user/gh-search-crawler/internal/monitoring"
)

// Crawler runs the search pipeline: normalize the request, fetch and parse the
// search page, then enrich repository results with their language breakdown.
// A Crawler holds no per-run state and may be shared.
type Crawler struct {
	baseURL   string
	workers   int
	selector  ProxySelector
	fetcher   fetch.Fetcher
	results   ResultsParser
	languages LanguagesParser
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

func NewCrawler(cfg *config.Config, selector ProxySelector, f fetch.Fetcher, m *monitoring.Metrics, l *zap.Logger) *Crawler {
	workers := cfg.EnrichWorkers
	if workers < 1 {
		workers = 1
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Crawler{
		baseURL:   cfg.SearchBaseURL,
		workers:   workers,
		selector:  selector,
		fetcher:   f,
		results:   GitHubExtractor{},
		languages: GitHubExtractor{},
		metrics:   m,
		logger:    l,
	}
}

// WithParsers replaces the page extractors.
func (c *Crawler) WithParsers(results ResultsParser, languages LanguagesParser) *Crawler {
	c.results = results
	c.languages = languages
	return c
}

// Run executes the pipeline for raw and returns the report entries in rank
// order. Any error aborts the run; no partial report is returned.
func (c *Crawler) Run(ctx context.Context, raw domain.CrawlRequest) ([]domain.ReportEntry, error) {
	start := time.Now()
	label := runTypeLabel(raw.Type)
	entries, err := c.run(ctx, raw)
	if err != nil {
		kind := domain.Kind(err)
		c.metrics.IncErrorsTotal(kind)
		c.metrics.IncRun(label, "failure")
		c.logger.Error("crawl failed", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}
	c.metrics.IncRun(label, "success")
	c.logger.Info("crawl finished",
		zap.String("type", raw.Type),
		zap.Int("results", len(entries)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return entries, nil
}

// runTypeLabel keeps the run metric's type label within the known entity types.
func runTypeLabel(raw string) string {
	if domain.EntityType(raw).Valid() {
		return raw
	}
	return "invalid"
}

// RunJSON runs the pipeline and serializes the report.
func (c *Crawler) RunJSON(ctx context.Context, raw domain.CrawlRequest) (string, error) {
	entries, err := c.Run(ctx, raw)
	if err != nil {
		return "", err
	}
	return EncodeReport(entries)
}

func (c *Crawler) run(ctx context.Context, raw domain.CrawlRequest) ([]domain.ReportEntry, error) {
	req, err := NormalizeRequest(raw, c.selector, c.logger)
	if err != nil {
		return nil, err
	}

	searchURL, err := SearchURL(c.baseURL, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("fetching search page", zap.String("url", searchURL), zap.String("proxy", req.Proxy))
	page, err := c.fetch(ctx, "search", searchURL, req.Proxy)
	if err != nil {
		return nil, err
	}

	set, err := c.results.ParseResults(page)
	if err != nil {
		return nil, err
	}
	c.metrics.AddResults(set.Len())

	results := set.Results()
	entries := make([]domain.ReportEntry, len(results))
	for i, r := range results {
		entries[i] = domain.ReportEntry{URL: r.URL}
	}

	if req.Type != domain.EntityRepositories {
		return entries, nil
	}
	if err := c.enrichAll(ctx, entries, req.Proxy); err != nil {
		return nil, err
	}
	return entries, nil
}

// enrichAll fills in Extra for every entry. Entries are written by index, so
// the report order does not depend on completion order.
func (c *Crawler) enrichAll(ctx context.Context, entries []domain.ReportEntry, proxy string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			detail, err := c.repositoryDetail(gctx, entries[i].URL, proxy)
			if err != nil {
				return err
			}
			entries[i].Extra = detail
			return nil
		})
	}
	return g.Wait()
}

func (c *Crawler) repositoryDetail(ctx context.Context, repoURL, proxy string) (*domain.RepositoryDetail, error) {
	owner, err := RepositoryOwner(repoURL)
	if err != nil {
		return nil, &domain.ParseError{Context: repoURL, Err: err}
	}

	page, err := c.fetch(ctx, "repository", repoURL, proxy)
	if err != nil {
		return nil, err
	}

	stats, err := c.languages.ParseLanguages(page)
	if err != nil {
		return nil, fmt.Errorf("repository %s: %w", repoURL, err)
	}
	return &domain.RepositoryDetail{Owner: owner, LanguageStats: stats}, nil
}

func (c *Crawler) fetch(ctx context.Context, kind, rawURL, proxy string) (string, error) {
	start := time.Now()
	body, err := c.fetcher.Fetch(ctx, rawURL, proxy)
	c.metrics.ObserveFetch(kind, time.Since(start).Seconds(), err)
	return body, err
}

// RepositoryOwner returns the first path segment of a repository URL.
func RepositoryOwner(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}
	owner, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if owner == "" {
		return "", errors.New("url has no owner path segment")
	}
	return owner, nil
}

// EncodeReport serializes entries as a one-space indented JSON array.
func EncodeReport(entries []domain.ReportEntry) (string, error) {
	if entries == nil {
		entries = []domain.ReportEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(entries); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
