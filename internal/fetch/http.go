package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/domain"
)

type proxyContextKey struct{}

// HTTPClient fetches pages with net/http. A single transport is shared; the
// proxy for each request travels in the request context.
type HTTPClient struct {
	client *http.Client
	agents UserAgentSource
	logger *zap.Logger
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// AllSchemes routes https targets through the proxy as well.
	AllSchemes bool
	Agents     UserAgentSource
	Logger     *zap.Logger
}

func NewHTTPClient(opts HTTPOptions) *HTTPClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFromContext(opts.AllSchemes)

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		agents: opts.Agents,
		logger: logger,
	}
}

func proxyFromContext(allSchemes bool) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		proxy, _ := req.Context().Value(proxyContextKey{}).(string)
		if proxy == "" || !usesProxy(req.URL, allSchemes) {
			return nil, nil
		}
		return ProxyURL(proxy)
	}
}

// Fetch issues a GET for rawURL and returns the body of a 2xx response.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL, proxy string) (string, error) {
	ctx = context.WithValue(ctx, proxyContextKey{}, proxy)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}
	if c.agents != nil {
		if ua := c.agents.GetUserAgent(); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched page",
		zap.String("url", rawURL),
		zap.String("proxy", proxy),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !isSuccess(resp.StatusCode) {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &domain.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return string(body), nil
}
