package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/domain"
)

// BrowserClient fetches pages with headless Chrome. Each fetch starts its own
// browser because Chrome's proxy is fixed per process.
type BrowserClient struct {
	timeout    time.Duration
	allSchemes bool
	agents     UserAgentSource
	logger     *zap.Logger
}

func NewBrowserClient(opts HTTPOptions) *BrowserClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserClient{
		timeout:    opts.Timeout,
		allSchemes: opts.AllSchemes,
		agents:     opts.Agents,
		logger:     logger,
	}
}

// proxyServerFlag builds Chrome's --proxy-server value. The "http=" form
// limits the proxy to http URLs.
func proxyServerFlag(proxy string, allSchemes bool) (string, error) {
	u, err := ProxyURL(proxy)
	if err != nil {
		return "", err
	}
	if allSchemes {
		return u.Scheme + "://" + u.Host, nil
	}
	return "http=" + u.Host, nil
}

func (b *BrowserClient) allocatorOptions(proxy string) ([]chromedp.ExecAllocatorOption, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.agents != nil {
		if ua := b.agents.GetUserAgent(); ua != "" {
			opts = append(opts, chromedp.UserAgent(ua))
		}
	}
	if proxy != "" {
		flag, err := proxyServerFlag(proxy, b.allSchemes)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.ProxyServer(flag))
	}
	return opts, nil
}

// Fetch navigates to rawURL and returns the rendered document's outer HTML.
func (b *BrowserClient) Fetch(ctx context.Context, rawURL, proxy string) (string, error) {
	opts, err := b.allocatorOptions(proxy)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(b.logger.Sugar().Debugf))
	defer taskCancel()

	if b.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, b.timeout)
		defer cancel()
	}

	// The first document response is the page itself; redirects arrive as
	// requestWillBeSent events and never reach this listener.
	var status atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	var html string
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(rawURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("page load timed out after %s: %w", b.timeout, err)
		}
		return "", &domain.FetchError{URL: rawURL, Err: err}
	}

	code := int(status.Load())
	b.logger.Debug("rendered page", zap.String("url", rawURL), zap.String("proxy", proxy), zap.Int("status", code))
	if code != 0 && !isSuccess(code) {
		return "", &domain.FetchError{
			URL:        rawURL,
			StatusCode: code,
			Err:        fmt.Errorf("unexpected status %d", code),
		}
	}
	return html, nil
}
