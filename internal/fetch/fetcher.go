// Package fetch retrieves pages through an HTTP proxy.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher performs a GET of rawURL through proxy ("host:port") and returns the body.
// Failures are reported as *domain.FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, proxy string) (string, error)
}

// UserAgentSource supplies the User-Agent header for each fetch.
type UserAgentSource interface {
	GetUserAgent() string
}

// ProxyURL turns a "host:port" proxy into an http:// URL. Values that already
// carry a scheme are parsed as is.
func ProxyURL(proxy string) (*url.URL, error) {
	if !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", proxy)
	}
	return u, nil
}

// usesProxy reports whether a request to target should go through the proxy.
// Only plain http targets are proxied unless allSchemes is set.
func usesProxy(target *url.URL, allSchemes bool) bool {
	return allSchemes || target.Scheme == "http"
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
