package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/user/gh-search-crawler/internal/domain"
)

type fixedAgent string

func (a fixedAgent) GetUserAgent() string { return string(a) }

func TestHTTPClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body of a 2xx response", func(t *testing.T) {
		t.Parallel()

		agents := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agents <- r.Header.Get("User-Agent")
			w.Write([]byte("<html>ok</html>"))
		}))
		defer srv.Close()

		c := NewHTTPClient(HTTPOptions{Agents: fixedAgent("test-agent"), Logger: zaptest.NewLogger(t)})
		body, err := c.Fetch(context.Background(), srv.URL+"/page", "")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "<html>ok</html>" {
			t.Errorf("body = %q", body)
		}
		if gotUA := <-agents; gotUA != "test-agent" {
			t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent")
		}
	})

	t.Run("non-2xx status is a FetchError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewHTTPClient(HTTPOptions{})
		_, err := c.Fetch(context.Background(), srv.URL, "")
		if !errors.Is(err, domain.ErrFetch) {
			t.Fatalf("Fetch() error = %v, want ErrFetch", err)
		}
		var fe *domain.FetchError
		if !errors.As(err, &fe) || fe.StatusCode != http.StatusTooManyRequests {
			t.Errorf("FetchError = %+v, want status 429", fe)
		}
	})

	t.Run("transport failure is a FetchError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		c := NewHTTPClient(HTTPOptions{})
		_, err := c.Fetch(context.Background(), addr, "")
		if !errors.Is(err, domain.ErrFetch) {
			t.Fatalf("Fetch() error = %v, want ErrFetch", err)
		}
		var fe *domain.FetchError
		if errors.As(err, &fe) && fe.StatusCode != 0 {
			t.Errorf("StatusCode = %d, want 0 for transport failure", fe.StatusCode)
		}
	})

	t.Run("http targets are routed through the proxy", func(t *testing.T) {
		t.Parallel()

		hosts := make(chan string, 1)
		proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A forward proxy receives the absolute target URL.
			hosts <- r.URL.Host
			w.Write([]byte("via proxy"))
		}))
		defer proxySrv.Close()

		proxyAddr := strings.TrimPrefix(proxySrv.URL, "http://")
		c := NewHTTPClient(HTTPOptions{})
		body, err := c.Fetch(context.Background(), "http://github.example/rickfernandes/recursion", proxyAddr)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "via proxy" {
			t.Errorf("body = %q, want proxied response", body)
		}
		if proxiedHost := <-hosts; proxiedHost != "github.example" {
			t.Errorf("proxy saw host %q, want github.example", proxiedHost)
		}
	})

	t.Run("unreachable proxy is a FetchError", func(t *testing.T) {
		t.Parallel()

		c := NewHTTPClient(HTTPOptions{Timeout: 2 * time.Second})
		_, err := c.Fetch(context.Background(), "http://github.example/", "127.0.0.1:1")
		if !errors.Is(err, domain.ErrFetch) {
			t.Errorf("Fetch() error = %v, want ErrFetch", err)
		}
	})
}

func TestProxyFromContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		proxy      string
		allSchemes bool
		want       string
	}{
		{name: "http target uses proxy", target: "http://github.com/search", proxy: "h:1", want: "http://h:1"},
		{name: "https target bypasses proxy", target: "https://github.com/search", proxy: "h:1", want: ""},
		{name: "https target with all schemes", target: "https://github.com/search", proxy: "h:1", allSchemes: true, want: "http://h:1"},
		{name: "no proxy configured", target: "http://github.com/search", proxy: "", want: ""},
		{name: "proxy with explicit scheme", target: "http://github.com/", proxy: "http://user:pw@h:2", want: "http://user:pw@h:2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.WithValue(context.Background(), proxyContextKey{}, tt.proxy)
			req := httptest.NewRequest(http.MethodGet, tt.target, nil).WithContext(ctx)

			got, err := proxyFromContext(tt.allSchemes)(req)
			if err != nil {
				t.Fatalf("proxy func error = %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("proxy = %v, want direct connection", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("proxy = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestProxyURL(t *testing.T) {
	t.Parallel()

	u, err := ProxyURL("200.68.49.184:8080")
	if err != nil {
		t.Fatalf("ProxyURL() error = %v", err)
	}
	want := &url.URL{Scheme: "http", Host: "200.68.49.184:8080"}
	if u.String() != want.String() {
		t.Errorf("ProxyURL() = %v, want %v", u, want)
	}

	if _, err := ProxyURL("http://"); err == nil {
		t.Error("ProxyURL(\"http://\") error = nil, want missing host error")
	}
}

func TestProxyServerFlag(t *testing.T) {
	t.Parallel()

	got, err := proxyServerFlag("h:1", false)
	if err != nil || got != "http=h:1" {
		t.Errorf("proxyServerFlag(http only) = %q, %v", got, err)
	}
	got, err = proxyServerFlag("h:1", true)
	if err != nil || got != "http://h:1" {
		t.Errorf("proxyServerFlag(all schemes) = %q, %v", got, err)
	}
}
