package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/user/gh-search-crawler/internal/config"
	"github.com/user/gh-search-crawler/internal/domain"
	"github.com/user/gh-search-crawler/internal/monitoring"
)

type stubRunner struct {
	entries []domain.ReportEntry
	err     error
	got     domain.CrawlRequest
}

func (r *stubRunner) Run(_ context.Context, raw domain.CrawlRequest) ([]domain.ReportEntry, error) {
	r.got = raw
	return r.entries, r.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, runner Runner, cache Pinger) *Server {
	t.Helper()
	return NewServer(config.Default(), runner, cache, monitoring.NewMetrics(), zaptest.NewLogger(t))
}

func TestHandleSearchRequest(t *testing.T) {
	t.Parallel()

	t.Run("returns the report", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{entries: []domain.ReportEntry{
			{URL: "https://github.com/rickfernandes/recursion", Extra: &domain.RepositoryDetail{
				Owner: "rickfernandes", LanguageStats: map[string]float64{"Python": 100},
			}},
		}}
		s := newTestServer(t, runner, nil)

		body := `{"keywords":["recursion"],"proxies":["h:1"],"type":"Repositories"}`
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if runner.got.Type != "Repositories" || len(runner.got.Keywords) != 1 || runner.got.Proxies[0] != "h:1" {
			t.Errorf("runner received %+v", runner.got)
		}

		var decoded []domain.ReportEntry
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 1 || decoded[0].Extra.Owner != "rickfernandes" {
			t.Errorf("decoded = %+v", decoded)
		}
	})

	t.Run("absent keywords stay absent", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{err: &domain.MissingFieldError{Field: "keywords"}}
		s := newTestServer(t, runner, nil)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"type":"Wikis"}`)))

		if runner.got.Keywords != nil {
			t.Errorf("keywords decoded as %#v, want nil", runner.got.Keywords)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &stubRunner{}, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{`)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty report is an empty array", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &stubRunner{}, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"keywords":["x"],"type":"Issues"}`)))
		if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
			t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
		}
	})
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: &domain.MissingFieldError{Field: "type"}, want: http.StatusBadRequest},
		{err: &domain.InvalidValueError{Field: "type", Value: "Bogus"}, want: http.StatusBadRequest},
		{err: &domain.FetchError{URL: "u", StatusCode: 503}, want: http.StatusBadGateway},
		{err: &domain.ParseError{Context: "page", Err: errors.New("x")}, want: http.StatusBadGateway},
		{err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleHealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cache Pinger
		want  string
	}{
		{name: "cache disabled", cache: nil, want: "disabled"},
		{name: "cache healthy", cache: stubPinger{}, want: "healthy"},
		{name: "cache down", cache: stubPinger{err: errors.New("connection refused")}, want: "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, &stubRunner{}, tt.cache)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var status map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatal(err)
			}
			if status["cache"] != tt.want {
				t.Errorf("cache status = %q, want %q", status["cache"], tt.want)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &stubRunner{}, nil)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"} 1`) {
		t.Errorf("request metric missing:\n%s", rec.Body.String())
	}
}
