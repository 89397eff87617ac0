package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/user/gh-search-crawler/internal/config"
	"github.com/user/gh-search-crawler/internal/monitoring"
)

func TestShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &stubRunner{}, nil)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start() after Shutdown error = %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() kept serving after Shutdown")
	}
}

func TestShutdownStopsRunningServer(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.ServerPort = "0"
	s := NewServer(cfg, &stubRunner{}, nil, monitoring.NewMetrics(), zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start() error = %v, want http.ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Shutdown")
	}
}
