package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/user/gh-search-crawler/internal/crawler"
	"github.com/user/gh-search-crawler/internal/domain"
)

func (s *Server) handleSearchRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entries, err := s.crawler.Run(r.Context(), req)
	if err != nil {
		s.respondWithError(w, statusFor(err), err.Error())
		return
	}

	report, err := crawler.EncodeReport(entries)
	if err != nil {
		s.logger.Error("failed to encode report", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not encode report")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	healthStatus := map[string]string{"crawler": "healthy"}

	if s.cache == nil {
		healthStatus["cache"] = "disabled"
		s.respondWithJSON(w, http.StatusOK, healthStatus)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.cache.Ping(ctx); err != nil {
		// The cache is optional; fetches bypass it when it is down.
		healthStatus["cache"] = "unhealthy"
		s.logger.Warn("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["cache"] = "healthy"
	}

	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// logRequests replaces chi's stdlib logger middleware with zap.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.MarshalIndent(payload, "", " ")
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
