// Package api exposes the application wizard over HTTP. Each visitor is identified by a
// session cookie and owns one wizard.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "nominee-applications/internal/common/errors"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/wizard"
)

// multipartOverhead is the allowance for multipart framing on top of the file itself.
const multipartOverhead = 64 << 10

type Options struct {
	SecureCookies  bool
	MaxUploadBytes int64
	// Ready reports whether the service's dependencies are reachable.
	Ready func(ctx context.Context) error
}

type Server struct {
	sessions *wizard.Sessions
	errs     *apperrors.ErrorHandler
	logger   logger.Logger
	opts     Options
}

func NewServer(sessions *wizard.Sessions, log logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = wizard.DefaultMaxUploadBytes
	}
	return &Server{
		sessions: sessions,
		errs:     apperrors.NewErrorHandler(log),
		logger:   log,
		opts:     opts,
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/application", s.handleSnapshot)
	mux.HandleFunc("PATCH /api/application/draft", s.handleUpdateDraft)
	mux.HandleFunc("POST /api/application/documents/{slot}", s.handleUpload)
	mux.HandleFunc("POST /api/application/next", s.handleNext)
	mux.HandleFunc("POST /api/application/previous", s.handlePrevious)
	mux.HandleFunc("POST /api/application/submit", s.handleSubmit)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.Write(w, r, ToStandardError(err))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}
