package httpapi

import (
	"crypto/hmac"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/relaysms/email-gateway/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

// authenticate verifies the API key from the Authorization header, with or
// without a "Bearer " prefix, using a constant-time comparison.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.log.Warn("missing authorization header", "request_id", w.Header().Get(requestIDHeader))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Missing Authorization header"})
			return
		}

		apiKey := strings.TrimPrefix(header, "Bearer ")
		if !hmac.Equal([]byte(apiKey), []byte(s.opts.APIKey)) {
			s.log.Warn("invalid api key", "request_id", w.Header().Get(requestIDHeader))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid API key"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestID assigns each request an ID, honoring one supplied upstream.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		// The route pattern keeps metric cardinality bounded; raw paths on
		// unmatched requests would mint a label value per garbage URL.
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordRequest(route, rec.status, elapsed)
		s.log.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
			"request_id", w.Header().Get(requestIDHeader))
	})
}

// recoverer turns panics into a generic 500 without leaking internals.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				s.log.Error("panic recovered",
					"panic", rec,
					"stack", string(stack[:n]),
					"request_id", w.Header().Get(requestIDHeader))
				writeJSON(w, http.StatusInternalServerError,
					errorResponse{Error: "Oops! Something went wrong. Please try again later."})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
