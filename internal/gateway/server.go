// Package gateway serves the analytics library over HTTP for the demo
// widgets: batch indicator, regression, statistics and backtest endpoints
// plus a websocket stream of synthetic bars with live indicators.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"synapse-analytics/internal/metrics"
	rediscache "synapse-analytics/internal/store/redis"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Cache stores encoded responses by request digest. *redis.Cache
// satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// Server owns the routes and their shared dependencies.
type Server struct {
	hub     *Hub
	cache   Cache
	metrics *metrics.Metrics
	log     *slog.Logger
	start   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithCache enables response caching for the compute endpoints.
func WithCache(c Cache) Option {
	return func(s *Server) { s.cache = c }
}

// WithMetrics records request and backtest metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer creates a gateway server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		log:   slog.Default().With(slog.String("component", "gateway")),
		start: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.metrics, s.log)
	return s
}

// Hub returns the demo stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/indicators", s.instrument("indicator_names", http.HandlerFunc(s.handleIndicatorNames)))
	mux.Handle("POST /api/indicators", s.instrument("indicators", s.compute("indicators", s.computeIndicator)))
	mux.Handle("POST /api/regression", s.instrument("regression", s.compute("regression", s.computeRegression)))
	mux.Handle("POST /api/stats", s.instrument("stats", s.compute("stats", s.computeStats)))
	mux.Handle("POST /api/backtest", s.instrument("backtest", s.compute("backtest", s.computeBacktest)))

	// Not instrumented: the recorder would hide http.Hijacker from the upgrader.
	mux.HandleFunc("GET /ws/demo", s.hub.HandleDemo)
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests by route and status and observes latency.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.APIRequestDur.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
	})
}

// compute hands the raw body to fn and encodes what it returns. Successful
// encodings are cached under the body digest.
func (s *Server) compute(route string, fn func(body []byte) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, err)
				return
			}
			writeError(w, http.StatusBadRequest, err)
			return
		}

		key := rediscache.Key(route, body)
		if s.cache != nil {
			if cached, ok := s.cache.Get(r.Context(), key); ok {
				w.Header().Set("X-Cache", "HIT")
				writeRaw(w, http.StatusOK, cached)
				return
			}
		}

		v, err := fn(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		out, err := json.Marshal(v)
		if err != nil {
			s.log.Error("encode response", slog.String("route", route), slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, errors.New("result could not be encoded"))
			return
		}

		if s.cache != nil {
			s.cache.Set(r.Context(), key, out)
			w.Header().Set("X-Cache", "MISS")
		}
		writeRaw(w, http.StatusOK, out)
	}
}

func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
	w.Write([]byte{'\n'})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
