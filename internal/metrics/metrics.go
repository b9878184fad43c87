package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service.
type Metrics struct {
	// Backtests
	BacktestRunsTotal   *prometheus.CounterVec // labels: strategy
	BacktestTradesTotal prometheus.Counter
	BacktestDur         prometheus.Histogram
	SweepPointsTotal    prometheus.Counter

	// Indicator compute latency per call
	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator

	// HTTP API
	APIRequestsTotal *prometheus.CounterVec   // labels: route, code
	APIRequestDur    *prometheus.HistogramVec // labels: route

	// Response cache
	CacheResultsTotal        *prometheus.CounterVec // labels: result=hit|miss
	RedisCircuitBreakerState prometheus.Gauge       // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// Demo websocket
	WSClients     prometheus.Gauge
	WSFramesTotal prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		BacktestRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_backtest_runs_total",
			Help: "Completed backtest runs (by strategy)",
		}, []string{"strategy"}),
		BacktestTradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_backtest_trades_total",
			Help: "Trades closed across all backtest runs",
		}),
		BacktestDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analytics_backtest_duration_seconds",
			Help:    "Wall time of a single backtest run",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SweepPointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_sweep_points_total",
			Help: "Parameter points evaluated by sweeps",
		}),

		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_indicator_compute_duration_seconds",
			Help:    "Batch indicator compute latency",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		}, []string{"indicator"}),

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_api_requests_total",
			Help: "HTTP API requests (by route and status code)",
		}, []string{"route", "code"}),
		APIRequestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "analytics_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		CacheResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_cache_results_total",
			Help: "Response cache lookups (hit or miss)",
		}, []string{"result"}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "analytics_ws_clients",
			Help: "Connected demo websocket clients",
		}),
		WSFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analytics_ws_frames_total",
			Help: "Frames written to demo websocket clients",
		}),
	}

	reg.MustRegister(
		m.BacktestRunsTotal,
		m.BacktestTradesTotal,
		m.BacktestDur,
		m.SweepPointsTotal,
		m.IndicatorComputeDur,
		m.APIRequestsTotal,
		m.APIRequestDur,
		m.CacheResultsTotal,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.WSClients,
		m.WSFramesTotal,
	)

	return m
}

// ObserveBacktest records one finished run.
func (m *Metrics) ObserveBacktest(strategy string, trades int, took time.Duration) {
	m.BacktestRunsTotal.WithLabelValues(strategy).Inc()
	m.BacktestTradesTotal.Add(float64(trades))
	m.BacktestDur.Observe(took.Seconds())
}

// SweepProgress wraps a sweep progress callback so each completed point
// also counts toward SweepPointsTotal. next may be nil. Calls must be
// serialized.
func (m *Metrics) SweepProgress(next func(done, total int)) func(done, total int) {
	last := 0
	return func(done, total int) {
		if done > last {
			m.SweepPointsTotal.Add(float64(done - last))
			last = done
		}
		if next != nil {
			next(done, total)
		}
	}
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisEnabled   bool `json:"redis_enabled"`
	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetRedisEnabled(v bool) {
	h.mu.Lock()
	h.RedisEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Either client may
// be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	check := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}
	check()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. The service is degraded when
// SQLite is down or an enabled Redis is unreachable; the cache being
// disabled is not a fault.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	redisDown := h.RedisEnabled && !h.RedisConnected
	if !h.SQLiteOK || redisDown {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.SQLiteOK && redisDown {
		overallStatus = "unhealthy"
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		RedisEnabled    bool    `json:"redis_enabled"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. A nil gatherer serves the
// default registry.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("server listening", slog.String("component", "metrics"), slog.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", slog.String("component", "metrics"), slog.Any("err", err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
