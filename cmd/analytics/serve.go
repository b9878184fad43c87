package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"synapse-analytics/internal/gateway"
	"synapse-analytics/internal/metrics"
	rediscache "synapse-analytics/internal/store/redis"
	"synapse-analytics/internal/store/sqlite"
)

func serveCmd() *cobra.Command {
	var addr, metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, the demo websocket and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			m := metrics.NewMetrics(nil)
			health := metrics.NewHealthStatus()

			// SQLite backs the journal; the gateway only needs it for health.
			if err := ensureDir(cfg.SQLitePath); err != nil {
				return err
			}
			store, err := sqlite.New(sqlite.WriterConfig{DBPath: cfg.SQLitePath})
			if err != nil {
				return err
			}
			defer store.Close()
			health.SetSQLiteOK(true)

			opts := []gateway.Option{gateway.WithMetrics(m)}
			var rdb *goredis.Client
			if cfg.CacheEnabled() {
				cache, err := rediscache.NewCache(ctx, rediscache.CacheConfig{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					TTL:      cfg.CacheTTL,
					Prefix:   "analytics:",
				})
				if err != nil {
					slog.Warn("redis unavailable, serving without cache", slog.Any("err", err))
				} else {
					defer cache.Close()
					cache.OnResult = func(hit bool) {
						result := "miss"
						if hit {
							result = "hit"
						}
						m.CacheResultsTotal.WithLabelValues(result).Inc()
					}
					cache.WatchBreaker(func(from, to rediscache.State) {
						m.RedisCircuitBreakerState.Set(float64(to))
						if to == rediscache.StateOpen {
							m.RedisCircuitBreakerTrips.Inc()
						}
					})
					opts = append(opts, gateway.WithCache(cache))
					rdb = cache.Client()
				}
				health.SetRedisEnabled(true)
			}

			health.StartLivenessChecker(ctx, rdb, store.DB(), 15*time.Second)

			metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, nil)
			metricsSrv.Start()

			gw := gateway.NewServer(opts...)
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           gw.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("gateway listening", slog.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-errCh:
			}

			gw.Hub().Shutdown()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			metricsSrv.Stop(shutdownCtx)
			slog.Info("gateway stopped")
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "API listen address (default from ANALYTICS_HTTP_ADDR)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "metrics listen address (default from METRICS_ADDR)")
	return cmd
}
