// Package metrics exposes Prometheus instrumentation for the arena service,
// following the reference stack's namespace/subsystem/help/labels
// conventions (promauto-registered vectors, one struct per service).
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ArenaMetrics contains all metrics emitted by the arena service.
type ArenaMetrics struct {
	BuildInfo *prometheus.GaugeVec
	StartTime prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SessionsCreatedTotal   *prometheus.CounterVec
	SessionsActive         prometheus.Gauge
	ContainersStartedTotal *prometheus.CounterVec
	ContainerStartFailures *prometheus.CounterVec

	PreferencesRegisteredTotal *prometheus.CounterVec
	EloRecomputationsTotal     prometheus.Counter
	ReportsTotal               *prometheus.CounterVec

	ReplaySubscribers prometheus.Gauge
	WebsocketConns    prometheus.Gauge
}

// NewArenaMetrics creates and registers all arena service metrics under the
// given namespace (normally "gamebattle").
func NewArenaMetrics(namespace string) *ArenaMetrics {
	return &ArenaMetrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		}, []string{"version", "commit"}),
		StartTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Unix timestamp of service start time",
		}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		SessionsCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Total sessions created, by pairing strategy",
		}, []string{"strategy"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Currently live sessions across all owners",
		}),
		ContainersStartedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "containers_started_total",
			Help:      "Total containers started, by backend",
		}, []string{"backend"}),
		ContainerStartFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "container_start_failures_total",
			Help:      "Total container start failures, by backend",
		}, []string{"backend"}),

		PreferencesRegisteredTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "elo",
			Name:      "preferences_registered_total",
			Help:      "Preferences processed, by whether they counted toward ratings",
		}, []string{"counted"}),
		EloRecomputationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "elo",
			Name:      "full_replays_total",
			Help:      "Total full rating replays triggered by edits/deletes",
		}),
		ReportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "filed_total",
			Help:      "Total reports filed, by short_reason",
		}, []string{"short_reason"}),

		ReplaySubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Currently subscribed ReplayStream readers",
		}),
		WebsocketConns: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Currently open WebSocket connections",
		}),
	}
}

// Server exposes /metrics over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds a metrics HTTP server bound to addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: mux},
		logger:     logger,
	}
}

// Start begins serving metrics in the background.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ObserveHTTP records an HTTP request's outcome and latency.
func (m *ArenaMetrics) ObserveHTTP(method, path string, status int, start time.Time) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}
