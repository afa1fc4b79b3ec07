package node

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of one running node. Each client
// carries its own registry so several embedded nodes can coexist in one
// process.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal  prometheus.Counter
	QueriesFailed prometheus.Counter
	BlocksTotal   prometheus.Counter
	BlockEvents   prometheus.Histogram
	MempoolSize   prometheus.Gauge
	PeerCount     prometheus.Gauge
}

// NewMetrics creates a Metrics instance with the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		QueriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_queries_total",
			Help:      "Total number of RPC queries received",
		}),
		QueriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_queries_failed_total",
			Help:      "Total number of RPC queries that produced an error response",
		}),
		BlocksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_produced_total",
			Help:      "Total number of blocks produced",
		}),
		BlockEvents: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_events",
			Help:      "Number of events per produced block",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Current number of pending transactions in the mempool",
		}),
		PeerCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peer_count",
			Help:      "Number of connected peers",
		}),
	}
}

// RecordQuery records one RPC query outcome.
func (m *Metrics) RecordQuery(failed bool) {
	m.QueriesTotal.Inc()
	if failed {
		m.QueriesFailed.Inc()
	}
}

// RecordBlock records one produced block.
func (m *Metrics) RecordBlock(events int) {
	m.BlocksTotal.Inc()
	m.BlockEvents.Observe(float64(events))
}

// MetricsServer exposes /metrics and /health over HTTP.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics server for the given registry.
func NewMetricsServer(addr string, metrics *Metrics) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// StartAsync starts the metrics server in a goroutine.
func (s *MetricsServer) StartAsync() {
	go func() {
		_ = s.server.ListenAndServe()
	}()
}

// Stop stops the metrics server.
func (s *MetricsServer) Stop() error {
	return s.server.Close()
}
