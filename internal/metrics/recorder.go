package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"book-search/internal/gutendex"
	"book-search/internal/search"
)

// Buckets for catalogue fetch latency (seconds).
var fetchLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Recorder exposes search session activity as Prometheus metrics.
type Recorder struct {
	registry    *prometheus.Registry
	fetches     *prometheus.CounterVec
	rateLimited prometheus.Counter
	latency     prometheus.Histogram
	inFlight    prometheus.Gauge
}

// NewRecorder registers the search metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booksearch_fetches_total",
			Help: "Catalogue fetches by outcome (applied, failed, stale).",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booksearch_rate_limited_total",
			Help: "Catalogue responses with HTTP 429.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "booksearch_fetch_duration_seconds",
			Help:    "Catalogue fetch latency.",
			Buckets: fetchLatencyBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "booksearch_in_flight",
			Help: "Fetches issued but not yet resolved.",
		}),
	}
	r.registry.MustRegister(
		r.fetches,
		r.rateLimited,
		r.latency,
		r.inFlight,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry returns the registry holding the search metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe implements search.Observer.
func (r *Recorder) Observe(_ context.Context, t search.Transition) {
	if t.Outcome == search.OutcomeStarted {
		r.inFlight.Inc()
		return
	}
	r.inFlight.Dec()
	r.fetches.WithLabelValues(string(t.Outcome)).Inc()
	r.latency.Observe(t.Latency.Seconds())

	var statusErr *gutendex.StatusError
	if errors.As(t.Err, &statusErr) && statusErr.RateLimited() {
		r.rateLimited.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown error", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
}
