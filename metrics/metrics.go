// Package metrics exposes Prometheus counters for auth activity and HTTP
// traffic.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auth "github.com/goliatone/go-mediaauth"
)

// Collector implements auth.ActivitySink and provides a request middleware
type Collector struct {
	authEvents       *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

var _ auth.ActivitySink = (*Collector)(nil)

// New registers the collectors on reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_events_total",
				Help: "Authentication events by type and error kind",
			},
			[]string{"event", "kind"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
	}

	for _, col := range []prometheus.Collector{c.authEvents, c.requestsTotal, c.requestDuration, c.requestsInFlight} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Record counts an auth event. Successful events carry an empty kind.
func (c *Collector) Record(_ context.Context, event auth.ActivityEvent) error {
	c.authEvents.WithLabelValues(string(event.EventType), event.Kind).Inc()
	return nil
}

// Route returns a middleware that records requests under a fixed method and
// route pattern. Labels never come from the request, so ids and tokens in the
// URL do not become series.
func (c *Collector) Route(method, pattern string) router.MiddlewareFunc {
	total := c.requestsTotal.MustCurryWith(prometheus.Labels{"method": method, "path": pattern})
	duration := c.requestDuration.WithLabelValues(method, pattern)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			start := time.Now()
			c.requestsInFlight.Inc()
			defer c.requestsInFlight.Dec()

			err := next(ctx)

			outcome := "ok"
			if err != nil {
				outcome = "error"
			}

			total.WithLabelValues(outcome).Inc()
			duration.Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// RequestsTotal exposes the request counter, labelled method, path, outcome
func (c *Collector) RequestsTotal() *prometheus.CounterVec {
	return c.requestsTotal
}

// Handler serves the registry in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
