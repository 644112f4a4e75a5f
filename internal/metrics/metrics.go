// Package metrics exposes connection and request counters for the
// optional /metrics endpoint.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	ObserveRequest(method string, code int, cost time.Duration)
	ObserveError(kind string)
}

type metrics struct {
	activeConnections prometheus.Gauge
	connectionsTotal  prometheus.Counter
	requestTotal      *prometheus.CounterVec
	errorTotal        *prometheus.CounterVec
	costHistogram     prometheus.Histogram
}

// New registers the collectors with reg. A nil reg returns a Metrics that
// records into collectors nobody scrapes.
func New(reg prometheus.Registerer) (Metrics, error) {
	buckets := []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}
	m := &metrics{
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{Name: "rawhttpd_active_connections", Help: "connections currently open"}),
		connectionsTotal:  prometheus.NewCounter(prometheus.CounterOpts{Name: "rawhttpd_connections_total", Help: "connections accepted"}),
		requestTotal:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rawhttpd_requests_total", Help: "responses written by method and status code"}, []string{"method", "code"}),
		errorTotal:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rawhttpd_errors_total", Help: "request errors by kind"}, []string{"kind"}),
		costHistogram:     prometheus.NewHistogram(prometheus.HistogramOpts{Name: "rawhttpd_request_duration_milliseconds", Help: "time from request read to response written", Buckets: buckets}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.activeConnections, m.connectionsTotal, m.requestTotal, m.errorTotal, m.costHistogram} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNop is for callers that never export metrics.
func NewNop() Metrics {
	m, _ := New(nil)
	return m
}

func (m *metrics) ConnectionOpened() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

func (m *metrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

func (m *metrics) ObserveRequest(method string, code int, cost time.Duration) {
	m.requestTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.costHistogram.Observe(float64(cost.Microseconds()) / 1000)
}

func (m *metrics) ObserveError(kind string) {
	m.errorTotal.WithLabelValues(kind).Inc()
}
