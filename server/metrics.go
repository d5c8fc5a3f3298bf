package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// timer observes the time since it was created into a histogram.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) *timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	t.h.Observe(d.Seconds())
	return d
}

type metrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	buildsTotal     *prometheus.CounterVec
	indexedPoints   prometheus.Counter
	indexes         prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gocluster_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"route"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gocluster_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "code"}),

		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gocluster_index_build_duration_seconds",
			Help:    "Time spent building cluster indexes in seconds",
			Buckets: prometheus.ExponentialBuckets(.001, 4, 10),
		}),

		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gocluster_index_builds_total",
			Help: "Total number of index builds",
		}, []string{"success"}),

		indexedPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gocluster_indexed_points_total",
			Help: "Total number of points indexed",
		}),

		indexes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gocluster_indexes",
			Help: "Number of hosted indexes",
		}),
	}

	reg.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.buildDuration,
		m.buildsTotal,
		m.indexedPoints,
		m.indexes,
	)

	return m
}
