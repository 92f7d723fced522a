// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "powerbrief"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// OutboundCalls counts calls to third-party services by outcome (ok, error).
	OutboundCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbound",
		Name:      "calls_total",
		Help:      "Calls to third-party services by service and outcome.",
	}, []string{"service", "outcome"})

	ActiveUploads = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ads",
		Name:      "active_uploads",
		Help:      "Ad batch launches currently in progress.",
	})

	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		OutboundCalls,
		ActiveUploads,
	)
}

// ObserveCall records one outbound call.
func ObserveCall(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OutboundCalls.WithLabelValues(service, outcome).Inc()
}
