// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "email_gateway_sends_total",
		Help: "Send attempts by path and outcome.",
	}, []string{"path", "success"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "email_gateway_request_duration_seconds",
		Help:    "Inbound HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// PathDirect and PathAlias label the two sending paths.
const (
	PathDirect = "direct"
	PathAlias  = "alias"
)

// RecordSend counts one send attempt.
func RecordSend(path string, success bool) {
	sendsTotal.WithLabelValues(path, strconv.FormatBool(success)).Inc()
}

// RecordRequest observes one inbound request.
func RecordRequest(route string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
