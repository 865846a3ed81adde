package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hearth",
		Subsystem: "luma",
		Name:      "requests_total",
		Help:      "Outbound calendar provider requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	ProviderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hearth",
		Subsystem: "luma",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound calendar provider requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	EventsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hearth",
		Subsystem: "events",
		Name:      "loads_total",
		Help:      "Event loads for page rendering, by source (live or fallback).",
	}, []string{"source"})
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hearth",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Inbound HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	ProbeUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hearth",
		Subsystem: "probe",
		Name:      "provider_up",
		Help:      "1 if the last scheduled provider connection check succeeded.",
	})
)

// Outcome labels for ProviderRequests.
const (
	OutcomeOK            = "ok"
	OutcomeUnconfigured  = "unconfigured"
	OutcomeRemoteError   = "remote_error"
	OutcomeNetworkError  = "network_error"
	OutcomeParseError    = "parse_error"
	SourceLive           = "live"
	SourceFallback       = "fallback"
	SourceFallbackFailed = "fallback_error"
)
