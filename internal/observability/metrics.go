// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the detection engine.
type Metrics struct {
	// Dispatcher metrics
	EventsProcessed   prometheus.Counter
	EventsMalformed   prometheus.Counter
	DetectorErrors    *prometheus.CounterVec
	ProcessingLatency prometheus.Histogram

	// Signal metrics
	SignalsEmitted  *prometheus.CounterVec
	SignalsDropped  prometheus.Counter
	PublishErrors   prometheus.Counter
	OutboundBacklog prometheus.Gauge

	// Window metrics
	RetainedBlocks prometheus.Gauge
	HighestBlock   prometheus.Gauge
	FlaggedBots    prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all metrics registered on
// the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chain_sentinel"
	}

	return &Metrics{
		EventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "events_processed_total",
			Help:      "Total number of transaction events processed",
		}),
		EventsMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "events_malformed_total",
			Help:      "Total number of events skipped by at least one detector as malformed",
		}),
		DetectorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "detector_errors_total",
			Help:      "Total number of detector evaluation errors by kind",
		}, []string{"kind"}),
		ProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "event_processing_seconds",
			Help:      "Latency of full per-event evaluation (window update plus all detectors)",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 6),
		}),
		SignalsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "emitted_total",
			Help:      "Total number of signals emitted by detector kind",
		}, []string{"kind"}),
		SignalsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "dropped_total",
			Help:      "Total number of signals dropped because the outbound queue was full",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "publish_errors_total",
			Help:      "Total number of sink publish failures (fire-and-forget: logged and dropped)",
		}),
		OutboundBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "outbound_backlog",
			Help:      "Signals currently queued for publishing",
		}),
		RetainedBlocks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "retained_blocks",
			Help:      "Distinct block numbers currently retained in the window",
		}),
		HighestBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "highest_block",
			Help:      "Highest block number ever appended",
		}),
		FlaggedBots: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "flagged_bots",
			Help:      "Addresses currently present in the bot registry",
		}),
	}
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
