// Package metrics registers the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequests counts inbound webhook calls by outcome
	// (accepted, auth_failed, rate_limited, invalid_payload, error).
	WebhookRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_webhook_requests_total",
		Help: "Inbound webhook requests by outcome",
	}, []string{"outcome"})

	// RateLimitRejections counts rejected requests per violated window.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_rate_limit_rejections_total",
		Help: "Rate limited requests by window type",
	}, []string{"window"})

	// Deliveries counts completed background deliveries by final status.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sms_deliveries_total",
		Help: "Background deliveries by final status",
	}, []string{"status"})

	// GenerationDuration observes the latency of the completion API call.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sms_generation_duration_seconds",
		Help:    "Latency of reply generation",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// SegmentsPerReply observes how many chunks each reply was split into.
	SegmentsPerReply = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sms_segments_per_reply",
		Help:    "Number of SMS segments per outbound reply",
		Buckets: []float64{1, 2, 3, 4, 5, 8, 12},
	})

	// QueueDepth tracks the number of tasks waiting for a worker.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sms_task_queue_depth",
		Help: "Tasks waiting in the delivery queue",
	})
)
