// Package metrics holds the Prometheus collectors shared by the assistant pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_llm_provider_attempts_total",
			Help: "Language model provider attempts by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaar_llm_provider_latency_seconds",
			Help:    "Latency of language model provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	UsageDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaar_llm_usage_dropped_total",
			Help: "Usage records dropped because the sink queue was full or failed",
		},
	)

	StageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_classifier_stage_fallbacks_total",
			Help: "Classifier stages that degraded to their local fallback",
		},
		[]string{"stage"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_cache_lookups_total",
			Help: "Stage cache lookups by result",
		},
		[]string{"cache", "result"},
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_intents_classified_total",
			Help: "Classified intents by source",
		},
		[]string{"intent", "source"},
	)

	RetrievalSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_retrieval_steps_total",
			Help: "Catalog retrieval steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_messages_handled_total",
			Help: "Inbound messages handled by branch",
		},
		[]string{"branch"},
	)

	HandleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaar_message_handle_duration_seconds",
			Help:    "Duration of a single message pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"branch"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_persistence_failures_total",
			Help: "Best-effort persistence steps that failed",
		},
		[]string{"step"},
	)
)
