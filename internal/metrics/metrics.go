// Package metrics provides Prometheus metrics for the scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "closer_insights"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Reasoning service
	LLMAttempts *prometheus.CounterVec
	LLMLatency  *prometheus.HistogramVec

	// Scoring outcomes
	ScoringFallbacks prometheus.Counter
	OverallScore     prometheus.Histogram

	// Objection cache
	ObjectionCacheHits    prometheus.Counter
	ObjectionCacheMisses  prometheus.Counter
	ObjectionCacheEvicted prometheus.Counter
	ObjectionFailures     prometheus.Counter

	// Queue
	QueuePending   prometheus.Gauge
	QueueInFlight  prometheus.Gauge
	QueueProcessed *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg. A nil registerer
// produces unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LLMAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_attempts_total",
			Help:      "Reasoning service attempts by task and outcome",
		}, []string{"task", "outcome"}),
		LLMLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_latency_seconds",
			Help:      "Latency of reasoning service calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"task"}),

		ScoringFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_fallbacks_total",
			Help:      "Scoring invocations that exhausted all attempts and returned the fallback result",
		}),
		OverallScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of locally computed overall scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		ObjectionCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objection_cache_hits_total",
			Help:      "Objection lookups served from the cache",
		}),
		ObjectionCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objection_cache_misses_total",
			Help:      "Objection lookups that required a reasoning service call",
		}),
		ObjectionCacheEvicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objection_cache_evicted_total",
			Help:      "Expired objection cache entries removed",
		}),
		ObjectionFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objection_failures_total",
			Help:      "Objection extractions that failed after all attempts",
		}),

		QueuePending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_pending",
			Help:      "Calls waiting in the scoring queue",
		}),
		QueueInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_in_flight",
			Help:      "Calls currently being scored by the queue",
		}),
		QueueProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_processed_total",
			Help:      "Calls processed by the queue by final status",
		}, []string{"status"}),
	}
}
