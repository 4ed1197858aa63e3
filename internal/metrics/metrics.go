package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedbackRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traveldna_feedback_recorded_total",
		Help: "Feedback events recorded, by kind",
	}, []string{"kind"})

	FeedbackWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traveldna_feedback_write_failures_total",
		Help: "Durable feedback appends that failed and were acknowledged with retry_later",
	})

	AdaptationsTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traveldna_adaptations_total",
		Help: "Profile adaptation batches applied",
	})

	FallbacksServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traveldna_fallback_total",
		Help: "Requests resolved by the popularity fallback path, by reason",
	}, []string{"reason"})

	RankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traveldna_ranking_duration_seconds",
		Help:    "Ranking request latency, by mode",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traveldna_cache_hits_total",
		Help: "Similarity cache hits, by namespace",
	}, []string{"namespace"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traveldna_cache_misses_total",
		Help: "Similarity cache misses, by namespace",
	}, []string{"namespace"})
)
