// Package metrics holds the process-wide Prometheus instruments.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	analyzeRequests   *prometheus.CounterVec
	analyzeDuration   prometheus.Histogram
	revealSteps       prometheus.Histogram
	fragmentsKept     prometheus.Histogram
	chunksClassified  prometheus.Histogram
	classifierLatency prometheus.Histogram
)

func initMetrics() {
	analyzeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toxscore",
		Name:      "analyze_requests_total",
		Help:      "Analyze requests by outcome.",
	}, []string{"outcome"})
	analyzeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toxscore",
		Name:      "analyze_duration_seconds",
		Help:      "End-to-end analyze latency.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
	})
	revealSteps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toxscore",
		Name:      "reveal_steps",
		Help:      "Scroll steps taken before a page stopped growing.",
		Buckets:   prometheus.LinearBuckets(1, 3, 11),
	})
	fragmentsKept = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toxscore",
		Name:      "fragments_kept",
		Help:      "Fragments left after normalization.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	chunksClassified = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toxscore",
		Name:      "chunks_classified",
		Help:      "Chunks sent to the classifier per request.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
	classifierLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "toxscore",
		Name:      "classifier_batch_seconds",
		Help:      "Classifier round-trip latency per batch.",
		Buckets:   prometheus.DefBuckets,
	})

	for _, c := range []prometheus.Collector{
		analyzeRequests, analyzeDuration, revealSteps,
		fragmentsKept, chunksClassified, classifierLatency,
	} {
		// a second registration only happens in tests that reset the registry
		_ = prometheus.Register(c)
	}
}

// ObserveAnalyze records one finished analyze request.
func ObserveAnalyze(outcome string, elapsed time.Duration) {
	metricsOnce.Do(initMetrics)
	analyzeRequests.WithLabelValues(outcome).Inc()
	analyzeDuration.Observe(elapsed.Seconds())
}

func ObserveRevealSteps(steps int) {
	metricsOnce.Do(initMetrics)
	revealSteps.Observe(float64(steps))
}

func ObserveFragments(n int) {
	metricsOnce.Do(initMetrics)
	fragmentsKept.Observe(float64(n))
}

func ObserveChunks(n int) {
	metricsOnce.Do(initMetrics)
	chunksClassified.Observe(float64(n))
}

func ObserveClassifierBatch(elapsed time.Duration) {
	metricsOnce.Do(initMetrics)
	classifierLatency.Observe(elapsed.Seconds())
}
