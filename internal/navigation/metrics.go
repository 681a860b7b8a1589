package navigation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marble_navigation_cache_hits_total",
		Help: "Navigation lookups served from the cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marble_navigation_cache_misses_total",
		Help: "Navigation lookups that scanned a comic directory.",
	})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marble_navigation_scan_duration_seconds",
		Help:    "Time spent scanning a comic directory.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	scanErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marble_navigation_scan_errors_total",
		Help: "Failed navigation scans by error kind.",
	}, []string{"kind"})
)
