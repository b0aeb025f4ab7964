package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_gateway_requests_total",
		Help: "Gateway requests by action and result code",
	}, []string{"action", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cafe_gateway_request_duration_seconds",
		Help:    "Gateway request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"action"})

	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cafe_gateway_lock_wait_seconds",
		Help:    "Time spent waiting for the mutation lock",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	lockBusyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafe_gateway_lock_busy_total",
		Help: "Mutations refused because the lock stayed taken",
	})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_gateway_cache_hits_total",
		Help: "Listing cache hits by key",
	}, []string{"key"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafe_gateway_cache_misses_total",
		Help: "Listing cache misses by key",
	}, []string{"key"})
)
