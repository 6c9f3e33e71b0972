package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// UpstreamRequestsTotal counts price feed calls by outcome
	// (ok, rate_limited, error).
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_feed_upstream_requests_total",
			Help: "Number of upstream price feed requests by outcome.",
		},
		[]string{"outcome"},
	)

	// PriceCacheHitsTotal counts fetches served from the fresh cache.
	PriceCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_hits_total",
			Help: "Number of price fetches served from cache.",
		},
	)

	// PriceCacheMissesTotal counts fetches that went upstream.
	PriceCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_misses_total",
			Help: "Number of price fetches that required an upstream call.",
		},
	)

	// PriceFallbacksTotal counts responses served from synthetic data.
	PriceFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_fallbacks_total",
			Help: "Number of price responses substituted with synthetic data.",
		},
		[]string{"endpoint"},
	)

	// OperationsTotal counts contract operations by kind and terminal status.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_operations_total",
			Help: "Number of submitted operations by kind and status.",
		},
		[]string{"kind", "status"},
	)

	// BalanceRefreshesTotal counts balance refresh runs by trigger
	// (periodic, confirmation, manual).
	BalanceRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_refreshes_total",
			Help: "Number of balance refreshes by trigger.",
		},
		[]string{"trigger"},
	)
)

// MustRegisterMetrics registers all application collectors with the default
// registry. Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		PriceCacheHitsTotal,
		PriceCacheMissesTotal,
		PriceFallbacksTotal,
		OperationsTotal,
		BalanceRefreshesTotal,
	)
}
