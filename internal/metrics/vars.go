package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Quotes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_quotes_total",
		Help: "Served quote, price and depth requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	QuoteLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "swap_quote_latency_seconds",
		Help:    "Time to assemble a response",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	RoutingLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_routing_latency_seconds",
		Help:    "Time spent waiting on the routing engine",
		Buckets: prometheus.DefBuckets,
	})

	GasEstimationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_gas_estimation_failures_total",
		Help: "Gas simulations that failed, by kind (revert, insufficient_funds, undecodable, transport)",
	}, []string{"kind"})

	CalldataFixups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swap_calldata_fixups_total",
		Help: "Pay-taker token lists rewritten in swap calldata",
	})

	FeedPublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swap_feed_publish_errors_total",
		Help: "Quotes that could not be written to the redis feed",
	})
)

func init() {
	prometheus.MustRegister(
		Quotes,
		QuoteLatency,
		RoutingLatency,
		GasEstimationFailures,
		CalldataFixups,
		FeedPublishErrors,
	)
}
