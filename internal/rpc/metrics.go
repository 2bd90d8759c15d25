package rpc

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusRPCRequests     *prometheus.CounterVec
	prometheusRPCErrors       *prometheus.CounterVec
	prometheusRPCDuration     *prometheus.HistogramVec
	prometheusRPCUnauthorized prometheus.Counter

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

// knownMethods bounds the method label.
var knownMethods = map[string]bool{
	"ledger_getUtxos":        true,
	"ledger_getAddressUtxos": true,
	"ledger_getInfo":         true,
	"ledger_fund":            true,
	"tx_build":               true,
	"tx_submit":              true,
}

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusRPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vesting_rpc_requests",
			Help: "Number of JSON-RPC requests handled",
		},
		[]string{"method"},
	)
	prometheusRPCErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vesting_rpc_errors",
			Help: "Number of JSON-RPC requests answered with an error",
		},
		[]string{
			"method", // method called
			"code",   // JSON-RPC error code
		},
	)
	prometheusRPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vesting_rpc_duration_seconds",
			Help:    "Duration of JSON-RPC request handling",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	prometheusRPCUnauthorized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vesting_rpc_unauthorized",
			Help: "Number of requests refused for a missing or unknown project_id",
		},
	)
}

func observe(method string, start time.Time, rpcErr *Error) {
	if !knownMethods[method] {
		method = "unknown"
	}
	prometheusRPCRequests.WithLabelValues(method).Inc()
	prometheusRPCDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if rpcErr != nil {
		prometheusRPCErrors.WithLabelValues(method, strconv.Itoa(rpcErr.Code)).Inc()
	}
}
