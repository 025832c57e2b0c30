package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "wiz_"

	exchangeSuccess  = "success"
	exchangeFailed   = "failed"
	exchangeTimeout  = "timeout"
	exchangeCanceled = "canceled"
	exchangeError    = "error"
)

var (
	registerOnce sync.Once

	fleetOperations       *prometheus.CounterVec
	fleetOperationLatency *prometheus.HistogramVec
	fleetUnreached        *prometheus.CounterVec

	deviceExchanges       *prometheus.CounterVec
	deviceExchangeLatency *prometheus.HistogramVec

	rejectedRequests *prometheus.CounterVec
	runStoreErrors   prometheus.Counter

	statusExports       *prometheus.CounterVec
	statusExportLatency *prometheus.HistogramVec
)

// Init registers fleet metrics with the default registry. Helpers are no-ops
// until Init runs.
func Init() {
	registerOnce.Do(func() {
		fleetOperations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fleet_operations_total",
				Help: "Total fleet operations by operation and aggregate status",
			},
			[]string{"operation", "status"},
		)
		fleetOperationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fleet_operation_latency_seconds",
				Help:    "Fleet operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)
		fleetUnreached = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fleet_unreached_devices_total",
				Help: "Devices that did not reply during a fleet operation",
			},
			[]string{"operation"},
		)

		deviceExchanges = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_exchanges_total",
				Help: "Total device request/reply exchanges by result",
			},
			[]string{"result"},
		)
		deviceExchangeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "device_exchange_latency_seconds",
				Help:    "Device exchange latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"result"},
		)

		rejectedRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rejected_requests_total",
				Help: "Requests rejected by input validation, by reason",
			},
			[]string{"reason"},
		)
		runStoreErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "run_store_errors_total",
				Help: "Failures writing fleet run history",
			},
		)

		statusExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_exports_total",
				Help: "Status report exports by format and result",
			},
			[]string{"format", "result"},
		)
		statusExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "status_export_latency_seconds",
				Help:    "Status report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format"},
		)

		prometheus.MustRegister(
			fleetOperations,
			fleetOperationLatency,
			fleetUnreached,
			deviceExchanges,
			deviceExchangeLatency,
			rejectedRequests,
			runStoreErrors,
			statusExports,
			statusExportLatency,
		)
	})
}

// ObserveFleetOperation records one fleet operation.
func ObserveFleetOperation(operation, status string, unreached int, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if fleetOperations != nil {
		fleetOperations.WithLabelValues(operation, status).Inc()
	}
	if fleetOperationLatency != nil {
		fleetOperationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
	if fleetUnreached != nil && unreached > 0 {
		fleetUnreached.WithLabelValues(operation).Add(float64(unreached))
	}
}

// ObserveDeviceExchange records one device exchange.
func ObserveDeviceExchange(result string, duration time.Duration) {
	if result == "" {
		result = exchangeError
	}
	if deviceExchanges != nil {
		deviceExchanges.WithLabelValues(result).Inc()
	}
	if deviceExchangeLatency != nil {
		deviceExchangeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncRejectedRequest counts a request rejected before reaching the fleet.
func IncRejectedRequest(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if rejectedRequests != nil {
		rejectedRequests.WithLabelValues(reason).Inc()
	}
}

// IncRunStoreError counts a failed run history write.
func IncRunStoreError() {
	if runStoreErrors != nil {
		runStoreErrors.Inc()
	}
}

// ObserveStatusExport records one status report export.
func ObserveStatusExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultError
	}
	if statusExports != nil {
		statusExports.WithLabelValues(format, result).Inc()
	}
	if statusExportLatency != nil {
		statusExportLatency.WithLabelValues(format).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = "success"
	ResultError   = "error"

	ExchangeSuccess  = exchangeSuccess
	ExchangeFailed   = exchangeFailed
	ExchangeTimeout  = exchangeTimeout
	ExchangeCanceled = exchangeCanceled
	ExchangeError    = exchangeError
)
