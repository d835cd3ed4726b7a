package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Supplier adapter metrics
	supplierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_requests_total",
			Help: "Total number of supplier requests",
		},
		[]string{"supplier", "operation", "status"},
	)

	supplierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supplier_request_duration_seconds",
			Help:    "Supplier request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"supplier", "operation"},
	)

	// Token cache metrics
	tokenCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supplier_token_cache_total",
			Help: "Supplier token cache lookups by result",
		},
		[]string{"supplier", "result"},
	)

	// Business metrics
	selectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_selections_total",
			Help: "Basket lines by selected supplier",
		},
		[]string{"supplier"},
	)

	comparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comparison_duration_seconds",
			Help:    "Time to build a comparison table",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	dispatchOrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_orders_total",
			Help: "Supplier order outcomes during dispatch",
		},
		[]string{"supplier", "status"},
	)

	systemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "component"},
	)
)

// HTTP Metrics
func RecordHTTPRequest(method, endpoint, statusCode string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
}

// Supplier Metrics
func RecordSupplierRequest(supplier, operation, status string, duration float64) {
	supplierRequestsTotal.WithLabelValues(supplier, operation, status).Inc()
	supplierRequestDuration.WithLabelValues(supplier, operation).Observe(duration)
}

// RecordTokenCache counts a token cache hit or miss
func RecordTokenCache(supplier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	tokenCacheTotal.WithLabelValues(supplier, result).Inc()
}

// Comparison Metrics
func RecordSelection(supplier string) {
	if supplier == "" {
		supplier = "none"
	}
	selectionsTotal.WithLabelValues(supplier).Inc()
}

func RecordComparison(duration float64) {
	comparisonDuration.Observe(duration)
}

// Dispatch Metrics
func RecordDispatchOrder(supplier, status string) {
	dispatchOrdersTotal.WithLabelValues(supplier, status).Inc()
}

func RecordSystemError(errorType, component string) {
	systemErrorsTotal.WithLabelValues(errorType, component).Inc()
}
