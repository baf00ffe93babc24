package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	CustomerOperationsTotal *prometheus.CounterVec
	CustomersTotal          prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_service_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status_code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_service_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_service_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		CustomerOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_service_customer_operations_total",
				Help: "Total number of customer operations by kind and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		CustomersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "customer_service_customers",
				Help: "Number of customers held by the store at the last stats refresh.",
			},
		),
	}
)

func RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	HTTP.RequestsTotal.WithLabelValues(method, route, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordCustomerOperation(operation, outcome string) {
	Business.CustomerOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func SetCustomersTotal(count int) {
	Business.CustomersTotal.Set(float64(count))
}
