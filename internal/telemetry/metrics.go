// Package telemetry exposes Prometheus metrics for the order pipeline.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Business is the process-wide business metrics instance. Services guard
// every use with a nil check so tests can run without registering metrics.
var Business *BusinessMetrics

// BusinessMetrics tracks checkout, webhook, and notification outcomes.
type BusinessMetrics struct {
	CheckoutStarted   prometheus.Counter
	CheckoutCompleted prometheus.Counter
	CheckoutFailed    *prometheus.CounterVec

	OrdersPaid     prometheus.Counter
	OrderValue     prometheus.Histogram
	StockShortfall prometheus.Counter

	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec

	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec

	OrderStatusChanged *prometheus.CounterVec
}

// NewBusinessMetrics registers business metrics under the given namespace
// and installs the global instance.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	m := &BusinessMetrics{
		CheckoutStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_started_total",
			Help:      "Checkout sessions successfully created",
		}),
		CheckoutCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_completed_total",
			Help:      "Checkout sessions that ended in a paid order",
		}),
		CheckoutFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkout attempts rejected or failed, by reason",
		}, []string{"reason"}),
		OrdersPaid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_paid_total",
			Help:      "Orders transitioned to paid",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_dollars",
			Help:      "Paid order totals in dollars",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
		}),
		StockShortfall: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_shortfalls_total",
			Help:      "Paid order lines with insufficient stock at payment time",
		}),
		WebhookReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_received_total",
			Help:      "Webhook events received, by event type",
		}, []string{"type"}),
		WebhookFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_failed_total",
			Help:      "Webhook events that failed processing, by event type",
		}, []string{"type"}),
		EmailSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Notification emails sent, by kind",
		}, []string{"kind"}),
		EmailFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_failed_total",
			Help:      "Notification emails that failed to send, by kind",
		}, []string{"kind"}),
		OrderStatusChanged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order fulfillment status changes, by new status",
		}, []string{"status"}),
	}

	Business = m
	return m
}

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers HTTP metrics under the given namespace.
func NewHTTPMetrics(namespace string) *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, path pattern, and status",
		}, []string{"method", "path", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and path pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Middleware records metrics for each request. The path label uses the
// matched ServeMux pattern, not the raw URL, to keep cardinality bounded.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the /metrics endpoint handler.
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
