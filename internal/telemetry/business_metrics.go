package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/copperline/storefront/internal/domain"
)

// BusinessMetrics holds Prometheus metrics for business-level observability:
// the cart and checkout funnel, webhook reconciliation, and auth activity.
type BusinessMetrics struct {
	// Cart
	CartMutations *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted   prometheus.Counter
	CheckoutCompleted prometheus.Counter
	OrdersCreated     prometheus.Counter
	OrderValue        prometheus.Histogram

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Auth & accounts
	Signups     prometheus.Counter
	Logins      prometheus.Counter
	LoginFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "storefront"
	}

	subsystem := "business"

	return &BusinessMetrics{
		CartMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_mutations_total",
				Help:      "Total cart mutations by operation",
			},
			[]string{"op"}, // op: cart.addItem, cart.removeItem, cart.clear, ...
		),

		CheckoutStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout sessions opened",
			},
		),
		CheckoutCompleted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Total checkouts confirmed paid",
			},
		),
		OrdersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
		),
		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Paid order value distribution in cents",
				Buckets:   []float64{1000, 2500, 5000, 7500, 10000, 15000, 25000, 50000, 100000},
			},
		),

		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhooks received",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhooks successfully processed",
			},
			[]string{"event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook processing failures",
			},
			[]string{"stage"}, // stage: signature, dedup, apply
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processing_seconds",
				Help:      "Webhook processing duration",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"event_type"},
		),

		Signups: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "signups_total",
				Help:      "Total successful user signups",
			},
		),
		Logins: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "logins_total",
				Help:      "Total successful logins",
			},
		),
		LoginFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "login_failed_total",
				Help:      "Total failed login attempts",
			},
			[]string{"reason"}, // reason: invalid_password, user_not_found
		),
	}
}

// =============================================================================
// Recording helpers (nil-safe call sites live in the services)
// =============================================================================

func (m *BusinessMetrics) RecordCartMutation(op string) {
	m.CartMutations.WithLabelValues(op).Inc()
}

func (m *BusinessMetrics) RecordOrderCreated() {
	m.OrdersCreated.Inc()
}

func (m *BusinessMetrics) RecordCheckoutStarted() {
	m.CheckoutStarted.Inc()
}

// RecordCheckoutCompleted counts the paid checkout and observes its value.
func (m *BusinessMetrics) RecordCheckoutCompleted(total decimal.Decimal) {
	m.CheckoutCompleted.Inc()
	m.OrderValue.Observe(float64(domain.MinorUnits(total)))
}

func (m *BusinessMetrics) RecordWebhookReceived(eventType string) {
	m.WebhookReceived.WithLabelValues(eventType).Inc()
}

func (m *BusinessMetrics) RecordWebhookProcessed(eventType string, elapsed time.Duration) {
	m.WebhookProcessed.WithLabelValues(eventType).Inc()
	m.WebhookLatency.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

func (m *BusinessMetrics) RecordWebhookFailed(stage string) {
	m.WebhookFailed.WithLabelValues(stage).Inc()
}

func (m *BusinessMetrics) RecordSignup() {
	m.Signups.Inc()
}

func (m *BusinessMetrics) RecordLogin() {
	m.Logins.Inc()
}

func (m *BusinessMetrics) RecordLoginFailed(reason string) {
	m.LoginFailed.WithLabelValues(reason).Inc()
}
