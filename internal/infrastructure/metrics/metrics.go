package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records request and sync activity for the Prometheus endpoint.
type APIMetrics struct {
	requestDuration *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	countsFailures  prometheus.Counter
	tokensIssued    prometheus.Counter
}

// NewAPIMetrics registers the API metrics on the provided registerer. A nil
// registerer yields a no-op recorder, which tests use.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries received, by topic and verification result.",
	}, []string{"topic", "verified"})
	countsFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_counts_query_failures_total",
		Help: "Failed Admin API shop counts queries.",
	})
	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "custom_tokens_issued_total",
		Help: "Custom auth tokens minted for shops.",
	})
	reg.MustRegister(requestDuration, webhookEvents, countsFailures, tokensIssued)
	return &APIMetrics{
		requestDuration: requestDuration,
		webhookEvents:   webhookEvents,
		countsFailures:  countsFailures,
		tokensIssued:    tokensIssued,
	}
}

// ObserveRequest records one handled HTTP request.
func (m *APIMetrics) ObserveRequest(route, method, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, status).Observe(duration.Seconds())
}

// IncWebhookEvent counts one webhook delivery.
func (m *APIMetrics) IncWebhookEvent(topic string, verified bool) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	label := "false"
	if verified {
		label = "true"
	}
	m.webhookEvents.WithLabelValues(topic, label).Inc()
}

// IncCountsFailure counts one failed shop counts query.
func (m *APIMetrics) IncCountsFailure() {
	if m == nil || m.countsFailures == nil {
		return
	}
	m.countsFailures.Inc()
}

// IncTokenIssued counts one minted custom token.
func (m *APIMetrics) IncTokenIssued() {
	if m == nil || m.tokensIssued == nil {
		return
	}
	m.tokensIssued.Inc()
}
