// Package metrics exposes Prometheus collectors for the relay.
//
// All methods are safe on a nil *Metrics so collaborators can be built
// without a registry in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "graylog_relay"

const (
	labelOutcome = "outcome"
	labelTool    = "tool"
	labelStatus  = "status"
)

// Metrics holds every collector the relay reports.
type Metrics struct {
	webhooks       *prometheus.CounterVec
	investigations *prometheus.CounterVec
	investigation  prometheus.Histogram
	toolCalls      *prometheus.CounterVec
	searches       *prometheus.CounterVec
	searchLatency  prometheus.Histogram
	notifications  *prometheus.CounterVec
	storedAlerts   prometheus.Gauge
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Graylog webhooks received, labeled by processing outcome",
		}, []string{labelOutcome}),
		investigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "investigations_total",
			Help:      "AI investigations, labeled by outcome (ok, empty, failed)",
		}, []string{labelOutcome}),
		investigation: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "investigation_duration_seconds",
			Help:      "Wall time of a full AI investigation",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the chat model, labeled by tool name",
		}, []string{labelTool}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graylog_searches_total",
			Help:      "Graylog search API calls, labeled by HTTP status (or error)",
		}, []string{labelStatus}),
		searchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graylog_search_latency_seconds",
			Help:      "Graylog search API latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Teams notifications, labeled by outcome (sent, failed)",
		}, []string{labelOutcome}),
		storedAlerts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_alerts",
			Help:      "Alert records currently held in memory",
		}),
	}
}

func (m *Metrics) RecordWebhook(outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordInvestigation(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.investigations.WithLabelValues(outcome).Inc()
	m.investigation.Observe(duration.Seconds())
}

func (m *Metrics) RecordToolCall(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}

// RecordSearch records a search call. statusCode 0 means transport failure.
func (m *Metrics) RecordSearch(statusCode int, latency time.Duration) {
	if m == nil {
		return
	}
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.searches.WithLabelValues(status).Inc()
	m.searchLatency.Observe(latency.Seconds())
}

func (m *Metrics) RecordNotification(sent bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if sent {
		outcome = "sent"
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetStoredAlerts(n int) {
	if m == nil {
		return
	}
	m.storedAlerts.Set(float64(n))
}
