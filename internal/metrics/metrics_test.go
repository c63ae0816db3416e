package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordWebhook("stored")
	m.RecordWebhook("stored")
	m.RecordToolCall("search_graylog_logs")
	m.RecordSearch(200, 10*time.Millisecond)
	m.RecordSearch(0, time.Millisecond)
	m.RecordNotification(false)
	m.RecordInvestigation("ok", time.Second)
	m.SetStoredAlerts(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.webhooks.WithLabelValues("stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("search_graylog_logs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.investigations.WithLabelValues("ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.storedAlerts))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordWebhook("stored")
		m.RecordInvestigation("ok", time.Second)
		m.RecordToolCall("x")
		m.RecordSearch(500, time.Second)
		m.RecordNotification(true)
		m.SetStoredAlerts(1)
	})
}
