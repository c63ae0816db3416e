package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/config"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestPriorityLabel(t *testing.T) {
	tests := []struct {
		name     string
		priority *int
		want     string
	}{
		{name: "information", priority: intPtr(0), want: "information"},
		{name: "low", priority: intPtr(1), want: "low"},
		{name: "normal", priority: intPtr(2), want: "normal"},
		{name: "high", priority: intPtr(3), want: "high"},
		{name: "absent", priority: nil, want: "unknown"},
		{name: "out-of-range", priority: intPtr(99), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriorityLabel(tt.priority))
		})
	}
}

func TestNewTeamsClientRequiresURL(t *testing.T) {
	_, err := NewTeamsClient(config.TeamsConfig{}, zap.NewNop(), nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNotifyPostsAdaptiveCard(t *testing.T) {
	var received TeamsMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c, err := NewTeamsClient(config.TeamsConfig{WebhookURL: server.URL}, zap.NewNop(), nil)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }

	ok := c.Notify(context.Background(), "Login failures", "root cause: db", strPtr("evt-1"), intPtr(3))

	require.True(t, ok)
	require.Len(t, received.Attachments, 1)
	card := received.Attachments[0].Content
	assert.Equal(t, "AdaptiveCard", card.Type)
	require.Len(t, card.Body, 5)

	facts := card.Body[2].Facts
	assert.Equal(t, []Fact{
		{Title: "Alert", Value: "Login failures"},
		{Title: "Event ID", Value: "evt-1"},
		{Title: "Priority", Value: "high"},
		{Title: "Analyzed At", Value: "2026-10-16 09:30:00 UTC"},
	}, facts)
	assert.Equal(t, "root cause: db", card.Body[4].Text)
}

func TestNotifyMissingEventID(t *testing.T) {
	c := &TeamsClient{now: time.Now}
	msg := c.buildMessage("t", "a", nil, nil)

	facts := msg.Attachments[0].Content.Body[2].Facts
	assert.Equal(t, "N/A", facts[1].Value)
	assert.Equal(t, "unknown", facts[2].Value)
}

func TestNotifyReturnsFalseOnErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad card", http.StatusBadRequest)
	}))
	defer server.Close()

	c, err := NewTeamsClient(config.TeamsConfig{WebhookURL: server.URL}, zap.NewNop(), nil)
	require.NoError(t, err)

	assert.False(t, c.Notify(context.Background(), "t", "a", nil, intPtr(2)))
}

func TestNotifyReturnsFalseOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, err := NewTeamsClient(config.TeamsConfig{WebhookURL: url}, zap.NewNop(), nil)
	require.NoError(t, err)

	assert.False(t, c.Notify(context.Background(), "t", "a", nil, nil))
}
