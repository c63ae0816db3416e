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

const searchResultBody = `{
  "execution": {"done": true},
  "results": {
    "query_id": {
      "search_types": {
        "messages_id": {
          "messages": [
            {"message": {"timestamp": "2026-10-16T08:00:01.000Z", "message": "login failed", "Code": "904002"}},
            {"message": {"timestamp": "2026-10-16T08:00:00.000Z", "message": "login start"}}
          ]
        }
      }
    }
  }
}`

func newTestGraylogClient(t *testing.T, url string) *GraylogClient {
	t.Helper()
	c, err := NewGraylogClient(config.GraylogConfig{
		URL:      url,
		Username: "admin",
		Password: "secret",
		Timeout:  5 * time.Second,
	}, zap.NewNop(), nil)
	require.NoError(t, err)
	return c
}

func TestNewGraylogClientRequiresConfig(t *testing.T) {
	_, err := NewGraylogClient(config.GraylogConfig{URL: "http://graylog"}, zap.NewNop(), nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearchBuildsViewsRequest(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/views/search/sync", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		assert.NotEmpty(t, r.Header.Get("X-Requested-By"))

		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(searchResultBody))
	}))
	defer server.Close()

	records := newTestGraylogClient(t, server.URL+"/").Search(context.Background(), `RequestId:"ABC123"`, 120, 5)

	require.Len(t, records, 2)
	assert.Equal(t, "login failed", records[0]["message"])
	assert.Equal(t, "904002", records[0]["Code"])

	query := body["queries"].([]any)[0].(map[string]any)
	assert.Equal(t, "query_id", query["id"])
	assert.Equal(t, map[string]any{"type": "relative", "range": float64(120)}, query["timerange"])
	assert.Equal(t, `RequestId:"ABC123"`, query["query"].(map[string]any)["query_string"])
	searchType := query["search_types"].([]any)[0].(map[string]any)
	assert.Equal(t, "messages_id", searchType["id"])
	assert.Equal(t, float64(5), searchType["limit"])
	assert.Equal(t, []any{map[string]any{"field": "timestamp", "order": "DESC"}}, searchType["sort"])
}

func TestSearchAppliesDefaults(t *testing.T) {
	var body searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = w.Write([]byte(searchResultBody))
	}))
	defer server.Close()

	newTestGraylogClient(t, server.URL).Search(context.Background(), "Code:1", 0, 0)

	require.Len(t, body.Queries, 1)
	assert.Equal(t, DefaultSearchRange, body.Queries[0].Timerange.Range)
	assert.Equal(t, DefaultSearchLimit, body.Queries[0].SearchTypes[0].Limit)
}

func TestSearchNonSuccessStatusReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	records := newTestGraylogClient(t, server.URL).Search(context.Background(), "Code:1", 60, 10)

	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSearchMalformedResponseReturnsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not-json", body: "<html>"},
		{name: "missing-query", body: `{"results": {}}`},
		{name: "missing-search-type", body: `{"results": {"query_id": {"search_types": {}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			records := newTestGraylogClient(t, server.URL).Search(context.Background(), "x", 60, 10)
			assert.Empty(t, records)
		})
	}
}

func TestSearchTransportErrorReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	records := newTestGraylogClient(t, url).Search(context.Background(), "x", 60, 10)
	assert.Empty(t, records)
}
