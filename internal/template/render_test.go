package template

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-rca/graylog-relay/internal/model"
)

func intPtr(v int) *int { return &v }

func TestBuildUserPromptSuggestsTraceCall(t *testing.T) {
	alert := model.Alert{
		EventID:  "evt-1",
		Title:    "Login failures",
		Priority: intPtr(3),
		Fields:   map[string]any{"RequestId": "ABC123"},
		Backlog: []any{
			map[string]any{"RequestId": "ABC123", "Code": "904002"},
		},
	}

	prompt := BuildUserPrompt(alert)

	assert.Contains(t, prompt, "RequestId")
	assert.Contains(t, prompt, `search_graylog_logs(queryString='RequestId:"ABC123"', timeRangeSeconds=60, limit=20)`)
	assert.Contains(t, prompt, "**Login failures**")
	assert.Contains(t, prompt, "- Priority: 3")
	assert.Contains(t, prompt, "Anomaly #1")
}

func TestBuildUserPromptPriorityFieldsOnly(t *testing.T) {
	alert := model.Alert{
		Title: "t",
		Fields: map[string]any{
			"Code":    "904002",
			"Account": "alice",
			"Other":   "ignored",
		},
	}

	prompt := BuildUserPrompt(alert)

	assert.Contains(t, prompt, "- **Code**: `904002`")
	assert.Contains(t, prompt, "- **Account**: `alice`")
	assert.NotContains(t, prompt, "Other")
	assert.Less(t, strings.Index(prompt, "**Code**"), strings.Index(prompt, "**Account**"))
}

func TestBuildUserPromptFallsBackToTenFields(t *testing.T) {
	fields := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		fields[k] = k + "-value"
	}

	prompt := BuildUserPrompt(model.Alert{Title: "t", Fields: fields})

	assert.Contains(t, prompt, "- a: `a-value`")
	assert.Contains(t, prompt, "- j: `j-value`")
	assert.NotContains(t, prompt, "- k: `k-value`")
	assert.NotContains(t, prompt, "- l: `l-value`")
}

func TestBuildUserPromptEventInfo(t *testing.T) {
	ts := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	alert := model.Alert{
		EventID:    "evt-9",
		Title:      "t",
		Source:     "api-01",
		Message:    strings.Repeat("x", 150),
		OccurredAt: &ts,
	}

	prompt := BuildUserPrompt(alert)

	assert.Contains(t, prompt, "- Event ID: evt-9")
	assert.Contains(t, prompt, "- Source: api-01")
	assert.Contains(t, prompt, "- Time: 2026-10-16 08:00:00")
	assert.Contains(t, prompt, "- Message excerpt: "+strings.Repeat("x", 100)+"...\n")
}

func TestBuildUserPromptTruncatesBacklogMessage(t *testing.T) {
	long := strings.Repeat("m", 250)
	prompt := BuildUserPrompt(model.Alert{
		Title:   "t",
		Backlog: []any{map[string]any{"message": long}},
	})

	assert.Contains(t, prompt, "- Message: `"+strings.Repeat("m", 200)+"...`")
	assert.NotContains(t, prompt, strings.Repeat("m", 201))
}

func TestBuildUserPromptRawBlockForUnstructuredEntry(t *testing.T) {
	entry := []any{strings.Repeat("z", 600)}
	prompt := BuildUserPrompt(model.Alert{Title: "t", Backlog: []any{entry}})

	assert.Contains(t, prompt, "```json\n")
	assert.Contains(t, prompt, "...\n```")
	assert.NotContains(t, prompt, strings.Repeat("z", 500))
}

func TestSuggestedCalls(t *testing.T) {
	tests := []struct {
		name  string
		entry map[string]any
		want  []string
	}{
		{
			name:  "request-and-msg",
			entry: map[string]any{"RequestId": "r1", "MsgId": "m1", "Code": "1"},
			want: []string{
				`search_graylog_logs(queryString='RequestId:"r1"', timeRangeSeconds=60, limit=20)`,
				`search_graylog_logs(queryString='MsgId:"m1"', timeRangeSeconds=60, limit=20)`,
			},
		},
		{
			name:  "msg-only",
			entry: map[string]any{"MsgId": "m1"},
			want:  []string{`search_graylog_logs(queryString='MsgId:"m1"', timeRangeSeconds=60, limit=20)`},
		},
		{
			name:  "code-only",
			entry: map[string]any{"Code": float64(904002)},
			want:  []string{`search_graylog_logs(queryString='Code:"904002"', timeRangeSeconds=900, limit=50)`},
		},
		{
			name:  "nothing",
			entry: map[string]any{"message": "hello"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestedCalls(tt.entry))
		})
	}
}

func TestNormalizeEntry(t *testing.T) {
	t.Run("flattens-nested-fields", func(t *testing.T) {
		entry, ok := NormalizeEntry(map[string]any{
			"message": "top",
			"fields":  map[string]any{"RequestId": "r1", "message": "nested"},
		})
		require.True(t, ok)
		assert.Equal(t, "r1", entry["RequestId"])
		assert.Equal(t, "top", entry["message"])
		assert.NotContains(t, entry, "fields")
	})

	t.Run("json-string", func(t *testing.T) {
		entry, ok := NormalizeEntry(`{"Code":"904002"}`)
		require.True(t, ok)
		assert.Equal(t, "904002", entry["Code"])
	})

	t.Run("raw-message", func(t *testing.T) {
		entry, ok := NormalizeEntry(json.RawMessage(`{"MsgId":"m1"}`))
		require.True(t, ok)
		assert.Equal(t, "m1", entry["MsgId"])
	})

	t.Run("unsupported", func(t *testing.T) {
		_, ok := NormalizeEntry([]any{1, 2})
		assert.False(t, ok)
		_, ok = NormalizeEntry("plain text")
		assert.False(t, ok)
	})
}

func TestFormatSearchResults(t *testing.T) {
	assert.Equal(t, "No log records found for query 'Code:1'.", FormatSearchResults("Code:1", nil))

	out := FormatSearchResults("RequestId:\"r1\"", []model.LogRecord{
		{"timestamp": "2026-10-16T08:00:00Z", "message": "login failed", "Code": "904002", "Msg": "bad password"},
		{"message": "second"},
	})

	assert.Contains(t, out, "Found 2 log records:")
	assert.Contains(t, out, "### Log 1\n- Time: 2026-10-16T08:00:00Z\n- Message: login failed\n- Code: 904002\n- Description: bad password\n")
	assert.Contains(t, out, "### Log 2\n- Message: second\n")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "한글...", Truncate("한글입니다", 2))
	assert.Equal(t, "", Truncate("", 5))
}
