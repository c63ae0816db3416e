// Graylog Search API와 통신하는 클라이언트 정의
//
// 환경변수:
//   - GRAYLOG_URL: Graylog 서버 URL (예: http://graylog:9000)
//   - GRAYLOG_USERNAME / GRAYLOG_PASSWORD: Basic Auth 계정
//
// 검색 실패(전송/인증/응답 형식 오류)는 로그만 남기고 빈 결과를 반환

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/config"
	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

const (
	DefaultSearchRange = 60
	DefaultSearchLimit = 20

	searchQueryID   = "query_id"
	searchMessageID = "messages_id"
)

// GraylogClient 구조체 정의
type GraylogClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Views Search API 요청 구조체
type searchRequest struct {
	Queries []searchQuery `json:"queries"`
}

type searchQuery struct {
	ID          string             `json:"id"`
	Timerange   searchTimerange    `json:"timerange"`
	Query       searchQueryString  `json:"query"`
	SearchTypes []searchTypeConfig `json:"search_types"`
}

type searchTimerange struct {
	Type  string `json:"type"`
	Range int    `json:"range"`
}

type searchQueryString struct {
	Type        string `json:"type"`
	QueryString string `json:"query_string"`
}

type searchTypeConfig struct {
	ID     string       `json:"id"`
	Type   string       `json:"type"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
	Sort   []searchSort `json:"sort"`
}

type searchSort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Views Search API 응답 중 메시지 목록 경로만 파싱
// results.query_id.search_types.messages_id.messages[].message
type searchResponse struct {
	Results map[string]struct {
		SearchTypes map[string]struct {
			Messages []struct {
				Message map[string]any `json:"message"`
			} `json:"messages"`
		} `json:"search_types"`
	} `json:"results"`
}

// GraylogClient 객체 생성
func NewGraylogClient(cfg config.GraylogConfig, logger *zap.Logger, m *metrics.Metrics) (*GraylogClient, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: GRAYLOG_URL and GRAYLOG_USERNAME are required", ErrNotConfigured)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GraylogClient{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}, nil
}

// Search - 상대 시간 범위(초) 안에서 queryString에 맞는 로그를 최신순으로 조회
// 실패 시 에러 대신 빈 슬라이스 반환
func (c *GraylogClient) Search(ctx context.Context, queryString string, timeRangeSeconds, limit int) []model.LogRecord {
	if timeRangeSeconds < 1 {
		timeRangeSeconds = DefaultSearchRange
	}
	if limit < 1 {
		limit = DefaultSearchLimit
	}

	ctx, span := tracing.Start(ctx, "graylog.search", trace.SpanKindClient,
		attribute.String("graylog.query", queryString),
		attribute.Int("graylog.range_seconds", timeRangeSeconds),
		attribute.Int("graylog.limit", limit),
	)

	records, err := c.search(ctx, queryString, timeRangeSeconds, limit)
	tracing.End(span, err)
	if err != nil {
		c.logger.Warn("Graylog search failed",
			zap.String("query", queryString),
			zap.Int("range_seconds", timeRangeSeconds),
			zap.Error(err),
		)
		return []model.LogRecord{}
	}

	c.logger.Info("Graylog search completed",
		zap.String("query", queryString),
		zap.Int("count", len(records)),
	)
	return records
}

func (c *GraylogClient) search(ctx context.Context, queryString string, timeRangeSeconds, limit int) ([]model.LogRecord, error) {
	req := searchRequest{
		Queries: []searchQuery{
			{
				ID:        searchQueryID,
				Timerange: searchTimerange{Type: "relative", Range: timeRangeSeconds},
				Query:     searchQueryString{Type: "elasticsearch", QueryString: queryString},
				SearchTypes: []searchTypeConfig{
					{
						ID:     searchMessageID,
						Type:   "messages",
						Offset: 0,
						Limit:  limit,
						Sort:   []searchSort{{Field: "timestamp", Order: "DESC"}},
					},
				},
			},
		},
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	searchURL := c.baseURL + "/api/views/search/sync"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// Graylog API는 CSRF 방지를 위해 X-Requested-By 헤더 필수
	httpReq.Header.Set("X-Requested-By", "graylog-relay")
	httpReq.SetBasicAuth(c.username, c.password)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordSearch(0, time.Since(start))
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.RecordSearch(resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graylog returned status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	query, ok := parsed.Results[searchQueryID]
	if !ok {
		return nil, fmt.Errorf("search result missing %s", searchQueryID)
	}
	messages, ok := query.SearchTypes[searchMessageID]
	if !ok {
		return nil, fmt.Errorf("search result missing %s", searchMessageID)
	}

	records := make([]model.LogRecord, 0, len(messages.Messages))
	for _, m := range messages.Messages {
		if m.Message == nil {
			continue
		}
		records = append(records, model.LogRecord(m.Message))
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
