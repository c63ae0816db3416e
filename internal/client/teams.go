// Microsoft Teams Incoming Webhook(Power Automate) 클라이언트 정의
//
// 환경변수:
//   - TEAMS_WEBHOOK_URL: Adaptive Card를 받을 Webhook URL
//
// 전송 실패는 재시도하지 않고 false로만 보고 (호출 측은 "미전송"으로 취급)

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/config"
	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/tracing"
)

const teamsTimeout = 30 * time.Second

// TeamsClient 구조체 정의
type TeamsClient struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// TeamsMessage - attachments에 Adaptive Card 하나를 담아 전송
type TeamsMessage struct {
	Type        string            `json:"type"`
	Attachments []TeamsAttachment `json:"attachments"`
}

type TeamsAttachment struct {
	ContentType string       `json:"contentType"`
	Content     AdaptiveCard `json:"content"`
}

type AdaptiveCard struct {
	Schema  string         `json:"$schema"`
	Type    string         `json:"type"`
	Version string         `json:"version"`
	Body    []CardElement  `json:"body"`
	MSTeams map[string]any `json:"msteams,omitempty"`
}

// CardElement - TextBlock, FactSet 공용
type CardElement struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Wrap      bool   `json:"wrap,omitempty"`
	Separator bool   `json:"separator,omitempty"`
	Facts     []Fact `json:"facts,omitempty"`
}

type Fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// TeamsClient 객체 생성 (URL이 없으면 즉시 실패)
func NewTeamsClient(cfg config.TeamsConfig, logger *zap.Logger, m *metrics.Metrics) (*TeamsClient, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("%w: TEAMS_WEBHOOK_URL is required", ErrNotConfigured)
	}
	return &TeamsClient{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: teamsTimeout,
		},
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Notify - AI 분석 결과를 Adaptive Card로 전송, 2xx면 true
func (c *TeamsClient) Notify(ctx context.Context, title, analysis string, eventID *string, priority *int) bool {
	ctx, span := tracing.Start(ctx, "teams.notify", trace.SpanKindClient,
		attribute.String("teams.title", title),
	)

	err := c.send(ctx, c.buildMessage(title, analysis, eventID, priority))
	tracing.End(span, err)
	c.metrics.RecordNotification(err == nil)
	if err != nil {
		c.logger.Warn("Failed to send analysis to Teams", zap.String("title", title), zap.Error(err))
		return false
	}

	c.logger.Info("Sent analysis to Teams", zap.String("title", title))
	return true
}

func (c *TeamsClient) buildMessage(title, analysis string, eventID *string, priority *int) TeamsMessage {
	event := "N/A"
	if eventID != nil && *eventID != "" {
		event = *eventID
	}

	body := []CardElement{
		{Type: "TextBlock", Text: "🚨 Graylog Alert AI Investigation", Weight: "Bolder", Size: "Large", Color: "Attention"},
		{Type: "TextBlock", Text: "A **high priority alert** was detected and the AI investigation has finished:", Wrap: true},
		{
			Type: "FactSet",
			Facts: []Fact{
				{Title: "Alert", Value: title},
				{Title: "Event ID", Value: event},
				{Title: "Priority", Value: PriorityLabel(priority)},
				{Title: "Analyzed At", Value: c.now().UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		},
		{Type: "TextBlock", Text: "AI Analysis", Weight: "Bolder", Size: "Medium", Separator: true},
		{Type: "TextBlock", Text: analysis, Wrap: true},
	}

	return TeamsMessage{
		Type: "message",
		Attachments: []TeamsAttachment{
			{
				ContentType: "application/vnd.microsoft.card.adaptive",
				Content: AdaptiveCard{
					Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
					Type:    "AdaptiveCard",
					Version: "1.4",
					Body:    body,
					MSTeams: map[string]any{"width": "Full"},
				},
			},
		},
	}
}

// Webhook 호출
func (c *TeamsClient) send(ctx context.Context, msg TeamsMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("teams returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PriorityLabel - Graylog priority를 표시용 라벨로 변환
func PriorityLabel(priority *int) string {
	if priority == nil {
		return "unknown"
	}
	switch *priority {
	case 0:
		return "information"
	case 1:
		return "low"
	case 2:
		return "normal"
	case 3:
		return "high"
	default:
		return "unknown"
	}
}
